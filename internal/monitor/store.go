// internal/monitor/store.go
package monitor

import (
	"sort"
	"sync"
	"time"
)

// TransitionFunc advances one symbol's state for a new price observation.
// It runs while the symbol's lock is held, so it must not block or perform
// I/O.
type TransitionFunc func(symbol string, prior SymbolState, price float64, at time.Time) (SymbolState, *AlertEvent)

type symbolEntry struct {
	mu    sync.Mutex
	state SymbolState
}

// Store owns the symbol-to-state mapping. An RWMutex guards the map
// structure; each entry carries its own lock, so updates for distinct
// symbols never contend. Entries are created lazily and never removed for
// the life of a session.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*symbolEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*symbolEntry)}
}

// Upsert registers a symbol, creating empty state when it is unseen.
// Idempotent; used to pre-register the configured universe.
func (s *Store) Upsert(symbol string) {
	s.entry(symbol)
}

func (s *Store) entry(symbol string) *symbolEntry {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[symbol]; ok {
		return e
	}
	e = &symbolEntry{}
	s.entries[symbol] = e
	return e
}

// ApplyTick runs the transition for the tick's symbol under that symbol's
// lock and returns value snapshots of the state before and after, plus the
// alert when the transition produced one.
func (s *Store) ApplyTick(t Tick, transition TransitionFunc) (before, after SymbolState, alert *AlertEvent) {
	e := s.entry(t.Symbol)

	e.mu.Lock()
	before = e.state
	after, alert = transition(t.Symbol, before, t.Price, t.ObservedAt)
	e.state = after
	e.mu.Unlock()

	return before, after, alert
}

// Get returns a copy of the state for symbol.
func (s *Store) Get(symbol string) (SymbolState, bool) {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return SymbolState{}, false
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	return state, true
}

// Len returns the number of registered symbols.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SnapshotAll returns a copy of every symbol's state, ordered by symbol.
// Each entry is internally consistent; the view across symbols is
// approximate because entries are read one at a time while ticks keep
// flowing.
func (s *Store) SnapshotAll() []SymbolSnapshot {
	s.mu.RLock()
	symbols := make([]string, 0, len(s.entries))
	refs := make([]*symbolEntry, 0, len(s.entries))
	for symbol, e := range s.entries {
		symbols = append(symbols, symbol)
		refs = append(refs, e)
	}
	s.mu.RUnlock()

	snapshots := make([]SymbolSnapshot, len(symbols))
	for i, e := range refs {
		e.mu.Lock()
		snapshots[i] = SymbolSnapshot{Symbol: symbols[i], State: e.state}
		e.mu.Unlock()
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Symbol < snapshots[j].Symbol
	})
	return snapshots
}
