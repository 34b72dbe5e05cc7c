// internal/monitor/evaluator.go
package monitor

import (
	"errors"
	"fmt"
	"time"
)

// AlertPolicy controls when a qualifying drawdown becomes an alert.
// The zero Cooldown with OncePerPeak false reproduces the reference
// behavior: every qualifying tick below a peak re-fires.
type AlertPolicy struct {
	// ThresholdPercent is the inclusive drawdown threshold, in percent.
	ThresholdPercent float64
	// Cooldown suppresses alerts for a symbol within the window after
	// its previous alert. Zero disables suppression.
	Cooldown time.Duration
	// OncePerPeak fires at most one alert per running-max episode. The
	// gate resets when a new high supersedes the peak.
	OncePerPeak bool
}

// DefaultAlertPolicy returns the reference policy: 20% threshold, no
// suppression.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{ThresholdPercent: 20.0}
}

// Validate rejects parameter values that would make the monitor useless.
func (p AlertPolicy) Validate() error {
	if p.ThresholdPercent <= 0 {
		return fmt.Errorf("dip threshold must be positive, got %.2f", p.ThresholdPercent)
	}
	if p.Cooldown < 0 {
		return errors.New("alert cooldown must not be negative")
	}
	return nil
}

// Evaluate applies one price observation to a symbol's prior state and
// returns the next state plus an alert when the drawdown from the running
// max meets or exceeds the policy threshold.
//
// Rules:
//   - The first tick seeds currentPrice = runningMax = price and never
//     alerts.
//   - A new high resets the drawdown baseline to the new peak.
//   - Firing never resets the running max; with no suppression policy a
//     sustained decline re-fires on every qualifying tick.
//
// Evaluate is a pure function; the Store runs it while holding the
// symbol's lock.
func Evaluate(symbol string, prior SymbolState, price float64, at time.Time, policy AlertPolicy) (SymbolState, *AlertEvent) {
	next := prior

	if !prior.Initialized {
		next.CurrentPrice = price
		next.RunningMax = price
		next.RunningMaxAt = at
		next.LastUpdateAt = at
		next.UpdateCount = 1
		next.Initialized = true
		return next, nil
	}

	next.CurrentPrice = price
	next.LastUpdateAt = at
	next.UpdateCount++

	switch {
	case price > next.RunningMax:
		next.RunningMax = price
		next.RunningMaxAt = at
		next.AlertedAtMax = false
		return next, nil
	case price == next.RunningMax:
		return next, nil
	}

	drawdown := (next.RunningMax - price) / next.RunningMax * 100
	if drawdown < policy.ThresholdPercent {
		return next, nil
	}
	if policy.OncePerPeak && next.AlertedAtMax {
		return next, nil
	}
	if policy.Cooldown > 0 && !next.LastAlertAt.IsZero() && at.Sub(next.LastAlertAt) < policy.Cooldown {
		return next, nil
	}

	next.LastAlertAt = at
	next.AlertedAtMax = true

	alert := &AlertEvent{
		ID:              fmt.Sprintf("alert_%s_%d", symbol, at.UnixNano()),
		Symbol:          symbol,
		CurrentPrice:    price,
		RunningMax:      next.RunningMax,
		DrawdownPercent: drawdown,
		SecondsSinceMax: int64(at.Sub(next.RunningMaxAt).Seconds()),
		UpdateCount:     next.UpdateCount,
		EmittedAt:       at,
	}
	return next, alert
}
