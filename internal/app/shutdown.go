// internal/app/shutdown.go
package app

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CloseFunc allows using a function as an io.Closer.
type CloseFunc func() error

func (f CloseFunc) Close() error {
	return f()
}

type namedService struct {
	name   string
	closer io.Closer
}

// ShutdownHandler closes registered services in reverse registration
// order. Each service gets its own grace period; one that exceeds it is
// abandoned and reported while the remaining services still close.
type ShutdownHandler struct {
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	services []namedService
}

// NewShutdownHandler creates a handler with the given per-service grace
// period.
func NewShutdownHandler(logger *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ShutdownHandler{
		logger:  logger.Named("shutdown"),
		timeout: timeout,
	}
}

// Add registers a service for shutdown. Services close in reverse
// registration order.
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.services = append(sh.services, namedService{name: name, closer: closer})
	sh.logger.Debug("Service registered",
		zap.String("service", name),
		zap.Int("position", len(sh.services)))
}

// AddFunc registers a shutdown function.
func (sh *ShutdownHandler) AddFunc(name string, fn func() error) {
	sh.Add(name, CloseFunc(fn))
}

// Shutdown closes every registered service, newest first. Safe to call
// once; a second call finds nothing left to close.
func (sh *ShutdownHandler) Shutdown() error {
	sh.mu.Lock()
	services := sh.services
	sh.services = nil
	sh.mu.Unlock()

	if len(services) == 0 {
		return nil
	}
	sh.logger.Info("Closing services", zap.Int("count", len(services)))

	failed := 0
	for i := len(services) - 1; i >= 0; i-- {
		if err := sh.closeWithGrace(services[i]); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d services failed to shut down", failed, len(services))
	}
	sh.logger.Info("✅ Graceful shutdown complete")
	return nil
}

func (sh *ShutdownHandler) closeWithGrace(svc namedService) error {
	done := make(chan error, 1)
	go func() {
		done <- svc.closer.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			sh.logger.Error("Service shutdown failed",
				zap.String("service", svc.name),
				zap.Error(err))
			return err
		}
		sh.logger.Debug("Service closed", zap.String("service", svc.name))
		return nil
	case <-time.After(sh.timeout):
		sh.logger.Error("Service shutdown timed out",
			zap.String("service", svc.name),
			zap.Duration("grace", sh.timeout))
		return fmt.Errorf("%s: shutdown timed out", svc.name)
	}
}
