// Package hooks runs side effects once a scan reaches a terminal state.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"blitzscan/internal/models"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

// Hook is invoked with the terminal scan.
type Hook interface {
	Name() string
	Execute(ctx context.Context, scan *models.Scan) error
}

type Registry struct {
	mu       sync.RWMutex
	hooks    []Hook
	inflight sync.WaitGroup
	logger   *logger.Logger
}

func NewRegistry(l *logger.Logger) *Registry {
	if l == nil {
		l = logger.Default()
	}
	return &Registry{logger: l}
}

// Register adds h. A hook whose name is already registered is replaced.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.hooks {
		if existing.Name() == h.Name() {
			r.logger.WithFields(logger.Fields{"hook": h.Name()}).Warn("hook already registered, replacing")
			r.hooks[i] = h
			return
		}
	}
	r.hooks = append(r.hooks, h)
}

// List returns the registered hook names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for _, h := range r.hooks {
		names = append(names, h.Name())
	}
	return names
}

// Dispatch runs the hooks for scan in the background on a copy of it.
func (r *Registry) Dispatch(ctx context.Context, scan *models.Scan) {
	r.mu.RLock()
	empty := len(r.hooks) == 0
	r.mu.RUnlock()
	if empty {
		return
	}

	snapshot := *scan
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		_ = r.logger.Timed("completion hooks", logger.Fields{"scan_id": snapshot.ID, "status": snapshot.Status}, func() error {
			return r.Run(ctx, &snapshot)
		})
	}()
}

// Wait blocks until every dispatched run has returned.
func (r *Registry) Wait() {
	r.inflight.Wait()
}

// Run executes every hook concurrently and waits for all of them. Failures
// are logged and joined into the returned error.
func (r *Registry) Run(ctx context.Context, scan *models.Scan) error {
	r.mu.RLock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks))

	for _, hook := range hooks {
		wg.Add(1)
		go func(h Hook) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errChan <- fmt.Errorf("hook %s panicked: %v", h.Name(), p)
				}
			}()

			log := r.logger.WithScan(scan.ID, string(scan.Kind)).WithField("hook", h.Name())
			if err := h.Execute(ctx, scan); err != nil {
				log.WithError(err).Error("hook failed")
				errChan <- fmt.Errorf("hook %s: %w", h.Name(), err)
				return
			}
			log.Debug("hook completed")
		}(hook)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
