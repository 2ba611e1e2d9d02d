// Package history keeps each user's saved scans, newest first, capped at
// MaxEntries.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"blitzscan/internal/models"
	"blitzscan/internal/store"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

const (
	MaxEntries = 50
	keyPrefix  = "blitz_scan_history_"
)

// Recorder is implemented by the key-value history and the database adapter.
type Recorder interface {
	Save(ctx context.Context, owner string, scan *models.Scan) error
	List(ctx context.Context, owner string) ([]models.Scan, error)
	Get(ctx context.Context, owner, id string) (*models.Scan, error)
	Delete(ctx context.Context, owner, id string) error
}

// Key is the storage key holding owner's history.
func Key(owner string) string {
	return keyPrefix + owner
}

// History stores the list as one JSON array per owner. Saves within a
// process are serialized per key; separate processes race with
// last-writer-wins.
type History struct {
	store  store.Store
	limit  int
	logger *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*History)

func WithLimit(limit int) Option {
	return func(h *History) {
		if limit > 0 {
			h.limit = limit
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

func New(s store.Store, opts ...Option) *History {
	h := &History{
		store:  s,
		limit:  MaxEntries,
		logger: logger.Default(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *History) lock(key string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[key]
	if !ok {
		l = &sync.Mutex{}
		h.locks[key] = l
	}
	return l
}

// Save prepends scan to owner's history and drops the oldest entries past
// the limit.
func (h *History) Save(ctx context.Context, owner string, scan *models.Scan) error {
	if owner == "" {
		return errors.ErrNotAuthenticated
	}
	key := Key(owner)
	l := h.lock(key)
	l.Lock()
	defer l.Unlock()

	scans, err := h.load(ctx, key)
	if err != nil {
		return err
	}

	scans = append([]models.Scan{*scan}, scans...)
	if len(scans) > h.limit {
		h.logger.WithFields(logger.Fields{
			"owner":   owner,
			"evicted": len(scans) - h.limit,
		}).Debug("history capped")
		scans = scans[:h.limit]
	}

	return h.write(ctx, key, scans)
}

// List returns owner's history, newest first. A missing history is empty.
func (h *History) List(ctx context.Context, owner string) ([]models.Scan, error) {
	if owner == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return h.load(ctx, Key(owner))
}

func (h *History) Get(ctx context.Context, owner, id string) (*models.Scan, error) {
	scans, err := h.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range scans {
		if scans[i].ID == id {
			return &scans[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errors.ErrScanNotFound, id)
}

func (h *History) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return errors.ErrNotAuthenticated
	}
	key := Key(owner)
	l := h.lock(key)
	l.Lock()
	defer l.Unlock()

	scans, err := h.load(ctx, key)
	if err != nil {
		return err
	}
	kept := scans[:0]
	for _, scan := range scans {
		if scan.ID != id {
			kept = append(kept, scan)
		}
	}
	if len(kept) == len(scans) {
		return fmt.Errorf("%w: %s", errors.ErrScanNotFound, id)
	}
	return h.write(ctx, key, kept)
}

// Clear removes owner's whole history.
func (h *History) Clear(ctx context.Context, owner string) error {
	return h.store.Delete(ctx, Key(owner))
}

func (h *History) load(ctx context.Context, key string) ([]models.Scan, error) {
	data, err := h.store.Get(ctx, key)
	if errors.Is(err, errors.ErrNotFound) {
		return []models.Scan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	scans := make([]models.Scan, 0)
	if err := json.Unmarshal(data, &scans); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", key, err)
	}
	return scans, nil
}

func (h *History) write(ctx context.Context, key string, scans []models.Scan) error {
	data, err := json.Marshal(scans)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Stats are the counters shown on the profile view.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	LastWeek  int `json:"last_week"`
}

func ComputeStats(scans []models.Scan, now time.Time) Stats {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	stats := Stats{Total: len(scans)}
	for _, scan := range scans {
		if scan.Status == models.StatusCompleted {
			stats.Completed++
		}
		if scan.CreatedAt.After(weekAgo) {
			stats.LastWeek++
		}
	}
	return stats
}
