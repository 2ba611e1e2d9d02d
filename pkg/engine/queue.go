package engine

import (
	"context"
	"sync"

	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

// ScanQueue bounds how many scans run at once and allows a single scan in
// flight per requester.
type ScanQueue struct {
	semaphore chan struct{}
	inFlight  map[string]struct{}
	running   int
	queued    int
	mu        sync.Mutex
	logger    *logger.Logger
}

func NewScanQueue(maxConcurrent int, l *logger.Logger) *ScanQueue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if l == nil {
		l = logger.Default()
	}
	q := &ScanQueue{
		semaphore: make(chan struct{}, maxConcurrent),
		inFlight:  make(map[string]struct{}),
		logger:    l,
	}
	q.logger.Info("Scan queue initialized", logger.Fields{
		"max_concurrent": maxConcurrent,
	})
	return q
}

// Execute runs fn once a slot is free. A requester that already has a scan
// queued or running gets errors.ErrScanInProgress immediately.
func (q *ScanQueue) Execute(ctx context.Context, requester string, fn func(context.Context) error) error {
	q.mu.Lock()
	if _, busy := q.inFlight[requester]; busy {
		q.mu.Unlock()
		return errors.ErrScanInProgress
	}
	q.inFlight[requester] = struct{}{}
	q.queued++
	currentQueued, currentRunning := q.queued, q.running
	q.mu.Unlock()

	q.logger.WithFields(logger.Fields{
		"requester": requester,
		"queued":    currentQueued,
		"running":   currentRunning,
		"slots":     cap(q.semaphore),
	}).Debug("Scan added to queue")

	select {
	case q.semaphore <- struct{}{}:
	case <-ctx.Done():
		q.mu.Lock()
		q.queued--
		delete(q.inFlight, requester)
		q.mu.Unlock()
		return ctx.Err()
	}

	q.mu.Lock()
	q.queued--
	q.running++
	q.mu.Unlock()

	defer func() {
		<-q.semaphore
		q.mu.Lock()
		q.running--
		delete(q.inFlight, requester)
		remainingRunning, remainingQueued := q.running, q.queued
		q.mu.Unlock()

		q.logger.WithFields(logger.Fields{
			"requester": requester,
			"running":   remainingRunning,
			"queued":    remainingQueued,
		}).Debug("Scan slot released")
	}()

	return fn(ctx)
}

// Busy reports whether requester has a scan queued or running.
func (q *ScanQueue) Busy(requester string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, busy := q.inFlight[requester]
	return busy
}

// GetStatus returns current queue status
func (q *ScanQueue) GetStatus() (running, queued, maxConcurrent int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running, q.queued, cap(q.semaphore)
}
