// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package dedup guards the webhook intake against the messaging
// platform's at-least-once delivery. It is a best-effort, in-memory,
// single-process window: restarts forget everything, which the
// platform's own retry window makes an acceptable trade.
package dedup

import (
	"sync"
	"time"
)

// DefaultCapacity is how many event identifiers are retained before
// the oldest are evicted.
const DefaultCapacity = 1000

// DefaultMinInterval is the minimum spacing between two admitted
// events. Messages arriving faster than this are dropped as a coarse
// guard against feedback storms (the bot's own replies being
// re-ingested, or a webhook retry burst).
const DefaultMinInterval = time.Second

// Deduplicator tracks recently admitted event identifiers. All methods
// are safe for concurrent use; the check-then-insert in Admit is
// atomic under one mutex so two concurrent deliveries of the same
// retried event can never both be admitted.
type Deduplicator struct {
	capacity    int
	minInterval time.Duration

	mu           sync.Mutex
	seen         map[string]struct{}
	order        []string // insertion order, oldest first
	lastAdmitted time.Time
}

// New creates a Deduplicator. capacity <= 0 uses DefaultCapacity;
// minInterval < 0 uses DefaultMinInterval (0 disables the spacing
// guard, which tests rely on).
func New(capacity int, minInterval time.Duration) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if minInterval < 0 {
		minInterval = DefaultMinInterval
	}
	return &Deduplicator{
		capacity:    capacity,
		minInterval: minInterval,
		seen:        make(map[string]struct{}, capacity),
	}
}

// Admit decides whether the event should be processed. It returns
// false for an identifier that was already admitted, regardless of how
// much time has passed, and false for an event arriving within the
// minimum interval of the previously admitted one. On admission the
// identifier is recorded and, when the window exceeds its capacity,
// the oldest identifiers are evicted.
func (dedup *Deduplicator) Admit(eventID string, now time.Time) bool {
	dedup.mu.Lock()
	defer dedup.mu.Unlock()

	if _, exists := dedup.seen[eventID]; exists {
		return false
	}
	if dedup.minInterval > 0 && !dedup.lastAdmitted.IsZero() && now.Sub(dedup.lastAdmitted) < dedup.minInterval {
		return false
	}

	dedup.seen[eventID] = struct{}{}
	dedup.order = append(dedup.order, eventID)
	dedup.lastAdmitted = now

	// Evict down to capacity. Insertion order approximates LRU, which
	// is enough for a best-effort window.
	for len(dedup.order) > dedup.capacity {
		oldest := dedup.order[0]
		dedup.order = dedup.order[1:]
		delete(dedup.seen, oldest)
	}
	return true
}

// Len returns the number of identifiers currently tracked.
func (dedup *Deduplicator) Len() int {
	dedup.mu.Lock()
	defer dedup.mu.Unlock()
	return len(dedup.seen)
}
