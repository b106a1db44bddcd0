// Package store implements the reactive entity store: the authoritative
// in-memory collection for one entity type, its change-notification fan-out,
// and the hand-off to best-effort persistence.
package store

import (
	"context"
	"fmt"
	"sync"

	"pos_client/internal/datasource"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/logging"
	"pos_client/pkg/telemetry"
)

// subscriberBuffer bounds how many snapshots a slow subscriber may lag behind
const subscriberBuffer = 64

// Entity is the constraint for stored records
type Entity[T any] interface {
	GetID() int
	WithID(id int) T
}

// Store holds the last known full collection for one entity type and
// publishes a snapshot to every subscriber on each change. Mutations are
// synchronous against the in-memory collection; the durable write happens
// afterwards on the persistence queue and never blocks or reorders the
// notification sequence.
type Store[T Entity[T]] struct {
	name       string
	collection datasource.Collection[T]
	queue      *PersistQueue
	logger     logging.Logger

	mu      sync.RWMutex
	items   []T
	subs    map[int]chan []T
	nextSub int
}

// New creates an empty store. Call SetInitial once bootstrap data is ready.
func New[T Entity[T]](name string, collection datasource.Collection[T], queue *PersistQueue, logger logging.Logger) *Store[T] {
	return &Store[T]{
		name:       name,
		collection: collection,
		queue:      queue,
		logger:     logger.WithField("component", "store").WithField("collection", name),
		subs:       make(map[int]chan []T),
	}
}

// Name returns the collection name
func (s *Store[T]) Name() string { return s.name }

// SetInitial installs the bootstrap snapshot and notifies subscribers. It does
// not write back to the data source.
func (s *Store[T]) SetInitial(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]T(nil), items...)
	s.notifyLocked()
	s.logger.Info("Initial collection installed", "count", len(items))
}

// Snapshot returns a copy of the current collection
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.items...)
}

// Count returns the number of records in the collection
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the record with the given id
func (s *Store[T]) Get(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Subscribe returns a channel that receives the current collection immediately
// and every subsequent snapshot, in mutation order, until cancel is called.
func (s *Store[T]) Subscribe() (<-chan []T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan []T, subscriberBuffer)
	s.subs[id] = ch

	// Replay the most recent value to the new subscriber
	ch <- append([]T(nil), s.items...)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Create assigns the next identifier (max existing + 1, or 1 when empty),
// appends the record, notifies subscribers, and schedules the durable write.
// The persisted record is returned synchronously.
func (s *Store[T]) Create(record T) T {
	return s.CreateWith(func(id int) T {
		return record.WithID(id)
	})
}

// CreateWith runs the builder with the assigned identifier under the store
// lock, letting callers derive identifier-dependent fields (order numbers)
// before the record is published.
func (s *Store[T]) CreateWith(build func(id int) T) T {
	s.mu.Lock()
	record := build(s.nextIDLocked())
	s.items = append(append([]T(nil), s.items...), record)
	s.notifyLocked()
	s.mu.Unlock()

	telemetry.StoreMutations.WithLabelValues(s.name, "create").Inc()
	s.enqueue("create", func(ctx context.Context) error {
		_, err := s.collection.Create(ctx, record)
		return err
	})
	return record
}

// Update applies mutate to the record with the given id, replaces the
// collection, notifies subscribers, and schedules the durable write
func (s *Store[T]) Update(id int, mutate func(T) T) (T, error) {
	var zero T

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return zero, fmt.Errorf("%s %d: %w", s.name, id, apperrors.ErrNotFound)
	}

	updated := mutate(s.items[idx]).WithID(id)
	next := append([]T(nil), s.items...)
	next[idx] = updated
	s.items = next
	s.notifyLocked()
	s.mu.Unlock()

	telemetry.StoreMutations.WithLabelValues(s.name, "update").Inc()
	s.enqueue("update", func(ctx context.Context) error {
		_, err := s.collection.Update(ctx, id, updated)
		return err
	})
	return updated, nil
}

// Delete removes the record with the given id
func (s *Store[T]) Delete(id int) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %d: %w", s.name, id, apperrors.ErrNotFound)
	}

	next := append([]T(nil), s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	s.notifyLocked()
	s.mu.Unlock()

	telemetry.StoreMutations.WithLabelValues(s.name, "delete").Inc()
	s.enqueue("delete", func(ctx context.Context) error {
		return s.collection.Delete(ctx, id)
	})
	return nil
}

func (s *Store[T]) enqueue(op string, write func(ctx context.Context) error) {
	if s.queue == nil || s.collection == nil {
		return
	}
	s.queue.Enqueue(s.name, op, write)
}

func (s *Store[T]) nextIDLocked() int {
	maxID := 0
	for _, item := range s.items {
		if item.GetID() > maxID {
			maxID = item.GetID()
		}
	}
	return maxID + 1
}

func (s *Store[T]) indexLocked(id int) int {
	for i, item := range s.items {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}

// notifyLocked publishes the current collection to every subscriber. Sends are
// non-blocking: a subscriber that has fallen subscriberBuffer snapshots behind
// loses the oldest-first guarantee and is warned about, never blocked on.
func (s *Store[T]) notifyLocked() {
	snapshot := append([]T(nil), s.items...)
	for id, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			s.logger.Warn("Subscriber too slow, dropping snapshot", "subscriber", id)
		}
	}
}
