// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package batch

// Store holds the pending state of one queue between dispatches: the
// latest payload per identity awaiting creation, and the set of
// identities awaiting deletion. An identity is never in both — a
// delete against a pending create cancels the create locally.
//
// Store issues no I/O and is not safe for concurrent use; the owning
// Queue serializes access under its own mutex. Drained batches
// preserve enqueue order.
type Store[K comparable, E any] struct {
	coalesce func(old, newer E) E

	pendingCreates map[K]E
	createOrder    []K

	pendingDeletes map[K]struct{}
	deleteOrder    []K

	// dispatched tracks identities whose creates have been drained
	// for dispatch, or that a fetch has confirmed to exist remotely.
	// Only these identities can enter the pending-deletion set: a
	// delete for an identity the queue has never seen is a local
	// no-op, never a collector call.
	dispatched map[K]struct{}
}

// NewStore creates an empty store. coalesce resolves a second create
// for an identity that is already pending; nil means the newer payload
// replaces the older outright.
func NewStore[K comparable, E any](coalesce func(old, newer E) E) *Store[K, E] {
	if coalesce == nil {
		coalesce = func(_, newer E) E { return newer }
	}
	return &Store[K, E]{
		coalesce:       coalesce,
		pendingCreates: make(map[K]E),
		pendingDeletes: make(map[K]struct{}),
		dispatched:     make(map[K]struct{}),
	}
}

// EnqueueCreate records entity as pending creation. A payload already
// pending under the same key is coalesced rather than duplicated, and
// keeps its original position in the batch order.
func (s *Store[K, E]) EnqueueCreate(key K, entity E) {
	if old, ok := s.pendingCreates[key]; ok {
		s.pendingCreates[key] = s.coalesce(old, entity)
		return
	}
	s.pendingCreates[key] = entity
	s.createOrder = append(s.createOrder, key)
}

// UpdatePending applies mutate to the pending payload for key, if one
// exists. Returns false without calling mutate otherwise.
func (s *Store[K, E]) UpdatePending(key K, mutate func(E) E) bool {
	entity, ok := s.pendingCreates[key]
	if !ok {
		return false
	}
	s.pendingCreates[key] = mutate(entity)
	return true
}

// GetPending returns the pending create payload for key, if any.
func (s *Store[K, E]) GetPending(key K) (E, bool) {
	entity, ok := s.pendingCreates[key]
	return entity, ok
}

// MarkDispatched records that key exists (or is about to exist) on
// the collector, making it eligible for a queued deletion.
func (s *Store[K, E]) MarkDispatched(key K) {
	s.dispatched[key] = struct{}{}
}

// EnqueueDelete records a deletion request for key.
//
// If key is pending creation, the create is cancelled locally and
// cancelled is true: no collector call will ever be made for this
// identity. Otherwise queued reports whether the key was added to the
// pending-deletion set; it is false when the key is already queued
// for deletion or was never seen by this store at all — deletion is
// idempotent, and a double free is a no-op rather than an error.
func (s *Store[K, E]) EnqueueDelete(key K) (cancelled, queued bool) {
	if _, ok := s.pendingCreates[key]; ok {
		delete(s.pendingCreates, key)
		s.createOrder = removeKey(s.createOrder, key)
		return true, false
	}
	if _, ok := s.pendingDeletes[key]; ok {
		return false, false
	}
	if _, ok := s.dispatched[key]; !ok {
		return false, false
	}
	delete(s.dispatched, key)
	s.pendingDeletes[key] = struct{}{}
	s.deleteOrder = append(s.deleteOrder, key)
	return false, true
}

// DrainCreates removes and returns all pending creates in enqueue
// order. Enqueues arriving after the drain start a fresh batch and
// never race the one being dispatched.
func (s *Store[K, E]) DrainCreates() []E {
	if len(s.createOrder) == 0 {
		return nil
	}
	batch := make([]E, 0, len(s.createOrder))
	for _, key := range s.createOrder {
		batch = append(batch, s.pendingCreates[key])
		s.dispatched[key] = struct{}{}
	}
	s.pendingCreates = make(map[K]E)
	s.createOrder = nil
	return batch
}

// DrainDeletes removes and returns all pending deletions in enqueue
// order.
func (s *Store[K, E]) DrainDeletes() []K {
	if len(s.deleteOrder) == 0 {
		return nil
	}
	batch := s.deleteOrder
	s.pendingDeletes = make(map[K]struct{})
	s.deleteOrder = nil
	return batch
}

// CreateCount returns the number of pending creates.
func (s *Store[K, E]) CreateCount() int { return len(s.pendingCreates) }

// DeleteCount returns the number of pending deletions.
func (s *Store[K, E]) DeleteCount() int { return len(s.pendingDeletes) }

// removeKey deletes the first occurrence of key from order.
func removeKey[K comparable](order []K, key K) []K {
	for i, existing := range order {
		if existing == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
