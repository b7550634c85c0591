// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sightline-ai/sightline-go/lib/clock"
)

// DefaultDelay is the debounce quiet period: dispatch fires this long
// after the most recent enqueue.
const DefaultDelay = 300 * time.Millisecond

// Backend is the injected collector transport a Queue dispatches to.
// The queue treats each call as one atomic unit for sequencing;
// partial-success semantics inside a batch are the backend's concern.
type Backend[K comparable, E, P any] interface {
	// CreateBatch persists entities in one collector call.
	CreateBatch(ctx context.Context, entities []E) error

	// Fetch returns the entity with the given identity, or found=false
	// if the collector has no such entity.
	Fetch(ctx context.Context, id K) (entity E, found bool, err error)

	// Update applies a partial update to one entity.
	Update(ctx context.Context, id K, patch P) error

	// DeleteBatch removes the identified entities in one collector
	// call.
	DeleteBatch(ctx context.Context, ids []K) error
}

// Config assembles a Queue. Backend, Key, and Apply are required;
// everything else defaults to the standard batching policy.
type Config[K comparable, E, P any] struct {
	// Name labels the queue in log output ("traces", "spans", ...).
	Name string

	// Backend receives the dispatched collector calls.
	Backend Backend[K, E, P]

	// Key extracts an entity's identity.
	Key func(E) K

	// Apply merges a patch into a pending entity. Required so that an
	// update against a not-yet-dispatched create folds into the
	// eventual create payload instead of becoming its own call.
	Apply func(E, P) E

	// Coalesce resolves a second Create for an already-pending
	// identity. Nil means the newer payload replaces the older.
	Coalesce func(old, newer E) E

	// Group partitions a drained create batch into the collector
	// calls to issue, in order. Nil means one call for the whole
	// batch. The span queue groups by parent; the prompt queue
	// returns one singleton group per version.
	Group func([]E) [][]E

	// IgnoreError reports collector errors that are expected and
	// success-equivalent, such as a duplicate prompt version conflict.
	IgnoreError func(error) bool

	// Delay is the debounce quiet period. Zero means DefaultDelay.
	Delay time.Duration

	// DisableCreateBatching dispatches every create immediately as a
	// singleton batch, still ordered through the create chain.
	DisableCreateBatching bool

	// DisableDeleteBatching dispatches every delete immediately as a
	// singleton batch, still ordered through the delete chain. Used
	// where the collector has no bulk-delete endpoint for the entity.
	DisableDeleteBatching bool

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default(). Dispatch failures are logged
	// here even when no caller awaits them.
	Logger *slog.Logger
}

// Queue accumulates create/update/delete operations for one entity
// kind and flushes them to the Backend as coalesced calls. All
// methods are safe for concurrent use. Create and Delete never block
// on I/O and never return errors; failures surface through Flush and
// the log.
type Queue[K comparable, E, P any] struct {
	name        string
	backend     Backend[K, E, P]
	key         func(E) K
	apply       func(E, P) E
	group       func([]E) [][]E
	ignoreError func(error) bool

	delay        time.Duration
	batchCreates bool
	batchDeletes bool
	clock        clock.Clock
	logger       *slog.Logger

	mu          sync.Mutex
	store       *Store[K, E]
	createTimer *clock.Timer
	deleteTimer *clock.Timer

	createChain *Chain
	updateChain *Chain
	deleteChain *Chain
}

// NewQueue validates config and returns a ready Queue.
func NewQueue[K comparable, E, P any](config Config[K, E, P]) (*Queue[K, E, P], error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("batch: Backend is required")
	}
	if config.Key == nil {
		return nil, fmt.Errorf("batch: Key is required")
	}
	if config.Apply == nil {
		return nil, fmt.Errorf("batch: Apply is required")
	}
	if config.Delay < 0 {
		return nil, fmt.Errorf("batch: Delay must not be negative")
	}

	delay := config.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	group := config.Group
	if group == nil {
		group = func(entities []E) [][]E { return [][]E{entities} }
	}
	ignoreError := config.IgnoreError
	if ignoreError == nil {
		ignoreError = func(error) bool { return false }
	}

	return &Queue[K, E, P]{
		name:         config.Name,
		backend:      config.Backend,
		key:          config.Key,
		apply:        config.Apply,
		group:        group,
		ignoreError:  ignoreError,
		delay:        delay,
		batchCreates: !config.DisableCreateBatching,
		batchDeletes: !config.DisableDeleteBatching,
		clock:        clk,
		logger:       logger,
		store:        NewStore[K, E](config.Coalesce),
		createChain:  NewChain(),
		updateChain:  NewChain(),
		deleteChain:  NewChain(),
	}, nil
}

// Create enqueues entity for creation. With create batching enabled
// (the default) the entity joins the pending batch and the debounce
// timer restarts; otherwise it dispatches immediately as a singleton.
// Create never blocks on I/O.
func (q *Queue[K, E, P]) Create(entity E) {
	key := q.key(entity)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.store.EnqueueCreate(key, entity)
	if q.batchCreates {
		q.armCreateTimerLocked()
		return
	}
	q.dispatchCreatesLocked(q.store.DrainCreates())
}

// Get returns the entity with the given identity. A payload still
// pending creation is returned from memory without a collector call;
// otherwise the read delegates to the backend. found is false when
// neither side knows the identity.
func (q *Queue[K, E, P]) Get(ctx context.Context, id K) (entity E, found bool, err error) {
	q.mu.Lock()
	if pending, ok := q.store.GetPending(id); ok {
		q.mu.Unlock()
		return pending, true, nil
	}
	q.mu.Unlock()

	entity, found, err = q.backend.Fetch(ctx, id)
	if err == nil && found {
		// The fetch confirmed the identity exists remotely, so a
		// later Delete for it must dispatch even though this queue
		// never created it.
		q.mu.Lock()
		q.store.MarkDispatched(id)
		q.mu.Unlock()
	}
	return entity, found, err
}

// Update applies a partial update to the identified entity. If the
// entity is still pending creation, the patch folds into the pending
// payload and the debounce timer restarts — no separate collector
// call is ever made for it. Otherwise the update is dispatched on the
// update chain: never batched with other updates, but strictly
// ordered after every earlier update.
//
// The returned Handle settles when the update has been applied (or
// immediately, for a folded-in patch). Awaiting it is optional;
// failures are logged regardless and also surface through Flush.
func (q *Queue[K, E, P]) Update(id K, patch P) *Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	folded := q.store.UpdatePending(id, func(entity E) E {
		return q.apply(entity, patch)
	})
	if folded {
		q.armCreateTimerLocked()
		return settledHandle(nil)
	}

	// Enqueued under q.mu so a concurrent Flush that runs after this
	// Update returns is guaranteed to wait for it.
	return q.updateChain.Enqueue(func() error {
		err := q.backend.Update(context.Background(), id, patch)
		if err != nil {
			q.logger.Error("telemetry update dispatch failed",
				"queue", q.name,
				"error", err,
			)
		}
		return err
	})
}

// Delete enqueues a deletion for the identified entity. A delete
// against a still-pending create cancels the create locally with no
// collector effect. Deleting an identity this queue has never
// dispatched or fetched is a no-op, as is deleting one already queued
// for deletion. Delete never blocks on I/O.
func (q *Queue[K, E, P]) Delete(id K) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cancelled, queued := q.store.EnqueueDelete(id)
	if cancelled || !queued {
		return
	}
	if q.batchDeletes {
		q.armDeleteTimerLocked()
		return
	}
	q.dispatchDeletesLocked(q.store.DrainDeletes())
}

// Flush drains all pending state, dispatches it, and waits for the
// create, delete, and update chains to settle. When Flush returns nil
// every operation enqueued before the call has reached the collector;
// this is the durability checkpoint callers rely on before process
// exit. ctx bounds only the waiting — dispatched work keeps running
// if ctx expires.
func (q *Queue[K, E, P]) Flush(ctx context.Context) error {
	q.mu.Lock()
	q.stopTimersLocked()
	q.dispatchCreatesLocked(q.store.DrainCreates())
	q.dispatchDeletesLocked(q.store.DrainDeletes())
	q.mu.Unlock()

	return errors.Join(
		q.createChain.Wait(ctx),
		q.deleteChain.Wait(ctx),
		q.updateChain.Wait(ctx),
	)
}

// PendingCreates returns the number of entities awaiting creation.
func (q *Queue[K, E, P]) PendingCreates() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.CreateCount()
}

// PendingDeletes returns the number of identities awaiting deletion.
func (q *Queue[K, E, P]) PendingDeletes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.DeleteCount()
}

// armCreateTimerLocked (re)starts the create debounce timer. Must be
// called with q.mu held.
func (q *Queue[K, E, P]) armCreateTimerLocked() {
	if q.createTimer != nil {
		q.createTimer.Reset(q.delay)
		return
	}
	q.createTimer = q.clock.AfterFunc(q.delay, q.onCreateTimer)
}

// armDeleteTimerLocked (re)starts the delete debounce timer. Must be
// called with q.mu held.
func (q *Queue[K, E, P]) armDeleteTimerLocked() {
	if q.deleteTimer != nil {
		q.deleteTimer.Reset(q.delay)
		return
	}
	q.deleteTimer = q.clock.AfterFunc(q.delay, q.onDeleteTimer)
}

// stopTimersLocked cancels both debounce timers. Must be called with
// q.mu held. An explicit Flush supersedes any pending quiet period.
func (q *Queue[K, E, P]) stopTimersLocked() {
	if q.createTimer != nil {
		q.createTimer.Stop()
		q.createTimer = nil
	}
	if q.deleteTimer != nil {
		q.deleteTimer.Stop()
		q.deleteTimer = nil
	}
}

// onCreateTimer fires when the create debounce window closes.
func (q *Queue[K, E, P]) onCreateTimer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dispatchCreatesLocked(q.store.DrainCreates())
}

// onDeleteTimer fires when the delete debounce window closes.
func (q *Queue[K, E, P]) onDeleteTimer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dispatchDeletesLocked(q.store.DrainDeletes())
}

// dispatchCreatesLocked pushes a drained create batch onto the create
// chain, one backend call per group. Expected errors (per
// IgnoreError) count as success; real failures are joined, logged,
// and carried by the returned handle.
//
// Must be called with q.mu held: the store drain and the chain
// enqueue have to be atomic with respect to Flush, or a flush racing
// a timer fire could observe an empty store and an already-settled
// chain and return before the drained batch reaches the collector.
// Enqueue never blocks, so holding the lock across it is safe.
func (q *Queue[K, E, P]) dispatchCreatesLocked(entities []E) *Handle {
	if len(entities) == 0 {
		return settledHandle(nil)
	}
	groups := q.group(entities)
	return q.createChain.Enqueue(func() error {
		var failures []error
		for _, group := range groups {
			if len(group) == 0 {
				continue
			}
			err := q.backend.CreateBatch(context.Background(), group)
			if err != nil && !q.ignoreError(err) {
				failures = append(failures, err)
			}
		}
		err := errors.Join(failures...)
		if err != nil {
			q.logger.Error("telemetry create dispatch failed",
				"queue", q.name,
				"entities", len(entities),
				"error", err,
			)
		}
		return err
	})
}

// dispatchDeletesLocked pushes a drained delete batch onto the delete
// chain as a single backend call. Must be called with q.mu held, for
// the same drain/enqueue atomicity as dispatchCreatesLocked.
func (q *Queue[K, E, P]) dispatchDeletesLocked(ids []K) *Handle {
	if len(ids) == 0 {
		return settledHandle(nil)
	}
	return q.deleteChain.Enqueue(func() error {
		err := q.backend.DeleteBatch(context.Background(), ids)
		if err != nil && q.ignoreError(err) {
			err = nil
		}
		if err != nil {
			q.logger.Error("telemetry delete dispatch failed",
				"queue", q.name,
				"ids", len(ids),
				"error", err,
			)
		}
		return err
	})
}
