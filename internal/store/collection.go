// Package store keeps locally cached collections in sync with the backend.
//
// A Collection never applies a change the server has not confirmed: creates
// prepend the server record, updates replace the cached record with the
// server's version and deletes drop it, each only after the remote call
// succeeds. A delete always wins over a concurrent update of the same id,
// and a refresh that was issued before a confirmed local write cannot undo
// that write.
package store

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/logger"
	"github.com/khrees2412/careerflow/pkg/models"
)

// Backend is the remote side of a collection.
type Backend[T, D, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id models.ID, patch P) (T, error)
	Delete(ctx context.Context, id models.ID) error
}

// write records the last confirmed local write to an id.
type write struct {
	seq     uint64
	deleted bool
}

// Collection is an ordered, newest-first cache of T keyed by id.
type Collection[T, D, P any] struct {
	name    string
	backend Backend[T, D, P]
	idOf    func(T) models.ID
	log     logger.Logger

	mu      sync.Mutex
	items   []T
	seq     uint64
	writes  map[models.ID]write
	pending map[models.ID]int

	refreshes singleflight.Group

	// notifyMu is taken before mu is released so listeners see snapshots in
	// mutation order.
	notifyMu  sync.Mutex
	listeners map[int]func([]T)
	nextSub   int
}

func New[T, D, P any](name string, backend Backend[T, D, P], idOf func(T) models.ID, log logger.Logger) *Collection[T, D, P] {
	if log == nil {
		log = logger.Nop()
	}
	return &Collection[T, D, P]{
		name:      name,
		backend:   backend,
		idOf:      idOf,
		log:       log.With(logger.String("collection", name)),
		writes:    make(map[models.ID]write),
		pending:   make(map[models.ID]int),
		listeners: make(map[int]func([]T)),
	}
}

// Name identifies the collection in logs and the local cache.
func (c *Collection[T, D, P]) Name() string { return c.name }

// List returns a copy of the cached collection without any I/O.
func (c *Collection[T, D, P]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Len returns the number of cached records.
func (c *Collection[T, D, P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get looks up a cached record.
func (c *Collection[T, D, P]) Get(id models.ID) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Restore seeds the cache from a local snapshot without contacting the
// backend. Listeners are not notified.
func (c *Collection[T, D, P]) Restore(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), items...)
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// synchronously and must not call back into the collection.
func (c *Collection[T, D, P]) Subscribe(fn func([]T)) (unsubscribe func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.listeners, id)
	}
}

// Refresh replaces the cache with the backend's collection. On failure the
// cache is left as it was and the error is logged and returned; callers that
// only want a best-effort sync may ignore it. Concurrent calls share one
// request.
func (c *Collection[T, D, P]) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		c.mu.Lock()
		start := c.seq
		c.mu.Unlock()

		items, err := c.backend.List(ctx)
		if err != nil {
			c.log.Warn("refresh failed, keeping cached data", logger.Error(err))
			return nil, err
		}
		c.applyRefresh(items, start)
		return nil, nil
	})
	return err
}

// applyRefresh merges a fetched collection issued when c.seq was start.
// Writes confirmed after start keep their local state.
func (c *Collection[T, D, P]) applyRefresh(fetched []T, start uint64) {
	c.mu.Lock()

	fetchedIDs := make(map[models.ID]struct{}, len(fetched))
	for _, item := range fetched {
		fetchedIDs[c.idOf(item)] = struct{}{}
	}

	merged := make([]T, 0, len(fetched))
	for _, item := range c.items {
		id := c.idOf(item)
		w, ok := c.writes[id]
		if _, inFetched := fetchedIDs[id]; !inFetched && ok && w.seq > start && !w.deleted {
			merged = append(merged, item)
		}
	}
	for _, item := range fetched {
		id := c.idOf(item)
		if w, ok := c.writes[id]; ok && w.seq > start {
			if w.deleted {
				continue
			}
			if i := c.indexLocked(id); i >= 0 {
				merged = append(merged, c.items[i])
				continue
			}
		}
		merged = append(merged, item)
	}
	c.items = merged

	for id, w := range c.writes {
		if w.seq <= start && c.pending[id] == 0 {
			delete(c.writes, id)
		}
	}

	c.publishLocked()
}

// Create sends draft to the backend and prepends the confirmed record.
func (c *Collection[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	if err := Validate(draft); err != nil {
		return zero, err
	}

	created, err := c.backend.Create(ctx, draft)
	if err != nil {
		return zero, err
	}

	id := c.idOf(created)
	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.items = append([]T{created}, c.items...)
	c.seq++
	c.writes[id] = write{seq: c.seq}
	c.publishLocked()
	return created, nil
}

// Update sends patch to the backend and replaces the cached record with the
// confirmed one. If the id was deleted while the request was in flight the
// result is discarded and a ConflictError returned. A confirmed update for an
// id that is not cached is returned without being inserted.
func (c *Collection[T, D, P]) Update(ctx context.Context, id models.ID, patch P) (T, error) {
	var zero T
	if err := Validate(patch); err != nil {
		return zero, err
	}

	c.begin(id)
	defer c.end(id)

	updated, err := c.backend.Update(ctx, id, patch)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	if w, ok := c.writes[id]; ok && w.deleted {
		c.mu.Unlock()
		c.log.Info("discarding update of deleted record", logger.String("id", id.String()))
		return zero, &apperr.ConflictError{ID: id.String(), Message: "the record was deleted while it was being updated"}
	}
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return updated, nil
	}
	c.items[i] = updated
	c.seq++
	c.writes[id] = write{seq: c.seq}
	c.publishLocked()
	return updated, nil
}

// Remove deletes id remotely and drops it from the cache once confirmed.
func (c *Collection[T, D, P]) Remove(ctx context.Context, id models.ID) error {
	c.begin(id)
	defer c.end(id)

	if err := c.backend.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.seq++
	c.writes[id] = write{seq: c.seq, deleted: true}
	c.publishLocked()
	return nil
}

func (c *Collection[T, D, P]) begin(id models.ID) {
	c.mu.Lock()
	c.pending[id]++
	c.mu.Unlock()
}

func (c *Collection[T, D, P]) end(id models.ID) {
	c.mu.Lock()
	if c.pending[id]--; c.pending[id] <= 0 {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *Collection[T, D, P]) indexLocked(id models.ID) int {
	for i, item := range c.items {
		if c.idOf(item) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T, D, P]) snapshotLocked() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// publishLocked hands a snapshot to listeners. It must be called with c.mu
// held and releases it.
func (c *Collection[T, D, P]) publishLocked() {
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range c.listeners {
		fn(snap)
	}
}
