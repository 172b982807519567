// Package notify holds the in-app notification feed.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khrees2412/careerflow/pkg/models"
)

// DefaultCapacity bounds the feed when no capacity is configured.
const DefaultCapacity = 100

// Feed is a newest-first, bounded list of notifications. When full, pushing
// drops the oldest entry. The unread count is maintained on every change.
type Feed struct {
	mu       sync.RWMutex
	entries  []models.Notification
	unread   int
	capacity int
	now      func() time.Time

	notifyMu  sync.Mutex
	listeners map[int]func([]models.Notification)
	nextSub   int
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity:  capacity,
		now:       time.Now,
		listeners: make(map[int]func([]models.Notification)),
	}
}

// Push adds an unread notification at the front and returns its id.
func (f *Feed) Push(title, message string) string {
	n := models.Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Timestamp: f.now(),
	}

	f.mu.Lock()
	f.entries = append([]models.Notification{n}, f.entries...)
	f.unread++
	for len(f.entries) > f.capacity {
		if !f.entries[len(f.entries)-1].Read {
			f.unread--
		}
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.publishLocked()
	return n.ID
}

// MarkAllRead marks every entry read.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	if f.unread == 0 {
		f.mu.Unlock()
		return
	}
	for i := range f.entries {
		f.entries[i].Read = true
	}
	f.unread = 0
	f.publishLocked()
}

// Remove deletes the entry with id. Unknown ids are ignored.
func (f *Feed) Remove(id string) {
	f.mu.Lock()
	for i, n := range f.entries {
		if n.ID != id {
			continue
		}
		if !n.Read {
			f.unread--
		}
		f.entries = append(f.entries[:i], f.entries[i+1:]...)
		f.publishLocked()
		return
	}
	f.mu.Unlock()
}

// UnreadCount returns the number of unread entries.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.unread
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// List returns a copy of the feed, newest first.
func (f *Feed) List() []models.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

// Restore replaces the feed with entries loaded from disk, trimming to
// capacity. Listeners are not notified.
func (f *Feed) Restore(entries []models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(entries) > f.capacity {
		entries = entries[:f.capacity]
	}
	f.entries = append([]models.Notification(nil), entries...)
	f.unread = 0
	for _, n := range f.entries {
		if !n.Read {
			f.unread++
		}
	}
}

// Subscribe registers fn to receive a snapshot after every change.
func (f *Feed) Subscribe(fn func([]models.Notification)) (unsubscribe func()) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn
	return func() {
		f.notifyMu.Lock()
		defer f.notifyMu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *Feed) snapshotLocked() []models.Notification {
	out := make([]models.Notification, len(f.entries))
	copy(out, f.entries)
	return out
}

// publishLocked must be called with f.mu write-locked and releases it.
func (f *Feed) publishLocked() {
	snap := f.snapshotLocked()
	f.notifyMu.Lock()
	f.mu.Unlock()
	defer f.notifyMu.Unlock()
	for _, fn := range f.listeners {
		fn(snap)
	}
}
