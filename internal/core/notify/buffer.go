// Package notify holds the admin client's view of the notification feed:
// a bounded buffer of recent notifications, the unread badge, toasts and
// the audio cue.
package notify

import "github.com/nhonest/supermarket-web/internal/core/domain"

// DefaultCapacity is the number of notifications the client retains.
const DefaultCapacity = 50

// Buffer keeps the newest notifications first and drops the oldest once
// full. It is not safe for concurrent use.
type Buffer struct {
	items []domain.Notification
	cap   int
}

// NewBuffer returns an empty buffer holding at most capacity items.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]domain.Notification, 0, capacity), cap: capacity}
}

// Prepend inserts n at the head. On overflow the oldest item is evicted
// and returned with ok set.
func (b *Buffer) Prepend(n domain.Notification) (evicted domain.Notification, ok bool) {
	if len(b.items) < b.cap {
		b.items = append(b.items, domain.Notification{})
	} else {
		evicted, ok = b.items[len(b.items)-1], true
	}
	copy(b.items[1:], b.items[:len(b.items)-1])
	b.items[0] = n
	return evicted, ok
}

// Len returns the number of retained notifications.
func (b *Buffer) Len() int {
	return len(b.items)
}

// Items returns a copy of the retained notifications, newest first.
func (b *Buffer) Items() []domain.Notification {
	return append([]domain.Notification(nil), b.items...)
}

// find returns a pointer to the notification with id, or nil.
func (b *Buffer) find(id string) *domain.Notification {
	for i := range b.items {
		if b.items[i].ID == id {
			return &b.items[i]
		}
	}
	return nil
}
