package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

const (
	// ToastDuration is how long a toast stays before it starts leaving.
	ToastDuration = 5 * time.Second
	// ToastExitGrace is the exit transition before a toast is removed.
	ToastExitGrace = 300 * time.Millisecond
)

// Presenter renders the feed's side effects.
type Presenter interface {
	SetBadge(unread int)
	ShowToast(n domain.Notification)
	HideToast(id string)
	RemoveToast(id string)
	PlaySound() error
}

// Feed is the client-side notification model. It is safe for concurrent
// use; presenter calls are made outside the lock.
type Feed struct {
	mu     sync.Mutex
	buf    *Buffer
	unread int

	ui        Presenter
	log       zerolog.Logger
	now       func() time.Time
	afterFunc func(time.Duration, func())
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) FeedOption {
	return func(f *Feed) { f.buf = NewBuffer(n) }
}

// WithScheduler replaces time.AfterFunc for toast timers.
func WithScheduler(afterFunc func(time.Duration, func())) FeedOption {
	return func(f *Feed) { f.afterFunc = afterFunc }
}

// WithClock replaces time.Now for notifications that arrive without a
// timestamp.
func WithClock(now func() time.Time) FeedOption {
	return func(f *Feed) { f.now = now }
}

// NewFeed returns an empty feed rendering to ui.
func NewFeed(ui Presenter, log zerolog.Logger, opts ...FeedOption) *Feed {
	f := &Feed{
		buf: NewBuffer(DefaultCapacity),
		ui:  ui,
		log: log,
		now: time.Now,
		afterFunc: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Receive accepts a pushed notification: it is buffered, the badge is
// incremented, a toast is shown and the audio cue played.
func (f *Feed) Receive(n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = f.now()
	}
	n.Read = false

	f.mu.Lock()
	if old, ok := f.buf.Prepend(n); ok && !old.Read && f.unread > 0 {
		f.unread--
	}
	f.unread++
	unread := f.unread
	f.mu.Unlock()

	f.ui.SetBadge(unread)
	f.ui.ShowToast(n)
	f.scheduleDismiss(n.ID)
	if err := f.ui.PlaySound(); err != nil {
		f.log.Debug().Err(err).Msg("notification sound failed")
	}
}

func (f *Feed) scheduleDismiss(id string) {
	f.afterFunc(ToastDuration, func() {
		f.ui.HideToast(id)
		f.afterFunc(ToastExitGrace, func() {
			f.ui.RemoveToast(id)
		})
	})
}

// MarkRead marks the notification read and reports whether the unread
// count changed. Marking an already-read or unknown notification is a
// no-op.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	n := f.buf.find(id)
	if n == nil || n.Read {
		f.mu.Unlock()
		return false
	}
	n.Read = true
	if f.unread > 0 {
		f.unread--
	}
	unread := f.unread
	f.mu.Unlock()

	f.ui.SetBadge(unread)
	return true
}

// MarkAllRead marks every retained notification read and resets the badge.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	for i := range f.buf.items {
		f.buf.items[i].Read = true
	}
	f.unread = 0
	f.mu.Unlock()

	f.ui.SetBadge(0)
}

// Unread returns the badge count.
func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Items returns the retained notifications, newest first.
func (f *Feed) Items() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Items()
}
