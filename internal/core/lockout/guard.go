// Package lockout implements the login lockout state machine:
//
//	Open --(failure x MaxAttempts)--> Locked --(LockedUntil passed)--> Open
//
// The transition back to Open happens lazily on the first Check after the
// lock has expired. A successful login always returns to Open.
package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute

	// warnThreshold is how many remaining attempts trigger the
	// remaining-attempts hint.
	warnThreshold = 2
)

// Guard applies the lockout rules to records in a LockoutStore.
type Guard struct {
	store       ports.LockoutStore
	maxAttempts int
	duration    time.Duration
	log         zerolog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithMaxAttempts sets the number of failures that locks the form.
func WithMaxAttempts(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithDuration sets how long a lock lasts.
func WithDuration(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.duration = d
		}
	}
}

// WithLogger sets the logger used for lock transitions.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

// NewGuard returns a Guard over store.
func NewGuard(store ports.LockoutStore, opts ...Option) *Guard {
	g := &Guard{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		duration:    DefaultLockoutDuration,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the configured attempt limit.
func (g *Guard) MaxAttempts() int {
	return g.maxAttempts
}

// Status describes a lockout record at a point in time.
type Status struct {
	Locked            bool
	Remaining         time.Duration
	AttemptsRemaining int
}

// Check returns a *domain.LockoutError while key is locked at now. An
// expired lock is cleared here.
func (g *Guard) Check(ctx context.Context, key string, now time.Time) error {
	rec, err := g.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load lockout: %w", err)
	}
	if rec.LockedAt(now) {
		return &domain.LockoutError{Remaining: rec.LockedUntil.Sub(now)}
	}
	if rec.Expired(now) {
		if err := g.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("reset lockout: %w", err)
		}
		g.log.Info().Str("key", key).Msg("login lockout expired")
	}
	return nil
}

// RecordFailure counts one failed login and locks key once the limit is
// reached.
func (g *Guard) RecordFailure(ctx context.Context, key string, now time.Time) (Status, error) {
	rec, err := g.store.Load(ctx, key)
	if err != nil {
		return Status{}, fmt.Errorf("load lockout: %w", err)
	}
	if rec.Expired(now) {
		rec = domain.LockoutRecord{}
	}

	rec.AttemptCount++
	if rec.AttemptCount >= g.maxAttempts && rec.LockedUntil.IsZero() {
		rec.LockedUntil = now.Add(g.duration)
		g.log.Warn().Str("key", key).Int("attempts", rec.AttemptCount).Time("locked_until", rec.LockedUntil).Msg("login locked")
	}
	if err := g.store.Save(ctx, key, rec); err != nil {
		return Status{}, fmt.Errorf("save lockout: %w", err)
	}

	st := Status{AttemptsRemaining: max(g.maxAttempts-rec.AttemptCount, 0)}
	if rec.LockedAt(now) {
		st.Locked = true
		st.Remaining = rec.LockedUntil.Sub(now)
	}
	return st, nil
}

// RecordSuccess clears the record for key regardless of its state.
func (g *Guard) RecordSuccess(ctx context.Context, key string) error {
	if err := g.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}

// FailureMessage builds the message shown after a rejected login.
func FailureMessage(base string, st Status) string {
	if st.Locked {
		return (&domain.LockoutError{Remaining: st.Remaining}).Error()
	}
	if st.AttemptsRemaining <= warnThreshold {
		return fmt.Sprintf("%s %d attempt(s) remaining before your account is temporarily locked.", base, st.AttemptsRemaining)
	}
	return base
}
