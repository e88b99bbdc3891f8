package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// Signal is a user interaction that counts as activity.
type Signal string

const (
	SignalPointerDown Signal = "pointerdown"
	SignalKeyDown     Signal = "keydown"
	SignalScroll      Signal = "scroll"
	SignalTouchStart  Signal = "touchstart"
)

// Known reports whether s is one of the interaction signals the monitor
// subscribes to.
func (s Signal) Known() bool {
	switch s {
	case SignalPointerDown, SignalKeyDown, SignalScroll, SignalTouchStart:
		return true
	}
	return false
}

// Redirect reasons shown on the login page.
const (
	ReasonInactive     = "Your session has expired due to inactivity. Please log in again."
	ReasonExpired      = "Your session has expired. Please log in again."
	ReasonLoginNeeded  = "Please log in to continue."
	ReasonCountdownEnd = "You have been logged out due to inactivity."
)

// Event is an input to the Monitor.
type Event interface{ at() time.Time }

type (
	ActivityObserved struct {
		Signal Signal
		At     time.Time
	}
	TickElapsed     struct{ At time.Time }
	CountdownTick   struct{ At time.Time }
	ExtendRequested struct{ At time.Time }
)

func (e ActivityObserved) at() time.Time { return e.At }
func (e TickElapsed) at() time.Time      { return e.At }
func (e CountdownTick) at() time.Time    { return e.At }
func (e ExtendRequested) at() time.Time  { return e.At }

// Effect is an observable outcome of handling an Event.
type Effect interface{ effect() }

type (
	// RedirectToLogin ends the monitor; the session is gone.
	RedirectToLogin struct{ Reason string }
	// ShowWarning opens the countdown with an extend action.
	ShowWarning struct{ Remaining time.Duration }
	// CountdownUpdated is emitted once per second while the warning shows.
	CountdownUpdated struct{ Remaining time.Duration }
	// DismissWarning closes the countdown after an extend.
	DismissWarning struct{}
	// TokenRefreshed reports a successful proactive refresh.
	TokenRefreshed struct{}
)

func (RedirectToLogin) effect()  {}
func (ShowWarning) effect()      {}
func (CountdownUpdated) effect() {}
func (DismissWarning) effect()   {}
func (TokenRefreshed) effect()   {}

// Presenter renders monitor effects.
type Presenter interface {
	Present(Effect)
}

// Monitor keeps lastActivityAt fresh and warns before the inactivity
// timeout. Handle is not safe for concurrent use; Run serializes events on
// one goroutine.
type Monitor struct {
	engine      *Engine
	warningTime time.Duration
	log         zerolog.Logger

	warningShown bool
	deadline     time.Time
	done         bool
}

// NewMonitor returns a Monitor. A non-positive warningTime uses
// DefaultWarningTime.
func NewMonitor(engine *Engine, warningTime time.Duration, log zerolog.Logger) *Monitor {
	if warningTime <= 0 {
		warningTime = DefaultWarningTime
	}
	return &Monitor{engine: engine, warningTime: warningTime, log: log}
}

// CheckInterval returns min(warningTime, 60s).
func (m *Monitor) CheckInterval() time.Duration {
	return min(m.warningTime, time.Minute)
}

// Done reports whether the monitor has redirected to login.
func (m *Monitor) Done() bool {
	return m.done
}

// WarningShown reports whether the countdown is currently displayed.
func (m *Monitor) WarningShown() bool {
	return m.warningShown
}

// Handle applies one event and returns the resulting effects.
func (m *Monitor) Handle(ctx context.Context, ev Event) []Effect {
	if m.done {
		return nil
	}

	switch e := ev.(type) {
	case ActivityObserved:
		m.observe(ctx, e)
		return nil
	case TickElapsed:
		return m.tick(ctx, e.At)
	case CountdownTick:
		return m.countdown(ctx, e.At)
	case ExtendRequested:
		return m.extend(ctx, e.At)
	}
	return nil
}

func (m *Monitor) observe(ctx context.Context, e ActivityObserved) {
	if !e.Signal.Known() {
		return
	}
	if err := m.engine.Touch(ctx, e.At); err != nil {
		m.log.Debug().Err(err).Str("signal", string(e.Signal)).Msg("activity ignored")
	}
}

func (m *Monitor) tick(ctx context.Context, now time.Time) []Effect {
	cred, err := m.engine.Check(ctx, now)
	if err != nil {
		if !isVerdict(err) {
			m.log.Warn().Err(err).Msg("session check failed, retrying on next tick")
			return nil
		}
		return m.terminate(reasonFor(err))
	}

	var effects []Effect
	remaining := m.engine.Policy().Remaining(cred, now)
	if remaining <= m.warningTime && !m.warningShown {
		m.warningShown = true
		m.deadline = now.Add(remaining)
		effects = append(effects, ShowWarning{Remaining: remaining})
	}

	refreshed, err := m.engine.RefreshIfDue(ctx, now)
	if err != nil {
		m.log.Debug().Err(err).Msg("refresh deferred")
	}
	if refreshed {
		effects = append(effects, TokenRefreshed{})
	}
	return effects
}

func (m *Monitor) countdown(ctx context.Context, now time.Time) []Effect {
	if !m.warningShown {
		return nil
	}
	remaining := m.deadline.Sub(now)
	if remaining <= 0 {
		if err := m.engine.Logout(ctx); err != nil {
			m.log.Error().Err(err).Msg("forced logout could not clear credential")
		}
		return m.terminate(ReasonCountdownEnd)
	}
	return []Effect{CountdownUpdated{Remaining: remaining.Round(time.Second)}}
}

func (m *Monitor) extend(ctx context.Context, now time.Time) []Effect {
	if !m.warningShown {
		return nil
	}
	if err := m.engine.Touch(ctx, now); err != nil {
		return m.terminate(reasonFor(err))
	}
	m.warningShown = false
	m.deadline = time.Time{}
	return []Effect{DismissWarning{}}
}

func (m *Monitor) terminate(reason string) []Effect {
	m.done = true
	m.warningShown = false
	return []Effect{RedirectToLogin{Reason: reason}}
}

// Run drives the monitor until it redirects or ctx is cancelled. Signals
// and extend requests are read from the given channels; both timers are
// stopped on return.
func (m *Monitor) Run(ctx context.Context, signals <-chan Signal, extend <-chan struct{}, p Presenter, clock func() time.Time) error {
	if clock == nil {
		clock = time.Now
	}
	check := time.NewTicker(m.CheckInterval())
	defer check.Stop()
	second := time.NewTicker(time.Second)
	defer second.Stop()

	emit := func(effects []Effect) {
		for _, eff := range effects {
			p.Present(eff)
		}
	}

	emit(m.Handle(ctx, TickElapsed{At: clock()}))
	for !m.done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			emit(m.Handle(ctx, ActivityObserved{Signal: s, At: clock()}))
		case _, ok := <-extend:
			if !ok {
				extend = nil
				continue
			}
			emit(m.Handle(ctx, ExtendRequested{At: clock()}))
		case <-check.C:
			emit(m.Handle(ctx, TickElapsed{At: clock()}))
		case <-second.C:
			emit(m.Handle(ctx, CountdownTick{At: clock()}))
		}
	}
	return nil
}

// isVerdict reports whether err is a policy rejection rather than a
// storage failure.
func isVerdict(err error) bool {
	return errors.Is(err, domain.ErrNotAuthenticated) ||
		errors.Is(err, domain.ErrSessionInactive) ||
		errors.Is(err, domain.ErrTokenExpired)
}

// reasonFor maps a validation failure to the message shown on login.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionInactive):
		return ReasonInactive
	case errors.Is(err, domain.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonLoginNeeded
	}
}
