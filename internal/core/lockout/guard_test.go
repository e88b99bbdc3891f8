package lockout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nhonest/supermarket-web/internal/adapter/memory"
	"github.com/nhonest/supermarket-web/internal/core/domain"
)

const key = "admin"

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestGuard_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(memory.NewLockoutStore())

	for i := 1; i <= 4; i++ {
		st, err := g.RecordFailure(ctx, key, t0)
		if err != nil {
			t.Fatalf("RecordFailure %d: %v", i, err)
		}
		if st.Locked || st.AttemptsRemaining != DefaultMaxAttempts-i {
			t.Fatalf("failure %d: unexpected status %+v", i, st)
		}
		if err := g.Check(ctx, key, t0); err != nil {
			t.Fatalf("failure %d: form must stay open, got %v", i, err)
		}
	}

	st, err := g.RecordFailure(ctx, key, t0)
	if err != nil {
		t.Fatalf("RecordFailure 5: %v", err)
	}
	if !st.Locked || st.Remaining != DefaultLockoutDuration || st.AttemptsRemaining != 0 {
		t.Fatalf("expected locked status, got %+v", st)
	}

	err = g.Check(ctx, key, t0.Add(time.Minute))
	var le *domain.LockoutError
	if !errors.As(err, &le) || le.Minutes() != 14 {
		t.Fatalf("expected lockout with 14 minutes, got %v", err)
	}
	if !errors.Is(err, domain.ErrLocked) {
		t.Fatal("lockout must match ErrLocked")
	}
}

func TestGuard_ExpiredLockClearsOnNextCheck(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLockoutStore()
	_ = store.Save(ctx, key, domain.LockoutRecord{AttemptCount: 5, LockedUntil: t0.Add(-time.Millisecond)})
	g := NewGuard(store)

	if err := g.Check(ctx, key, t0); err != nil {
		t.Fatalf("expected unlocked, got %v", err)
	}
	rec, _ := store.Load(ctx, key)
	if rec.AttemptCount != 0 || !rec.LockedUntil.IsZero() {
		t.Fatalf("expected both counters cleared, got %+v", rec)
	}
}

func TestGuard_FailureAfterExpiryStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLockoutStore()
	_ = store.Save(ctx, key, domain.LockoutRecord{AttemptCount: 5, LockedUntil: t0})
	g := NewGuard(store)

	st, err := g.RecordFailure(ctx, key, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if st.Locked || st.AttemptsRemaining != 4 {
		t.Fatalf("expected a fresh count, got %+v", st)
	}
}

func TestGuard_SuccessClearsAnyState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLockoutStore()
	_ = store.Save(ctx, key, domain.LockoutRecord{AttemptCount: 5, LockedUntil: t0.Add(time.Hour)})
	g := NewGuard(store)

	if err := g.RecordSuccess(ctx, key); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if err := g.Check(ctx, key, t0); err != nil {
		t.Fatalf("expected open after success, got %v", err)
	}
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(memory.NewLockoutStore(), WithMaxAttempts(1))

	if _, err := g.RecordFailure(ctx, "login:a@nhonest.ug", t0); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := g.Check(ctx, "login:a@nhonest.ug", t0); err == nil {
		t.Fatal("expected the first key to be locked")
	}
	if err := g.Check(ctx, "login:b@nhonest.ug", t0); err != nil {
		t.Fatalf("other keys must stay open, got %v", err)
	}
}

func TestGuard_Options(t *testing.T) {
	g := NewGuard(memory.NewLockoutStore(), WithMaxAttempts(0), WithDuration(-time.Minute))
	if g.MaxAttempts() != DefaultMaxAttempts || g.duration != DefaultLockoutDuration {
		t.Fatal("non-positive options must keep defaults")
	}

	g = NewGuard(memory.NewLockoutStore(), WithMaxAttempts(3), WithDuration(time.Minute))
	st, _ := g.RecordFailure(context.Background(), key, t0)
	if st.AttemptsRemaining != 2 {
		t.Fatalf("expected 2 remaining, got %d", st.AttemptsRemaining)
	}
}

func TestFailureMessage(t *testing.T) {
	base := "Invalid email or password."
	tests := []struct {
		st   Status
		want string
	}{
		{Status{AttemptsRemaining: 4}, base},
		{Status{AttemptsRemaining: 3}, base},
		{Status{AttemptsRemaining: 2}, base + " 2 attempt(s) remaining before your account is temporarily locked."},
		{Status{AttemptsRemaining: 1}, base + " 1 attempt(s) remaining before your account is temporarily locked."},
	}
	for _, tt := range tests {
		if got := FailureMessage(base, tt.st); got != tt.want {
			t.Errorf("FailureMessage(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}

	locked := FailureMessage(base, Status{Locked: true, Remaining: 90 * time.Second})
	if !strings.Contains(locked, "2 minute(s)") {
		t.Errorf("unexpected locked message %q", locked)
	}
}
