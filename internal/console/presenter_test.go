package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

func TestFormatCountdown(t *testing.T) {
	tests := map[time.Duration]string{
		60 * time.Second:                     "1:00",
		59 * time.Second:                     "0:59",
		5*time.Second + 400*time.Millisecond: "0:05",
		90 * time.Second:                     "1:30",
		-3 * time.Second:                     "0:00",
		10*time.Minute + 7*time.Second:       "10:07",
	}
	for in, want := range tests {
		if got := formatCountdown(in); got != want {
			t.Errorf("formatCountdown(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTerminal_RedirectPublishesReasonOnce(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	term.Present(session.RedirectToLogin{Reason: session.ReasonCountdownEnd})
	term.Present(session.RedirectToLogin{Reason: session.ReasonExpired})

	if got := <-term.Logout; got != session.ReasonCountdownEnd {
		t.Fatalf("expected the first reason, got %q", got)
	}
	select {
	case got := <-term.Logout:
		t.Fatalf("unexpected second reason %q", got)
	default:
	}
	if !strings.Contains(out.String(), session.ReasonCountdownEnd) {
		t.Fatalf("reason not printed: %q", out.String())
	}
}

func TestTerminal_WarningLifecycle(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	term.Present(session.ShowWarning{Remaining: time.Minute})
	term.Present(session.CountdownUpdated{Remaining: 42 * time.Second})
	term.Present(session.DismissWarning{})

	s := out.String()
	for _, want := range []string{"1:00", "extend", "Session expires in 0:42", "Session extended."} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestTerminal_Toasts(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, true)

	term.ShowToast(domain.Notification{ID: "n-1", Type: domain.NotificationStock, Title: "Low stock", Message: "Sugar 1kg", Timestamp: time.Now()})
	term.ShowToast(domain.Notification{ID: "n-2", Type: domain.NotificationOrder, Title: "New order", Timestamp: time.Now()})
	if term.VisibleToasts() != 2 {
		t.Fatalf("expected 2 toasts, got %d", term.VisibleToasts())
	}
	term.RemoveToast("n-1")
	if term.VisibleToasts() != 1 {
		t.Fatalf("expected 1 toast, got %d", term.VisibleToasts())
	}

	if err := term.PlaySound(); err != nil {
		t.Fatalf("PlaySound: %v", err)
	}
	if !strings.Contains(out.String(), "\a") {
		t.Fatal("expected the bell character")
	}
	if !strings.Contains(out.String(), "[stock] Low stock") {
		t.Fatalf("toast not rendered: %q", out.String())
	}
}

func TestTerminal_QuietHasNoBell(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)
	if err := term.PlaySound(); err != nil {
		t.Fatalf("PlaySound: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}
