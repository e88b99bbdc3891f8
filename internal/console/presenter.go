package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/notify"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

var (
	_ session.Presenter = (*Terminal)(nil)
	_ notify.Presenter  = (*Terminal)(nil)
)

// Terminal renders monitor and feed effects as lines on w. Writes are
// serialized because the monitor and the channel run on separate
// goroutines.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	toasts map[string]domain.Notification
	bell   bool

	// Logout receives the redirect reason once the session has ended.
	Logout chan string
}

// NewTerminal returns a presenter writing to w. bell enables the audio
// cue.
func NewTerminal(w io.Writer, bell bool) *Terminal {
	return &Terminal{
		w:      w,
		toasts: make(map[string]domain.Notification),
		bell:   bell,
		Logout: make(chan string, 1),
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// Present renders one activity monitor effect.
func (t *Terminal) Present(eff session.Effect) {
	switch e := eff.(type) {
	case session.ShowWarning:
		t.printf("%s\n", warningPanel.Render(fmt.Sprintf(
			"Your session will expire in %s due to inactivity.\nType \"extend\" to stay logged in.", formatCountdown(e.Remaining))))
	case session.CountdownUpdated:
		t.printf("%s\n", warnStyle.Render("Session expires in "+formatCountdown(e.Remaining)))
	case session.DismissWarning:
		t.printf("%s\n", okStyle.Render("Session extended."))
	case session.TokenRefreshed:
		t.printf("%s\n", mutedStyle.Render("Token refreshed."))
	case session.RedirectToLogin:
		t.printf("%s\n", errorStyle.Render(e.Reason))
		select {
		case t.Logout <- e.Reason:
		default:
		}
	}
}

// SetBadge renders the unread count.
func (t *Terminal) SetBadge(unread int) {
	if unread == 0 {
		t.printf("%s\n", mutedStyle.Render("No unread notifications"))
		return
	}
	t.printf("%s\n", badgeStyle.Render(fmt.Sprintf("%d unread", unread)))
}

// ShowToast renders a notification.
func (t *Terminal) ShowToast(n domain.Notification) {
	t.mu.Lock()
	t.toasts[n.ID] = n
	t.mu.Unlock()

	body := titleStyle.Render(fmt.Sprintf("[%s] %s", n.Type, n.Title)) + "\n" + n.Message + "\n" +
		mutedStyle.Render(n.Timestamp.Local().Format(time.Kitchen)+"  id "+n.ID)
	t.printf("%s\n", toastStyle.Render(body))
}

// HideToast starts removing a toast; on a terminal there is nothing to
// animate.
func (t *Terminal) HideToast(string) {}

// RemoveToast forgets a dismissed toast.
func (t *Terminal) RemoveToast(id string) {
	t.mu.Lock()
	delete(t.toasts, id)
	t.mu.Unlock()
}

// PlaySound rings the terminal bell.
func (t *Terminal) PlaySound() error {
	if !t.bell {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, "\a")
	return err
}

// VisibleToasts returns the number of toasts not yet removed.
func (t *Terminal) VisibleToasts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toasts)
}

// PrintFeed renders the retained notifications, newest first.
func (t *Terminal) PrintFeed(items []domain.Notification) {
	if len(items) == 0 {
		t.printf("%s\n", mutedStyle.Render("No notifications yet."))
		return
	}
	for _, n := range items {
		marker := "●"
		if n.Read {
			marker = " "
		}
		t.printf("%s %s  %s  %s\n", marker, mutedStyle.Render(n.Timestamp.Local().Format("15:04")), titleStyle.Render(n.Title), n.Message)
		t.printf("  %s\n", mutedStyle.Render("id "+n.ID))
	}
}

// Info prints a plain status line.
func (t *Terminal) Info(msg string) {
	t.printf("%s\n", msg)
}

// Error prints an error line.
func (t *Terminal) Error(msg string) {
	t.printf("%s\n", errorStyle.Render(msg))
}

// formatCountdown renders m:ss.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
