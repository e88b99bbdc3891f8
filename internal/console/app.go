package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nhonest/supermarket-web/internal/adapter/localstore"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/notify"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

// Console routes.
var (
	RouteLogin     = session.Route{Name: "login"}
	RouteDashboard = session.Route{Name: "dashboard", RequiresAuth: true}
	RouteOrders    = session.Route{Name: "orders", RequiresAuth: true}
	RoutePayments  = session.Route{Name: "payments", RequiresAuth: true}
)

const loginCommand = "nhonest-console login"

// RedirectError means the route needs a fresh login.
type RedirectError struct {
	Reason string
}

func (e *RedirectError) Error() string { return e.Reason }

func (e *RedirectError) Unwrap() error { return domain.ErrNotAuthenticated }

var (
	errQuit         = errors.New("quit")
	errSessionEnded = errors.New("session ended")
)

// App holds the console's collaborators.
type App struct {
	cfg    *Config
	store  *localstore.Store
	client *Client
	engine *session.Engine
	guard  *lockout.Guard
	gate   *session.Gate
	log    zerolog.Logger
	now    func() time.Time
}

// NewApp opens the state file and wires the session lifecycle. If
// httpClient is nil, the API client's default is used.
func NewApp(cfg *Config, httpClient *http.Client, log zerolog.Logger) (*App, error) {
	store, err := localstore.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	client := NewClient(cfg.ServerURL, httpClient)
	engine := session.NewEngine(store.Credentials(), client, cfg.Session.Policy(), log)
	guard := lockout.NewGuard(store.Lockouts(),
		lockout.WithMaxAttempts(cfg.Lockout.MaxAttempts),
		lockout.WithDuration(cfg.Lockout.Duration),
		lockout.WithLogger(log),
	)
	return &App{
		cfg:    cfg,
		store:  store,
		client: client,
		engine: engine,
		guard:  guard,
		gate:   session.NewGate(engine, store.Flash(), loginCommand),
		log:    log,
		now:    time.Now,
	}, nil
}

// Login returns the admin login form.
func (a *App) Login() *LoginFlow {
	f := NewLoginFlow(a.guard, a.client, a.engine, a.log)
	f.now = a.now
	return f
}

// LoginReason returns, once, why the last session ended.
func (a *App) LoginReason(ctx context.Context) (string, error) {
	return a.gate.ConsumeReason(ctx)
}

// Admit runs the admission gate for route.
func (a *App) Admit(ctx context.Context, route session.Route) (session.Decision, error) {
	d, err := a.gate.Protect(ctx, route, a.now())
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		return d, &RedirectError{Reason: d.Reason}
	}
	return d, nil
}

// Status returns the current credential and the inactivity time left.
func (a *App) Status(ctx context.Context) (domain.Credential, time.Duration, error) {
	now := a.now()
	if _, err := a.Admit(ctx, RouteDashboard); err != nil {
		return domain.Credential{}, 0, err
	}
	cred, err := a.engine.Check(ctx, now)
	if err != nil {
		return domain.Credential{}, 0, err
	}
	return cred, a.engine.Policy().Remaining(cred, now), nil
}

// Logout revokes the token on the server, best effort, and clears the
// local credential.
func (a *App) Logout(ctx context.Context) error {
	if cred, err := a.engine.Check(ctx, a.now()); err == nil {
		if err := a.client.Logout(ctx, cred.Token); err != nil {
			a.log.Warn().Err(err).Msg("server logout failed")
		}
	}
	return a.engine.Logout(ctx)
}

// token returns the bearer token of a valid session and records activity.
func (a *App) token(ctx context.Context) (string, error) {
	now := a.now()
	if err := a.engine.Touch(ctx, now); err != nil {
		return "", err
	}
	cred, err := a.engine.Check(ctx, now)
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

// Invoice downloads the invoice of orderID.
func (a *App) Invoice(ctx context.Context, orderID string) ([]byte, error) {
	d, err := a.Admit(ctx, RouteOrders)
	if err != nil {
		return nil, err
	}
	if !d.Can(domain.PermOrdersView) {
		return nil, domain.ErrForbidden
	}
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.Invoice(ctx, token, orderID)
}

// Pay runs the payment flow for orderID.
func (a *App) Pay(ctx context.Context, orderID, phone string, onUpdate func(*domain.Payment)) (*domain.Payment, error) {
	d, err := a.Admit(ctx, RoutePayments)
	if err != nil {
		return nil, err
	}
	if !d.Can(domain.PermPaymentsView) {
		return nil, domain.ErrForbidden
	}
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	flow := NewPaymentFlow(a.client, a.cfg.Payment.PollInterval, a.cfg.Payment.PollTimeout, a.log)
	return flow.Pay(ctx, token, orderID, phone, onUpdate)
}

// Broadcast sends a notification to every connected admin.
func (a *App) Broadcast(ctx context.Context, n domain.Notification) error {
	d, err := a.Admit(ctx, RouteDashboard)
	if err != nil {
		return err
	}
	if !d.Can(domain.PermNotificationsSend) {
		return domain.ErrForbidden
	}
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	return a.client.Broadcast(ctx, token, n)
}

// Watch opens the dashboard: it runs the activity monitor and the
// notification channel and reads commands from in until the session ends,
// the user quits or ctx is cancelled.
func (a *App) Watch(ctx context.Context, in io.Reader, term *Terminal) error {
	d, err := a.Admit(ctx, RouteDashboard)
	if err != nil {
		return err
	}
	term.Info(titleStyle.Render(fmt.Sprintf("N.Honest admin console, signed in as %s (%s)", displayName(d.Principal), d.Principal.Role)))
	term.Info(mutedStyle.Render(`Commands: list, read <id>, read all, extend, quit`))

	feed := notify.NewFeed(term, a.log)
	channel, err := NewChannel(a.cfg.ServerURL, func(ctx context.Context) (string, error) {
		cred, err := a.engine.Check(ctx, a.now())
		return cred.Token, err
	}, feed, a.log)
	if err != nil {
		return err
	}
	monitor := session.NewMonitor(a.engine, a.cfg.Session.WarningTime, a.log)

	signals := make(chan session.Signal)
	extend := make(chan struct{})
	lines := make(chan string)

	g, gctx := errgroup.WithContext(ctx)
	go scanLines(gctx, in, lines)
	g.Go(func() error {
		if err := monitor.Run(gctx, signals, extend, term, a.now); err != nil {
			return err
		}
		return errSessionEnded
	})
	g.Go(func() error {
		return channel.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := a.command(gctx, line, feed, term, signals, extend); err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	switch {
	case errors.Is(err, errQuit), errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return nil
	case errors.Is(err, errSessionEnded):
		reason := session.ReasonLoginNeeded
		select {
		case reason = <-term.Logout:
		default:
		}
		if ferr := a.store.Flash().Put(ctx, reason); ferr != nil {
			a.log.Warn().Err(ferr).Msg("failed to store logout reason")
		}
		return &RedirectError{Reason: reason}
	}
	return err
}

func (a *App) command(ctx context.Context, line string, feed *notify.Feed, term *Terminal, signals chan<- session.Signal, extend chan<- struct{}) error {
	send := func(s session.Signal) {
		select {
		case signals <- s:
		case <-ctx.Done():
		}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		send(session.SignalKeyDown)
		return nil
	}
	switch fields[0] {
	case "quit", "q", "exit":
		return errQuit
	case "extend", "e":
		select {
		case extend <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	}

	send(session.SignalKeyDown)
	switch fields[0] {
	case "list", "l":
		term.PrintFeed(feed.Items())
	case "read", "r":
		switch {
		case len(fields) < 2:
			term.Error("usage: read <id> | read all")
		case fields[1] == "all":
			feed.MarkAllRead()
		case !feed.MarkRead(fields[1]):
			term.Info(mutedStyle.Render("Nothing to mark."))
		}
	case "help", "h", "?":
		term.Info(mutedStyle.Render(`Commands: list, read <id>, read all, extend, quit`))
	default:
		term.Error(fmt.Sprintf("unknown command %q", fields[0]))
	}
	return nil
}

// scanLines forwards lines from in until EOF or until ctx is done.
func scanLines(ctx context.Context, in io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}

func displayName(p *domain.Principal) string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	default:
		return p.Email
	}
}
