package session

import (
	"context"
	"fmt"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// Route describes a page the gate may be asked to protect.
type Route struct {
	Name         string
	RequiresAuth bool
}

// Decision is the outcome of Gate.Protect. When Allowed is false the
// caller must send the user to LoginURL; Reason has already been stored
// for the login page.
type Decision struct {
	Allowed   bool
	LoginURL  string
	Reason    string
	Principal *domain.Principal
}

// Can reports whether the admitted principal may use permission. A
// redirect decision can do nothing.
func (d Decision) Can(permission string) bool {
	return d.Allowed && domain.HasPermission(d.Principal, permission)
}

// Gate admits or redirects protected page loads.
type Gate struct {
	engine   *Engine
	flash    ports.FlashStore
	loginURL string
}

// NewGate returns a Gate that redirects to loginURL.
func NewGate(engine *Engine, flash ports.FlashStore, loginURL string) *Gate {
	return &Gate{engine: engine, flash: flash, loginURL: loginURL}
}

// Protect decides whether route may render at now.
func (g *Gate) Protect(ctx context.Context, route Route, now time.Time) (Decision, error) {
	if !route.RequiresAuth {
		cred, err := g.engine.store.Get(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("protect %s: %w", route.Name, err)
		}
		return Decision{Allowed: true, Principal: cred.Principal}, nil
	}

	cred, err := g.engine.Check(ctx, now)
	if err != nil {
		if !isVerdict(err) {
			return Decision{}, fmt.Errorf("protect %s: %w", route.Name, err)
		}
		reason := reasonFor(err)
		if ferr := g.flash.Put(ctx, reason); ferr != nil {
			return Decision{}, fmt.Errorf("protect %s: store redirect reason: %w", route.Name, ferr)
		}
		return Decision{LoginURL: g.loginURL, Reason: reason}, nil
	}
	return Decision{Allowed: true, Principal: cred.Principal}, nil
}

// ConsumeReason returns the message left by the last redirect, once.
func (g *Gate) ConsumeReason(ctx context.Context) (string, error) {
	msg, err := g.flash.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("consume redirect reason: %w", err)
	}
	return msg, nil
}
