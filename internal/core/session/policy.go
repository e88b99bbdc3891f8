// Package session implements the client-side session lifecycle: the
// policy that decides whether a stored credential is still usable, the
// engine that applies it to a CredentialStore, the activity monitor and
// the admission gate for protected routes.
package session

import (
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

const (
	DefaultStaffTimeout     = 30 * time.Minute
	DefaultCustomerTimeout  = 24 * time.Hour
	DefaultRefreshThreshold = 5 * time.Minute
	DefaultWarningTime      = time.Minute
)

// Policy holds the timing rules applied to a credential.
type Policy struct {
	// SessionTimeout is the allowed inactivity window for staff sessions.
	SessionTimeout time.Duration
	// CustomerTimeout is the inactivity window for the customer role.
	// Zero falls back to SessionTimeout.
	CustomerTimeout time.Duration
	// RefreshThreshold is how close to token expiry a refresh is requested.
	RefreshThreshold time.Duration
}

// DefaultPolicy returns the production timings.
func DefaultPolicy() Policy {
	return Policy{
		SessionTimeout:   DefaultStaffTimeout,
		CustomerTimeout:  DefaultCustomerTimeout,
		RefreshThreshold: DefaultRefreshThreshold,
	}
}

// TimeoutFor returns the inactivity window that applies to p.
func (p Policy) TimeoutFor(principal *domain.Principal) time.Duration {
	if principal != nil && principal.Role == domain.RoleCustomer && p.CustomerTimeout > 0 {
		return p.CustomerTimeout
	}
	return p.SessionTimeout
}

// Validate returns nil when cred may be used at now, otherwise the reason
// it may not: ErrNotAuthenticated, ErrSessionInactive or ErrTokenExpired.
func (p Policy) Validate(cred domain.Credential, now time.Time) error {
	if !cred.Complete() {
		return domain.ErrNotAuthenticated
	}
	if now.Sub(cred.LastActivityAt) > p.TimeoutFor(cred.Principal) {
		return domain.ErrSessionInactive
	}
	if exp := cred.Principal.Exp; exp != nil && *exp*1000 < now.UnixMilli() {
		return domain.ErrTokenExpired
	}
	return nil
}

// Remaining returns how much inactivity time is left at now.
func (p Policy) Remaining(cred domain.Credential, now time.Time) time.Duration {
	return p.TimeoutFor(cred.Principal) - now.Sub(cred.LastActivityAt)
}

// NeedsRefresh reports whether the token expires within RefreshThreshold.
// Credentials without an expiry never need a refresh.
func (p Policy) NeedsRefresh(cred domain.Credential, now time.Time) bool {
	if cred.Principal == nil || cred.Principal.Exp == nil {
		return false
	}
	left := *cred.Principal.Exp*1000 - now.UnixMilli()
	return left <= p.RefreshThreshold.Milliseconds()
}
