package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// Engine applies a Policy to the credential held in a CredentialStore.
type Engine struct {
	store     ports.CredentialStore
	refresher ports.TokenRefresher
	policy    Policy
	log       zerolog.Logger
}

// NewEngine returns an Engine. refresher may be nil, in which case tokens
// are never proactively refreshed.
func NewEngine(store ports.CredentialStore, refresher ports.TokenRefresher, policy Policy, log zerolog.Logger) *Engine {
	return &Engine{store: store, refresher: refresher, policy: policy, log: log}
}

// Policy returns the timing rules the engine enforces.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Check loads and validates the stored credential. When validation fails
// the whole record is cleared and the validation error is returned.
func (e *Engine) Check(ctx context.Context, now time.Time) (domain.Credential, error) {
	cred, err := e.store.Get(ctx)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("load credential: %w", err)
	}

	if verr := e.policy.Validate(cred, now); verr != nil {
		if cerr := e.store.Clear(ctx); cerr != nil {
			e.log.Error().Err(cerr).Msg("failed to clear invalid credential")
			return domain.Credential{}, errors.Join(verr, fmt.Errorf("clear credential: %w", cerr))
		}
		if !cred.Empty() {
			e.log.Info().Err(verr).Str("role", roleOf(cred)).Msg("session invalidated")
		}
		return domain.Credential{}, verr
	}
	return cred, nil
}

// IsValid reports whether the stored credential is usable at now.
func (e *Engine) IsValid(ctx context.Context, now time.Time) bool {
	_, err := e.Check(ctx, now)
	return err == nil
}

// Touch records user activity at now on a valid session.
func (e *Engine) Touch(ctx context.Context, now time.Time) error {
	cred, err := e.Check(ctx, now)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, cred.Touched(now)); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// Install stores a freshly issued session as the current credential.
func (e *Engine) Install(ctx context.Context, s *ports.Session, now time.Time) error {
	if s == nil || s.Token == "" || s.Principal == nil {
		return fmt.Errorf("install session: %w", domain.ErrNotAuthenticated)
	}
	cred := domain.Credential{Token: s.Token, Principal: s.Principal, LastActivityAt: now}
	if err := e.store.Set(ctx, cred); err != nil {
		return fmt.Errorf("install session: %w", err)
	}
	return nil
}

// RefreshIfDue asks the refresher for a new token when the current one is
// inside the refresh window. On failure the stored credential is left
// untouched so that the next check cycle can retry.
func (e *Engine) RefreshIfDue(ctx context.Context, now time.Time) (bool, error) {
	if e.refresher == nil {
		return false, nil
	}
	cred, err := e.Check(ctx, now)
	if err != nil {
		return false, err
	}
	if !e.policy.NeedsRefresh(cred, now) {
		return false, nil
	}

	s, err := e.refresher.Refresh(ctx, cred.Token)
	if err != nil {
		e.log.Warn().Err(err).Msg("token refresh failed, will retry on next check")
		return false, fmt.Errorf("refresh token: %w", err)
	}
	if err := e.Install(ctx, s, now); err != nil {
		e.log.Warn().Err(err).Msg("token refresh returned an unusable session")
		return false, err
	}

	e.log.Debug().Str("role", s.Principal.Role).Msg("token refreshed")
	return true, nil
}

// Logout clears the stored credential.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func roleOf(c domain.Credential) string {
	if c.Principal == nil {
		return ""
	}
	return c.Principal.Role
}
