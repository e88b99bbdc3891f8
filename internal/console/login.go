package console

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/ports"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

// LockoutKey is the lockout record of the admin login form.
const LockoutKey = "admin"

const invalidCredentialsMessage = "Invalid email or password."

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*ports.Session, error)
}

// RejectedError is a login refusal with the message for the form.
type RejectedError struct {
	Message string
	Status  lockout.Status
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return domain.ErrInvalidCredentials }

// LoginFlow runs the admin login form.
type LoginFlow struct {
	guard  *lockout.Guard
	auth   Authenticator
	engine *session.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewLoginFlow returns the admin login form.
func NewLoginFlow(guard *lockout.Guard, auth Authenticator, engine *session.Engine, log zerolog.Logger) *LoginFlow {
	return &LoginFlow{guard: guard, auth: auth, engine: engine, log: log, now: time.Now}
}

// Submit validates the form and logs in. While the form is locked it
// returns *domain.LockoutError without contacting the server. Rejected
// credentials return *RejectedError.
func (f *LoginFlow) Submit(ctx context.Context, email, password string) (*domain.Principal, error) {
	now := f.now()
	if err := f.guard.Check(ctx, LockoutKey, now); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateForm(email, password); err != nil {
		return nil, err
	}

	sess, err := f.auth.Login(ctx, email, password)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials):
		return nil, f.reject(ctx, now)
	default:
		return nil, err
	}

	if sess.Principal == nil || !domain.IsStaffRole(sess.Principal.Role) {
		return nil, domain.ErrForbidden
	}
	if err := f.guard.RecordSuccess(ctx, LockoutKey); err != nil {
		f.log.Warn().Err(err).Msg("failed to reset login lockout")
	}
	if err := f.engine.Install(ctx, sess, f.now()); err != nil {
		return nil, err
	}
	f.log.Info().Str("role", sess.Principal.Role).Msg("logged in")
	return sess.Principal, nil
}

func (f *LoginFlow) reject(ctx context.Context, now time.Time) error {
	st, err := f.guard.RecordFailure(ctx, LockoutKey, now)
	if err != nil {
		f.log.Warn().Err(err).Msg("failed to record login failure")
		return &RejectedError{Message: invalidCredentialsMessage}
	}
	if st.Locked {
		return &domain.LockoutError{Remaining: st.Remaining}
	}
	return &RejectedError{Message: lockout.FailureMessage(invalidCredentialsMessage, st), Status: st}
}

func validateForm(email, password string) error {
	switch {
	case email == "":
		return &domain.ValidationError{Field: "email", Message: "Email is required."}
	case !validEmail(email):
		return &domain.ValidationError{Field: "email", Message: "Please enter a valid email address."}
	case password == "":
		return &domain.ValidationError{Field: "password", Message: "Password is required."}
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
