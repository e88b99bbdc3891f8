package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhonest/supermarket-web/internal/api/metrics"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const minPasswordLength = 8

// tokenClaims is the JWT payload issued by AuthService.
type tokenClaims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login, token refresh and logout,
// and verifies the tokens it issues.
type AuthService struct {
	repo      ports.AuthRepository
	jwtSecret string
	tokenTTL  time.Duration

	denylist ports.TokenDenylist
	guard    *lockout.Guard
	mailer   ports.Mailer
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithDenylist enables token revocation on logout and refresh.
func WithDenylist(d ports.TokenDenylist) AuthOption {
	return func(s *AuthService) { s.denylist = d }
}

// WithLockout throttles repeated failed logins per email.
func WithLockout(g *lockout.Guard) AuthOption {
	return func(s *AuthService) { s.guard = g }
}

// WithMailer sends a welcome email after registration.
func WithMailer(m ports.Mailer) AuthOption {
	return func(s *AuthService) { s.mailer = m }
}

// WithAuthLogger sets the service logger.
func WithAuthLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

// WithAuthClock replaces time.Now.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a customer account. The welcome email is best effort.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, &domain.ValidationError{Field: "name", Message: "name is required"}
	case !validEmail(email):
		return nil, &domain.ValidationError{Field: "email", Message: "email must be a valid email"}
	case len(in.Password) < minPasswordLength:
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, created); err != nil {
			s.log.Warn().Err(err).Str("email", created.Email).Msg("welcome email not sent")
		}
	}
	return created, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller. Once the lockout guard
// locks an email, further attempts fail with *domain.LockoutError before
// the password is checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	key := "login:" + email
	if s.guard != nil {
		if err := s.guard.Check(ctx, key, now); err != nil {
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			return nil, err
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, s.recordFailure(ctx, key, now)
	}

	if s.guard != nil {
		if err := s.guard.RecordSuccess(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to reset login lockout")
		}
	}

	sess, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return sess, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string, now time.Time) error {
	if s.guard == nil {
		return domain.ErrInvalidCredentials
	}
	st, err := s.guard.RecordFailure(ctx, key, now)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to record login failure")
		return domain.ErrInvalidCredentials
	}
	if st.Locked {
		metrics.LockoutsTotal.Inc()
		return &domain.LockoutError{Remaining: st.Remaining}
	}
	return domain.ErrInvalidCredentials
}

// Refresh issues a new token for the holder of claims, picking up role
// and permission changes, and revokes the presented token.
func (s *AuthService) Refresh(ctx context.Context, claims *ports.Claims) (*ports.Session, error) {
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}

	sess, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		s.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("failed to revoke refreshed token")
	}
	metrics.TokenRefreshesTotal.Inc()
	return sess, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *ports.Claims) error {
	return s.revoke(ctx, claims)
}

func (s *AuthService) revoke(ctx context.Context, claims *ports.Claims) error {
	if s.denylist == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Verify parses a bearer token and rejects expired or revoked tokens.
func (s *AuthService) Verify(ctx context.Context, token string) (*ports.Claims, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	tc := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, tc, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	claims := &ports.Claims{
		TokenID:     tc.ID,
		UserID:      tc.Subject,
		Email:       tc.Email,
		Name:        tc.Name,
		Role:        tc.Role,
		Permissions: tc.Permissions,
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	if s.denylist != nil && claims.TokenID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, domain.TransientError("check revocation", err)
		}
		if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.Session, error) {
	now := s.now()
	exp := now.Add(s.tokenTTL)
	claims := tokenClaims{
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &ports.Session{Token: signed, Principal: user.Principal(exp)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
