package ports

import (
	"context"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	Token     string
	Principal *domain.Principal
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	TokenID     string
	UserID      string
	Email       string
	Name        string
	Role        string
	Permissions []string
	ExpiresAt   time.Time
}

// Principal converts verified claims into the client profile shape.
func (c *Claims) Principal() *domain.Principal {
	p := &domain.Principal{
		ID:          c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
	if !c.ExpiresAt.IsZero() {
		exp := c.ExpiresAt.Unix()
		p.Exp = &exp
	}
	return p
}

// RegisterInput carries a customer sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, claims *Claims) (*Session, error)
	Logout(ctx context.Context, claims *Claims) error
}

// TokenVerifier parses and checks a bearer token, including revocation.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
