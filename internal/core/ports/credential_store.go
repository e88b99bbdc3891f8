package ports

import (
	"context"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// CredentialStore is the single owner of the client-side credential
// record. Set replaces the whole record and Clear removes token,
// principal and activity timestamp in one write. Get on an empty store returns a zero Credential and no error.
type CredentialStore interface {
	Get(ctx context.Context) (domain.Credential, error)
	Set(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// LockoutStore persists lockout records by key (a login form on the
// client, an email address on the server).
type LockoutStore interface {
	Load(ctx context.Context, key string) (domain.LockoutRecord, error)
	Save(ctx context.Context, key string, rec domain.LockoutRecord) error
	Delete(ctx context.Context, key string) error
}

// FlashStore carries one short message to the next page load. Take
// returns the message and deletes it; an empty string means none.
type FlashStore interface {
	Put(ctx context.Context, message string) error
	Take(ctx context.Context) (string, error)
}

// TokenRefresher exchanges a still-valid token for a fresh one.
type TokenRefresher interface {
	Refresh(ctx context.Context, token string) (*Session, error)
}
