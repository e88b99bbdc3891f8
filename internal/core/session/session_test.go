package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func adminCredential(lastActivity time.Time, exp time.Time) domain.Credential {
	unix := exp.Unix()
	return domain.Credential{
		Token:          "token-1",
		Principal:      &domain.Principal{ID: "admin-1", Role: domain.RoleAdmin, Exp: &unix},
		LastActivityAt: lastActivity,
	}
}

// stubRefresher counts calls and returns a session expiring at exp.
type stubRefresher struct {
	calls atomic.Int32
	exp   time.Time
	err   error
}

func (r *stubRefresher) Refresh(_ context.Context, token string) (*ports.Session, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	unix := r.exp.Unix()
	return &ports.Session{
		Token:     token + "-refreshed",
		Principal: &domain.Principal{ID: "admin-1", Role: domain.RoleAdmin, Exp: &unix},
	}, nil
}

// failingStore fails every call with err.
type failingStore struct{ err error }

func (s failingStore) Get(context.Context) (domain.Credential, error) { return domain.Credential{}, s.err }
func (s failingStore) Set(context.Context, domain.Credential) error   { return s.err }
func (s failingStore) Clear(context.Context) error                    { return s.err }

var errDisk = errors.New("disk unavailable")
