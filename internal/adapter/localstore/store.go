// Package localstore persists the console's client-side state in a single
// JSON file, one value per key. Every write rewrites the file through a
// temporary file and a rename, so readers never observe half a record.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const (
	keyToken        = "token"
	keyPrincipal    = "principal"
	keyLastActivity = "last_activity_at"
	keyFlash        = "flash"

	lockoutPrefix = "lockout."

	// FlashTTL bounds how long a redirect reason waits for the next page.
	FlashTTL = 5 * time.Minute
)

// Store is a file-backed key/value store.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Open returns a Store persisting to path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("localstore: create dir: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

type values map[string]json.RawMessage

func (s *Store) read() (values, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read: %w", err)
	}
	if len(data) == 0 {
		return values{}, nil
	}
	v := values{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("localstore: decode %s: %w", s.path, err)
	}
	return v, nil
}

func (s *Store) write(v values) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".localstore-*")
	if err != nil {
		return fmt.Errorf("localstore: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("localstore: replace: %w", err)
	}
	return nil
}

func (s *Store) view(fn func(values) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.read()
	if err != nil {
		return err
	}
	return fn(v)
}

func (s *Store) update(fn func(values) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	return s.write(v)
}

func put(v values, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", key, err)
	}
	v[key] = raw
	return nil
}

// Credentials returns the credential view of the store.
func (s *Store) Credentials() ports.CredentialStore {
	return credentialView{s}
}

// Lockouts returns the lockout view of the store.
func (s *Store) Lockouts() ports.LockoutStore {
	return lockoutView{s}
}

// Flash returns the redirect-reason view of the store.
func (s *Store) Flash() ports.FlashStore {
	return flashView{s}
}

type credentialView struct{ s *Store }

func (c credentialView) Get(_ context.Context) (domain.Credential, error) {
	var cred domain.Credential
	err := c.s.view(func(v values) error {
		if raw, ok := v[keyToken]; ok {
			if err := json.Unmarshal(raw, &cred.Token); err != nil {
				return fmt.Errorf("localstore: decode token: %w", err)
			}
		}
		if raw, ok := v[keyPrincipal]; ok {
			var p domain.Principal
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("localstore: decode principal: %w", err)
			}
			cred.Principal = &p
		}
		if raw, ok := v[keyLastActivity]; ok {
			var ms int64
			if err := json.Unmarshal(raw, &ms); err != nil {
				return fmt.Errorf("localstore: decode activity: %w", err)
			}
			if ms > 0 {
				cred.LastActivityAt = time.UnixMilli(ms)
			}
		}
		return nil
	})
	return cred, err
}

func (c credentialView) Set(_ context.Context, cred domain.Credential) error {
	return c.s.update(func(v values) error {
		clearCredential(v)
		if cred.Token != "" {
			if err := put(v, keyToken, cred.Token); err != nil {
				return err
			}
		}
		if cred.Principal != nil {
			if err := put(v, keyPrincipal, cred.Principal); err != nil {
				return err
			}
		}
		if !cred.LastActivityAt.IsZero() {
			if err := put(v, keyLastActivity, cred.LastActivityAt.UnixMilli()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c credentialView) Clear(_ context.Context) error {
	return c.s.update(func(v values) error {
		clearCredential(v)
		return nil
	})
}

func clearCredential(v values) {
	delete(v, keyToken)
	delete(v, keyPrincipal)
	delete(v, keyLastActivity)
}

type lockoutView struct{ s *Store }

func (l lockoutView) Load(_ context.Context, key string) (domain.LockoutRecord, error) {
	var rec domain.LockoutRecord
	err := l.s.view(func(v values) error {
		raw, ok := v[lockoutPrefix+key]
		if !ok {
			return nil
		}
		return json.Unmarshal(raw, &rec)
	})
	return rec, err
}

func (l lockoutView) Save(_ context.Context, key string, rec domain.LockoutRecord) error {
	return l.s.update(func(v values) error {
		return put(v, lockoutPrefix+key, rec)
	})
}

func (l lockoutView) Delete(_ context.Context, key string) error {
	return l.s.update(func(v values) error {
		delete(v, lockoutPrefix+key)
		return nil
	})
}

type flashMessage struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type flashView struct{ s *Store }

func (f flashView) Put(_ context.Context, message string) error {
	return f.s.update(func(v values) error {
		return put(v, keyFlash, flashMessage{Message: message, ExpiresAt: f.s.now().Add(FlashTTL)})
	})
}

func (f flashView) Take(_ context.Context) (string, error) {
	var msg string
	err := f.s.update(func(v values) error {
		raw, ok := v[keyFlash]
		if !ok {
			return nil
		}
		delete(v, keyFlash)
		var fm flashMessage
		if err := json.Unmarshal(raw, &fm); err != nil {
			return nil
		}
		if f.s.now().Before(fm.ExpiresAt) {
			msg = fm.Message
		}
		return nil
	})
	return msg, err
}
