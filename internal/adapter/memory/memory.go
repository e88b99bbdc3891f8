// Package memory implements in-memory stores for development and testing.
package memory

import (
	"context"
	"sync"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// Ensure interfaces are met.
var _ ports.CredentialStore = (*CredentialStore)(nil)
var _ ports.LockoutStore = (*LockoutStore)(nil)
var _ ports.FlashStore = (*FlashStore)(nil)

// CredentialStore keeps one credential record in memory.
type CredentialStore struct {
	mu   sync.Mutex
	cred domain.Credential
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Get returns a copy of the stored credential.
func (s *CredentialStore) Get(_ context.Context) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCredential(s.cred), nil
}

// Set replaces the stored credential.
func (s *CredentialStore) Set(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cloneCredential(cred)
	return nil
}

// Clear removes the stored credential.
func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = domain.Credential{}
	return nil
}

func cloneCredential(c domain.Credential) domain.Credential {
	if c.Principal == nil {
		return c
	}
	p := *c.Principal
	if p.Exp != nil {
		exp := *p.Exp
		p.Exp = &exp
	}
	if p.Permissions != nil {
		p.Permissions = append([]string{}, p.Permissions...)
	}
	c.Principal = &p
	return c
}

// LockoutStore keeps lockout records by key.
type LockoutStore struct {
	mu      sync.Mutex
	records map[string]domain.LockoutRecord
}

// NewLockoutStore returns an empty store.
func NewLockoutStore() *LockoutStore {
	return &LockoutStore{records: make(map[string]domain.LockoutRecord)}
}

// Load returns the record for key, or a zero record.
func (s *LockoutStore) Load(_ context.Context, key string) (domain.LockoutRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[key], nil
}

// Save stores rec under key.
func (s *LockoutStore) Save(_ context.Context, key string, rec domain.LockoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

// Delete removes the record for key.
func (s *LockoutStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// FlashStore holds a single pending message.
type FlashStore struct {
	mu  sync.Mutex
	msg string
}

// NewFlashStore returns an empty store.
func NewFlashStore() *FlashStore {
	return &FlashStore{}
}

// Put stores message, replacing any previous one.
func (s *FlashStore) Put(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = message
	return nil
}

// Take returns and deletes the pending message.
func (s *FlashStore) Take(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.msg
	s.msg = ""
	return msg, nil
}
