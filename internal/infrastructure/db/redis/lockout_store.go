package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// unlockedTTL bounds how long an unlocked failure counter is kept.
const unlockedTTL = 24 * time.Hour

var _ ports.LockoutStore = (*LockoutStore)(nil)

// LockoutStore keeps login lockout records shared by every API instance.
// Key format: lockout:<key>
type LockoutStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewLockoutStore creates a LockoutStore wrapping the given Redis client.
func NewLockoutStore(client *redis.Client) *LockoutStore {
	return &LockoutStore{client: client, now: time.Now}
}

// Load returns the record for key, or a zero record when none exists.
func (s *LockoutStore) Load(ctx context.Context, key string) (domain.LockoutRecord, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LockoutRecord{}, nil
	}
	if err != nil {
		return domain.LockoutRecord{}, fmt.Errorf("load lockout: %w", err)
	}

	var rec domain.LockoutRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt record is treated as absent.
		return domain.LockoutRecord{}, nil
	}
	return rec, nil
}

// Save stores rec. A locked record lives a little past its lock so that the
// guard can observe the expiry and reset it.
func (s *LockoutStore) Save(ctx context.Context, key string, rec domain.LockoutRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := unlockedTTL
	if !rec.LockedUntil.IsZero() {
		ttl = rec.LockedUntil.Sub(s.now()) + time.Minute
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save lockout: %w", err)
	}
	return nil
}

// Delete removes the record for key.
func (s *LockoutStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete lockout: %w", err)
	}
	return nil
}

func (s *LockoutStore) key(key string) string {
	return "lockout:" + key
}
