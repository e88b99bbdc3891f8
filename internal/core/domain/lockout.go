package domain

import (
	"fmt"
	"time"
)

// LockoutRecord tracks failed logins for one login form (or one email on
// the server). A zero LockedUntil means the record is not locked.
type LockoutRecord struct {
	AttemptCount int       `json:"attempt_count"`
	LockedUntil  time.Time `json:"locked_until,omitempty"`
}

// LockedAt reports whether the record refuses logins at now.
func (r LockoutRecord) LockedAt(now time.Time) bool {
	return !r.LockedUntil.IsZero() && now.Before(r.LockedUntil)
}

// Expired reports whether a lock was set and has since passed.
func (r LockoutRecord) Expired(now time.Time) bool {
	return !r.LockedUntil.IsZero() && !now.Before(r.LockedUntil)
}

// LockoutError is returned when a login is refused because of a lock.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", e.Minutes())
}

// Minutes returns the remaining lock time in whole minutes, rounded up.
func (e *LockoutError) Minutes() int {
	m := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute > 0 {
		m++
	}
	return m
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrLocked
}
