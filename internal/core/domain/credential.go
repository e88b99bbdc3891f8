package domain

import "time"

// Principal is the profile the client keeps next to its bearer token.
// Exp is the token expiry in unix seconds; Permissions is nil when the
// server did not send an explicit list.
type Principal struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Exp         *int64   `json:"exp,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ExpiresAt returns the token expiry and whether one is set.
func (p *Principal) ExpiresAt() (time.Time, bool) {
	if p == nil || p.Exp == nil {
		return time.Time{}, false
	}
	return time.Unix(*p.Exp, 0), true
}

// Credential is the client-side record of one logged-in principal.
// A zero LastActivityAt means the timestamp is absent.
type Credential struct {
	Token          string
	Principal      *Principal
	LastActivityAt time.Time
}

// Complete reports whether token, principal and activity timestamp are
// all present.
func (c Credential) Complete() bool {
	return c.Token != "" && c.Principal != nil && !c.LastActivityAt.IsZero()
}

// Empty reports whether nothing at all is stored.
func (c Credential) Empty() bool {
	return c.Token == "" && c.Principal == nil && c.LastActivityAt.IsZero()
}

// Touched returns a copy of c with the activity timestamp set to at.
func (c Credential) Touched(at time.Time) Credential {
	c.LastActivityAt = at
	return c
}
