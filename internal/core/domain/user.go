package domain

import "time"

const (
	RoleSuperAdmin = "superadmin"
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleStaff      = "staff"
	RoleCustomer   = "customer"
)

// User models an account persisted by the auth service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the profile handed to clients together with a token
// that expires at exp.
func (u *User) Principal(exp time.Time) *Principal {
	p := &Principal{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
	if !exp.IsZero() {
		unix := exp.Unix()
		p.Exp = &unix
	}
	return p
}

// IsStaffRole reports whether role belongs to the back-office side of the
// shop (everything except customers and unknown roles).
func IsStaffRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleOwner, RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}
