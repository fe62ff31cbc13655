package domain

import "time"

// User models an account of the portal. Role holds the stored (Spanish) role
// name; use NormalizeRole for access decisions.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanonicalRole returns the user's normalized role.
func (u *User) CanonicalRole() Role {
	return NormalizeRole(u.Role)
}
