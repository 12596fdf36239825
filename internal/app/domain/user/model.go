package user

import "time"

// Roles in ascending order of privilege.
const (
	RoleContributor = "contributor"
	RoleEditor      = "editor"
	RoleAdmin       = "admin"
	RoleOwner       = "owner"
)

// Statuses a user account can be in.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents a staff account able to sign in to the admin API.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanAdmin reports whether the user may change server configuration,
// including labs flags.
func (u *User) CanAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}
