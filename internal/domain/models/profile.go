package models

import "time"

// Role is the flat authorization level attached to a profile.
// There is no permission graph; every gate decision reduces to
// "is this an admin or not".
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the role record keyed by auth user id. It is created by a
// database trigger on sign-up, so a signed-in user can briefly have no
// profile row; readers must treat that as RoleUser, never RoleAdmin.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
