package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record. Password material never leaves this
// package in responses; handlers expose View instead.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLogin      *time.Time

	// Lockout bookkeeping, maintained by the credential layer.
	FailedLogins int
	LockedUntil  *time.Time
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// View is the safe projection of a User for API responses.
type View struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ToView strips sensitive fields for external consumption.
func (u *User) ToView() View {
	return View{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
