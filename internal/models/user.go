package models

import (
	"strings"
	"time"
)

// Role names as stored on user records.
const (
	RoleUser         = "User"
	RoleAdmin        = "Admin"
	RoleHR           = "HR"
	RoleCompanyOwner = "Company Owner"
)

// User is a platform account.
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	BannedAt     *time.Time `json:"bannedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// DisplayName is the name shown next to a user's messages.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsBanned reports whether an admin has banned the account.
func (u *User) IsBanned() bool {
	return u.BannedAt != nil
}

// CanRecruit reports whether the user acts for an organization: only these
// roles may open a conversation or publish jobs.
func (u *User) CanRecruit() bool {
	return u.Role == RoleHR || u.Role == RoleCompanyOwner
}

// ValidRole reports whether role is a known role name.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleHR, RoleCompanyOwner:
		return true
	}
	return false
}
