// Package users covers profile management and the user administration
// operations (roles, bans, stats).
package users

import "time"

// User represents a managed user account.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Image         *string    `json:"image,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	PhoneVerified bool       `json:"phoneVerified"`
	Role          string     `json:"role"`
	Banned        bool       `json:"banned"`
	BanReason     *string    `json:"banReason,omitempty"`
	BanExpires    *time.Time `json:"banExpires,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Stats aggregates account counts for the dashboard.
type Stats struct {
	Total    int64 `json:"total"`
	Verified int64 `json:"verified"`
	Banned   int64 `json:"banned"`
	Admins   int64 `json:"admins"`
}

// ProfileUpdate carries the self-service editable fields; nil means leave
// unchanged.
type ProfileUpdate struct {
	Name  *string
	Image *string
	Phone *string
}

// Ban describes an administrative ban.
type Ban struct {
	Reason  string
	Expires *time.Time
}

var validRoles = map[string]bool{"user": true, "admin": true, "moderator": true}

// ValidRole reports whether the role is one of the three assignable roles.
func ValidRole(role string) bool {
	return validRoles[role]
}
