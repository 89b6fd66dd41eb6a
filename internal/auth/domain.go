// Package auth implements credential authentication, session issuance, and
// the verification flows (email, password reset, phone OTP).
package auth

import "time"

// Roles assignable to a user.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// ProviderCredential marks the email/password account row.
const ProviderCredential = "credential"

// User represents an account holder.
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

// BanActive reports whether the user is currently banned, honouring the
// optional expiry.
func (u *User) BanActive(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpires != nil && now.After(*u.BanExpires) {
		return false
	}
	return true
}

// Session mirrors a Redis session into the sessions table so the admin
// panel can inspect and revoke logins.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Account links a user to an auth provider; the credential provider row
// carries the bcrypt password hash.
type Account struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	ProviderID   string    `json:"providerId"`
	UserID       string    `json:"userId"`
	AccessToken  *string   `json:"accessToken,omitempty"`
	RefreshToken *string   `json:"refreshToken,omitempty"`
	IDToken      *string   `json:"idToken,omitempty"`
	Scope        *string   `json:"scope,omitempty"`
	Password     *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Verification is a single-use token row: email verification links,
// password reset tokens, and phone OTP codes.
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identifier prefixes for verification rows.
const (
	purposeEmailVerify  = "email-verification"
	purposePasswordRset = "password-reset"
	purposePhoneOTP     = "phone-otp"
)
