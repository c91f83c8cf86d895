// Package user implements the identity service's User records and the
// email-change request flow (spec.md §3, §4.6).
package user

import "time"

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,min=3,max=32"`
	Password     string `json:"password" validate:"required,min=8"`
	CaptchaToken string `json:"captcha_token" validate:"required"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// RequestEmailChangeRequest is the JSON body for POST /user/email.
type RequestEmailChangeRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response is the JSON representation of a User returned to clients. It
// never includes PasswordHash.
type Response struct {
	UserID         string     `json:"user_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	EmailVerified  bool       `json:"email_verified"`
	ProfilePicURL  *string    `json:"profile_pic_url,omitempty"`
	NameChangeDate *time.Time `json:"name_change_date,omitempty"`
	IsDeveloper    bool       `json:"is_developer"`
}

// User is the persisted identity record (spec.md §3).
type User struct {
	UserID         string
	Email          string
	Name           string
	PasswordHash   string
	EmailVerified  bool
	ProfilePicURL  *string
	NameChangeDate *time.Time
	IsDeveloper    bool
}

// ToResponse strips sensitive fields for API responses.
func (u User) ToResponse() Response {
	return Response{
		UserID:         u.UserID,
		Email:          u.Email,
		Name:           u.Name,
		EmailVerified:  u.EmailVerified,
		ProfilePicURL:  u.ProfilePicURL,
		NameChangeDate: u.NameChangeDate,
		IsDeveloper:    u.IsDeveloper,
	}
}

// EmailChangeRequest tracks a pending, unverified email change (spec.md §3).
// At most one may exist per user at a time.
type EmailChangeRequest struct {
	RequestID     string
	UserID        string
	OriginalEmail string
	NewEmail      *string
	NewCodeHash   *string
	Expiry        time.Time
}

// NameChangeCooldown is the minimum interval between successful name changes
// (spec.md §3: "no more than once per 30 days").
const NameChangeCooldown = 30 * 24 * time.Hour

// EmailChangeRequestTTL is the lifetime of a pending email-change request
// (spec.md §3).
const EmailChangeRequestTTL = time.Hour
