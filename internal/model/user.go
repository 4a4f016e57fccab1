package model

import (
	"encoding/json"
	"time"
)

// User is the principal resolved from a bearer token by the managed auth
// provider. It is never stored by this service.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

// DisplayName falls back to "User" when the provider has no full name.
func (u *User) DisplayName() string {
	if name, ok := u.UserMetadata["full_name"].(string); ok && name != "" {
		return name
	}
	return "User"
}

// AuthSession is the token bundle returned by the auth provider on sign-in.
// It is relayed to the client untouched.
type AuthSession = json.RawMessage
