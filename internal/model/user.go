package model

import (
	"encoding/json"
	"fmt"
)

// AuthProvider is the identity provider a user signed up with.
// The set is closed: the API only issues accounts through these providers.
type AuthProvider string

const (
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

// Valid reports whether p is one of the known providers.
func (p AuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGitHub:
		return true
	}
	return false
}

// UnmarshalJSON rejects providers outside the closed set.
// An empty value is tolerated: list endpoints sometimes project it away.
func (p *AuthProvider) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := AuthProvider(s)
	if v != "" && !v.Valid() {
		return fmt.Errorf("model: unknown auth provider %q", s)
	}
	*p = v
	return nil
}

// User is the author of a snippet. The client never edits users.
type User struct {
	ID             string       `json:"_id"`
	ProviderUserID string       `json:"user_provider_id,omitempty"`
	Username       string       `json:"username"`
	Email          string       `json:"email"`
	AuthProvider   AuthProvider `json:"authProvider,omitempty"`
	ProfileImage   string       `json:"profileImage,omitempty"`
}
