// Package identity models the user record owned by the external identity
// provider. The record is read-only to this system.
package identity

// User is the external identity record for an authenticated user.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}
