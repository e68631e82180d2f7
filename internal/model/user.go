// Package model defines the data structures used throughout the application.
package model

// User represents a registered account.
//
// Usernames are unique and immutable after registration — posts reference
// their author by username, so letting it change would orphan them.
//
// PasswordHash holds a bcrypt hash, never the plaintext. It is empty for
// accounts created through GitHub sign-in; such accounts cannot log in with
// a password at all (an empty hash verifies against nothing).
//
// The json tag on PasswordHash is "-" so the credential can never leak
// through an API response, no matter which handler serializes the struct.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	PasswordHash string `json:"-"`
}
