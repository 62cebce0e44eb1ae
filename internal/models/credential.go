package models

import "time"

// Credential is a single-use login code issued to an email address.
// At most one live credential exists per email; issuing a new one
// replaces any outstanding record.
type Credential struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
