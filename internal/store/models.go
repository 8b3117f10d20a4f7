package store

import (
	"encoding/json"
	"time"
)

// User is one of the fixed identities provisioned behind the access codes.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CompanyRecord is the persisted company document row. One record per
// deployment, keyed by a fixed id.
type CompanyRecord struct {
	ID        string
	Data      json.RawMessage
	UpdatedAt time.Time
}
