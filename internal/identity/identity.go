// Package identity issues and verifies the bearer tokens the API consumes,
// and models the three capability-scoped identities (admin, doctor, patient)
// as one tagged Actor value carried in the request context.
package identity

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Actor is the authenticated caller. For admins the ID is uuid.Nil; the admin
// identity is the configured credential pair, not a stored record.
type Actor struct {
	Role Role
	ID   uuid.UUID
}
