package model

import "github.com/google/uuid"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Caller is the pre-resolved identity of whoever issued the request. The
// core never authenticates; it only trusts what the auth middleware resolved.
type Caller struct {
	ID    uuid.UUID `json:"id"`
	Role  Role      `json:"role"`
	Email string    `json:"email"`
}

func (c Caller) IsPatient() bool { return c.Role == RolePatient && c.ID != uuid.Nil }
func (c Caller) IsDoctor() bool  { return c.Role == RoleDoctor && c.ID != uuid.Nil }
