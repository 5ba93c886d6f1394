package patient

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

type Patient struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the slice of a patient record joined into booking listings.
type Summary struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  Role
}

func (p *Patient) Summary() Summary {
	return Summary{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}
