package doctorRepo

import (
	"context"

	"mediq/models"
)

// DoctorRepository is the read-only doctor directory. Doctor records are
// owned by the admin subsystem; the intake engine only reads them.
type DoctorRepository interface {
	// GetByID fetches a doctor; returns (nil, nil) for an unknown id.
	GetByID(ctx context.Context, doctorID string) (*models.Doctor, error)

	ListBySpecialty(ctx context.Context, specialty models.Specialty) ([]models.Doctor, error)

	ListAll(ctx context.Context) ([]models.Doctor, error)
}
