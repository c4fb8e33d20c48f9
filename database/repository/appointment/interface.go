package appointmentRepo

import (
	"context"

	"mediq/models"
)

// AppointmentRepository persists confirmed bookings. These records are what
// the admin panel reads.
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error

	GetByID(ctx context.Context, id string) (*models.Appointment, error)

	// List filters by doctor and/or date; empty values mean no filter.
	List(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
}
