package booking

import (
	"context"

	"mediq/models"
)

// EventEmitter publishes fire-and-forget audit/notification hooks to the
// surrounding application. Failures are logged, never propagated into the
// booking path.
type EventEmitter interface {
	BookingConfirmed(ctx context.Context, a *models.Appointment)
	HoldPlaced(ctx context.Context, sessionID string, pb *models.PendingBooking)
	HoldReleased(ctx context.Context, sessionID string, pb *models.PendingBooking)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) BookingConfirmed(context.Context, *models.Appointment)        {}
func (NopEmitter) HoldPlaced(context.Context, string, *models.PendingBooking)   {}
func (NopEmitter) HoldReleased(context.Context, string, *models.PendingBooking) {}
