package sessionRepo

import (
	"context"
	"time"

	"mediq/models"
)

// SessionRepository persists conversation sessions. Sessions are upserted on
// every turn and never deleted; abandoned sessions stay readable for audit.
type SessionRepository interface {
	// Get fetches a session by its opaque id; returns (nil, nil) when the id
	// has never been seen.
	Get(ctx context.Context, sessionID string) (*models.IntakeSession, error)

	// Put upserts the full session document.
	Put(ctx context.Context, s *models.IntakeSession) error

	// ListIdle returns non-terminal sessions whose last activity predates
	// the cutoff. Used by the abandonment sweeper.
	ListIdle(ctx context.Context, cutoff time.Time) ([]models.IntakeSession, error)
}
