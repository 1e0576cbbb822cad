package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	// ListAll returns every appointment with relations, newest-created first.
	ListAll(ctx context.Context) ([]*Record, error)
	// ListByUser returns a user's appointments ordered by date then time slot.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error)
	// BookedTimes returns the time tokens occupied on the given day by
	// appointments in a blocking status.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountByUserAndStatus(ctx context.Context, userID uuid.UUID, status Status) (int, error)
}
