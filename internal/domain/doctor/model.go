package doctor

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Doctor is a practitioner record. Managed through the admin endpoints;
// read-only from the booking workflow's perspective.
type Doctor struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Speciality string    `db:"speciality" json:"speciality"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	ImageURL   string    `db:"image_url" json:"image_url"`
	Gender     string    `db:"gender" json:"gender"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	// AppointmentCount is maintained by a trigger on appointment inserts,
	// not by application code.
	AppointmentCount int       `db:"appointment_count" json:"appointment_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ErrNotFound is returned when no doctor row matches the lookup.
var ErrNotFound = errors.New("doctor not found")
