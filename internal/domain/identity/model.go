package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is the local identity record for an externally authenticated
// principal. Rows are created lazily on first sight of an external id and
// never deleted by this workflow.
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Email      string    `db:"email" json:"email"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

var (
	// ErrNotFound is returned when no user row matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateExternalID is returned when an insert loses the
	// first-creation race on the external_id unique constraint.
	ErrDuplicateExternalID = errors.New("duplicate external id")
)
