package appointment

import "errors"

var (
	// ErrUnauthenticated is returned when an operation requiring a principal
	// is called without one.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUserNotFound is returned by booking when the principal has no local
	// user row. Booking deliberately does not auto-create: only the listing
	// and stats paths do.
	ErrUserNotFound = errors.New("user not found")
	// ErrDoctorNotFound is returned when the requested practitioner does not
	// exist.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrBookingFailed is the opaque failure surfaced to callers when the
	// insert fails; the underlying cause is logged, not propagated.
	ErrBookingFailed = errors.New("failed to book appointment")
	// ErrFetchFailed is the opaque failure surfaced by the listing paths.
	ErrFetchFailed = errors.New("failed to fetch appointments")
)

// ValidationError reports missing or malformed booking input. Unlike the
// opaque failures above it carries detail the caller may show to the end
// user.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}
