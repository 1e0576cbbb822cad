package appointment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentwise/dentwise/internal/domain/doctor"
	"github.com/dentwise/dentwise/internal/domain/identity"
)

// DefaultReason is used when a booking omits the free-text reason.
const DefaultReason = "General consultation"

// UserDirectory resolves external principals to local user rows. EnsureUser
// lazily creates; GetUser does not.
type UserDirectory interface {
	EnsureUser(ctx context.Context, externalID string) (*identity.User, error)
	GetUser(ctx context.Context, externalID string) (*identity.User, error)
}

// DoctorDirectory reads practitioner rows.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// ConfirmationSender dispatches a booking-confirmation email without
// blocking. Delivery failure never reaches the booking caller.
type ConfirmationSender interface {
	SendAppointmentConfirmation(recipient string, data map[string]string)
}

type Service struct {
	appointments Repository
	users        UserDirectory
	doctors      DoctorDirectory
	confirmer    ConfirmationSender
	logger       zerolog.Logger
}

func NewService(appointments Repository, users UserDirectory, doctors DoctorDirectory, confirmer ConfirmationSender, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		users:        users,
		doctors:      doctors,
		confirmer:    confirmer,
		logger:       logger,
	}
}

// BookingRequest carries the booking input. Date is a calendar-date string
// (YYYY-MM-DD); Time is an opaque slot token passed through unchanged.
type BookingRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Reason   string    `json:"reason"`
}

// Book validates the request, resolves the principal's existing local user
// (no lazy create here: booking requires a pre-existing row, unlike the
// listing paths) and inserts a CONFIRMED appointment.
//
// No slot re-check happens at insert time: callers are expected to have
// consulted BookedSlots first, and two concurrent bookings for the same slot
// can both succeed. Closing that race takes a unique partial index or a
// transactional re-check; the schema ships the index commented out.
func (s *Service) Book(ctx context.Context, externalUserID string, req BookingRequest) (*Details, error) {
	if externalUserID == "" {
		return nil, ErrUnauthenticated
	}
	if req.DoctorID == uuid.Nil {
		return nil, &ValidationError{Field: "doctor_id", Msg: "is required"}
	}
	if req.Date == "" {
		return nil, &ValidationError{Field: "date", Msg: "is required"}
	}
	if req.Time == "" {
		return nil, &ValidationError{Field: "time", Msg: "is required"}
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, &ValidationError{Field: "date", Msg: "must be a YYYY-MM-DD calendar date"}
	}

	user, err := s.users.GetUser(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("external_id", externalUserID).Msg("booking: user lookup failed")
		return nil, ErrBookingFailed
	}

	doc, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		s.logger.Error().Err(err).Str("doctor_id", req.DoctorID.String()).Msg("booking: doctor lookup failed")
		return nil, ErrBookingFailed
	}

	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}

	appt := &Appointment{
		UserID:   user.ID,
		DoctorID: doc.ID,
		Date:     date,
		TimeSlot: req.Time,
		Reason:   reason,
		Status:   StatusConfirmed,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		s.logger.Error().Err(err).
			Str("doctor_id", doc.ID.String()).
			Str("date", req.Date).
			Str("time", req.Time).
			Msg("booking: insert failed")
		return nil, ErrBookingFailed
	}

	details := Normalize(&Record{
		Appointment:      *appt,
		PatientFirstName: user.FirstName,
		PatientLastName:  user.LastName,
		PatientEmail:     user.Email,
		DoctorName:       doc.Name,
		DoctorImageURL:   doc.ImageURL,
	})

	if s.confirmer != nil && user.Email != "" {
		s.confirmer.SendAppointmentConfirmation(user.Email, map[string]string{
			"doctor_name":      doc.Name,
			"appointment_date": details.Date,
			"appointment_time": details.Time,
			"appointment_type": reason,
			"duration":         "",
			"price":            "",
		})
	}

	return &details, nil
}

// BookedSlots returns the time tokens already occupied for the doctor on the
// given day. The time-of-day component of date is normalized away before the
// comparison. Query failures fail open with an empty slice so the booking UI
// degrades to "no known conflicts" instead of breaking; during an outage this
// can hide real conflicts.
func (s *Service) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) []string {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	times, err := s.appointments.BookedTimes(ctx, doctorID, day)
	if err != nil {
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("booked-slots query failed, failing open")
		return []string{}
	}
	if times == nil {
		return []string{}
	}
	return times
}

// ListAll returns every appointment system-wide, newest-created first.
func (s *Service) ListAll(ctx context.Context) ([]Details, error) {
	records, err := s.appointments.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list all appointments failed")
		return nil, ErrFetchFailed
	}
	return normalizeAll(records), nil
}

// ListForUser returns the principal's appointments ordered by date then time.
// The local user is lazily created on first sight.
func (s *Service) ListForUser(ctx context.Context, externalUserID string) ([]Details, error) {
	if externalUserID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.EnsureUser(ctx, externalUserID)
	if err != nil {
		s.logger.Error().Err(err).Str("external_id", externalUserID).Msg("list: user resolution failed")
		return nil, ErrFetchFailed
	}

	records, err := s.appointments.ListByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("list user appointments failed")
		return nil, ErrFetchFailed
	}
	return normalizeAll(records), nil
}

// UserStats returns the principal's total and completed appointment counts.
// The two counts run concurrently; there is no dependency between them.
// Persistence failures fail open with zeros so a backend hiccup degrades the
// dashboard widget instead of breaking the page.
func (s *Service) UserStats(ctx context.Context, externalUserID string) (Stats, error) {
	if externalUserID == "" {
		return Stats{}, ErrUnauthenticated
	}

	user, err := s.users.EnsureUser(ctx, externalUserID)
	if err != nil {
		s.logger.Error().Err(err).Str("external_id", externalUserID).Msg("stats: user resolution failed, failing open")
		return Stats{}, nil
	}

	var (
		wg                 sync.WaitGroup
		total, completed   int
		totalErr, complErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		total, totalErr = s.appointments.CountByUser(ctx, user.ID)
	}()
	go func() {
		defer wg.Done()
		completed, complErr = s.appointments.CountByUserAndStatus(ctx, user.ID, StatusCompleted)
	}()
	wg.Wait()

	if totalErr != nil || complErr != nil {
		s.logger.Error().
			AnErr("total_err", totalErr).
			AnErr("completed_err", complErr).
			Str("user_id", user.ID.String()).
			Msg("stats queries failed, failing open")
		return Stats{}, nil
	}

	return Stats{TotalAppointments: total, CompletedAppointments: completed}, nil
}

func normalizeAll(records []*Record) []Details {
	out := make([]Details, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}
