package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status enumerates the lifecycle states of an appointment.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// BlockingStatuses are the statuses that count as occupying a time slot.
// Cancelled and no-show appointments free the slot again.
var BlockingStatuses = []Status{StatusConfirmed, StatusCompleted}

// Appointment maps to the appointments table.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"date" json:"date"`
	TimeSlot  string    `db:"time_slot" json:"time"`
	Reason    string    `db:"reason" json:"reason"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Record is an appointment joined with the display fields of its related
// user and doctor rows.
type Record struct {
	Appointment
	PatientFirstName string `db:"patient_first_name"`
	PatientLastName  string `db:"patient_last_name"`
	PatientEmail     string `db:"patient_email"`
	DoctorName       string `db:"doctor_name"`
	DoctorImageURL   string `db:"doctor_image_url"`
}

// Details is the denormalized appointment shape returned to clients. Both the
// booking response and the listing endpoints produce exactly this shape.
type Details struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	DoctorID       uuid.UUID `json:"doctor_id"`
	PatientName    string    `json:"patientName"`
	PatientEmail   string    `json:"patientEmail"`
	DoctorName     string    `json:"doctorName"`
	DoctorImageURL string    `json:"doctorImageUrl"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Reason         string    `json:"reason"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Normalize projects a joined record into the client-facing shape. The
// patient name is the trimmed concatenation of first and last name, so a user
// with empty names yields "" rather than a stray space. The date collapses to
// a calendar-date string; the time token passes through unchanged.
func Normalize(r *Record) Details {
	return Details{
		ID:             r.ID,
		UserID:         r.UserID,
		DoctorID:       r.DoctorID,
		PatientName:    strings.TrimSpace(r.PatientFirstName + " " + r.PatientLastName),
		PatientEmail:   r.PatientEmail,
		DoctorName:     r.DoctorName,
		DoctorImageURL: r.DoctorImageURL,
		Date:           r.Date.Format("2006-01-02"),
		Time:           r.TimeSlot,
		Reason:         r.Reason,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
}

// Stats is the dashboard widget payload.
type Stats struct {
	TotalAppointments     int `json:"totalAppointments"`
	CompletedAppointments int `json:"completedAppointments"`
}
