// Package notification provides confirmation-email dispatch with template
// rendering, in-memory delivery records, retry, and an Echo HTTP handler.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Notification
// ---------------------------------------------------------------------------

// Notification represents a single outbound email.
type Notification struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for delivering email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AppointmentConfirmationTemplateID is the built-in template used after a
// successful booking.
const AppointmentConfirmationTemplateID = "appointment-confirmation"

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      AppointmentConfirmationTemplateID,
			Name:    "Appointment Confirmation",
			Subject: "Appointment Confirmation - DentWise",
			Body: "Your appointment with {{doctor_name}} on {{appointment_date}} at {{appointment_time}} is confirmed. " +
				"Type: {{appointment_type}}, duration: {{duration}}, price: {{price}}.",
		},
		{
			ID:      "appointment-reminder",
			Name:    "Appointment Reminder",
			Subject: "Appointment Reminder - DentWise",
			Body:    "This is a reminder of your appointment with {{doctor_name}} on {{appointment_date}} at {{appointment_time}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------------

// HTTPEmailSender delivers email through a mail provider's REST API
// (a JSON POST with a bearer key, the way Resend-style providers work).
type HTTPEmailSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPEmailSender creates a sender that POSTs to apiURL/emails.
func NewHTTPEmailSender(apiURL, apiKey, from string) *HTTPEmailSender {
	return &HTTPEmailSender{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendEmail implements EmailSender.
func (s *HTTPEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s/emails: %w", s.apiURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

// Mailer orchestrates rendering, sending, and retrieval of notifications.
type Mailer struct {
	sender        EmailSender
	templates     *TemplateEngine
	logger        zerolog.Logger
	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewMailer constructs a Mailer.
func NewMailer(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{
		sender:        sender,
		templates:     tpl,
		logger:        logger,
		notifications: make(map[string]*Notification),
	}
}

// Send dispatches a notification, assigns an ID and timestamps, and persists
// the result in-memory.
func (m *Mailer) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	sendErr := m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Mailer) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}

	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// SendAppointmentConfirmation fires a confirmation email without blocking the
// caller. Delivery failure is logged and never propagated: booking success is
// independent of email-send success.
func (m *Mailer) SendAppointmentConfirmation(recipient string, data map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := m.SendFromTemplate(ctx, AppointmentConfirmationTemplateID, data, recipient); err != nil {
			m.logger.Error().Err(err).Str("recipient", recipient).Msg("failed to send appointment confirmation")
		}
	}()
}

// Get retrieves a notification by ID.
func (m *Mailer) Get(id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// Retry re-sends a failed notification. Returns an error if the notification
// is not in "failed" status.
func (m *Mailer) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	sendErr := m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)

	m.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()

	return sendErr
}

// Stats returns counts of notifications grouped by status.
func (m *Mailer) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range m.notifications {
		stats[n.Status]++
	}
	return stats
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// Handler exposes email dispatch over HTTP via Echo.
type Handler struct {
	mailer *Mailer
}

// NewHandler creates a new Handler.
func NewHandler(mailer *Mailer) *Handler {
	return &Handler{mailer: mailer}
}

// RegisterRoutes mounts the email endpoints on the given group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/emails/appointment-confirmation", h.SendAppointmentConfirmation)
}

// appointmentEmailRequest mirrors the confirmation payload the booking UI
// sends after a successful booking.
type appointmentEmailRequest struct {
	UserEmail       string `json:"userEmail"`
	DoctorName      string `json:"doctorName"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	AppointmentType string `json:"appointmentType"`
	Duration        string `json:"duration"`
	Price           string `json:"price"`
}

// SendAppointmentConfirmation validates the payload and dispatches the
// confirmation email synchronously. A provider failure is reported with a
// generic message; the booking that triggered it is unaffected.
func (h *Handler) SendAppointmentConfirmation(c echo.Context) error {
	var req appointmentEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserEmail == "" || req.DoctorName == "" || req.AppointmentDate == "" || req.AppointmentTime == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required fields")
	}

	n, err := h.mailer.SendFromTemplate(c.Request().Context(), AppointmentConfirmationTemplateID, map[string]string{
		"doctor_name":      req.DoctorName,
		"appointment_date": req.AppointmentDate,
		"appointment_time": req.AppointmentTime,
		"appointment_type": req.AppointmentType,
		"duration":         req.Duration,
		"price":            req.Price,
	}, req.UserEmail)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send email")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Email sent successfully",
		"emailId": n.ID,
	})
}
