package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestMailer(sender EmailSender) *Mailer {
	return NewMailer(sender, NewTemplateEngine(), zerolog.Nop())
}

func TestTemplateEngine_Render(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render(AppointmentConfirmationTemplateID, map[string]string{
		"doctor_name":      "Dr. Smith",
		"appointment_date": "2024-06-01",
		"appointment_time": "10:00",
		"appointment_type": "Cleaning",
		"duration":         "30 min",
		"price":            "$80",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Appointment Confirmation - DentWise" {
		t.Errorf("unexpected subject: %s", subject)
	}
	if !strings.Contains(body, "Dr. Smith") || !strings.Contains(body, "2024-06-01") || !strings.Contains(body, "10:00") {
		t.Errorf("rendered body missing data: %s", body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestTemplateEngine_MissingKeysLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render(AppointmentConfirmationTemplateID, map[string]string{
		"doctor_name": "Dr. Smith",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "{{appointment_date}}") {
		t.Errorf("expected unreplaced placeholder to remain, got: %s", body)
	}
}

func TestMailer_SendFromTemplate(t *testing.T) {
	sender := &MockEmailSender{}
	m := newTestMailer(sender)

	n, err := m.SendFromTemplate(context.Background(), AppointmentConfirmationTemplateID,
		map[string]string{"doctor_name": "Dr. Smith"}, "patient@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != "sent" {
		t.Errorf("expected status sent, got %s", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected SentAt to be set")
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 send call, got %d", len(calls))
	}
	if calls[0].To != "patient@example.com" {
		t.Errorf("unexpected recipient: %s", calls[0].To)
	}
}

func TestMailer_SendFailureRecorded(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	m := newTestMailer(sender)

	n, err := m.SendFromTemplate(context.Background(), AppointmentConfirmationTemplateID, nil, "patient@example.com")
	if err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" {
		t.Errorf("expected status failed, got %s", n.Status)
	}
	if n.Error != "smtp down" {
		t.Errorf("expected recorded error, got %q", n.Error)
	}
}

func TestMailer_Retry(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	m := newTestMailer(sender)

	n, _ := m.SendFromTemplate(context.Background(), AppointmentConfirmationTemplateID, nil, "patient@example.com")

	sender.ShouldFail = false
	if err := m.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected retry error: %v", err)
	}

	got, err := m.Get(n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "sent" {
		t.Errorf("expected status sent after retry, got %s", got.Status)
	}

	// Retrying a sent notification is rejected
	if err := m.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestHTTPEmailSender_SendEmail(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPEmailSender(srv.URL, "mail-key", "DentWise <no-reply@dentwise.local>")
	if err := sender.SendEmail(context.Background(), "patient@example.com", "subject", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer mail-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotPayload["subject"] != "subject" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
}

func TestHTTPEmailSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sender := NewHTTPEmailSender(srv.URL, "mail-key", "from")
	if err := sender.SendEmail(context.Background(), "to", "s", "b"); err == nil {
		t.Fatal("expected error for non-2xx provider response")
	}
}

func TestHandler_SendAppointmentConfirmation(t *testing.T) {
	sender := &MockEmailSender{}
	h := NewHandler(newTestMailer(sender))
	e := echo.New()

	body := `{"userEmail":"patient@example.com","doctorName":"Dr. Smith","appointmentDate":"2024-06-01","appointmentTime":"10:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SendAppointmentConfirmation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(sender.Calls()) != 1 {
		t.Errorf("expected 1 send call, got %d", len(sender.Calls()))
	}
}

func TestHandler_SendAppointmentConfirmation_MissingFields(t *testing.T) {
	sender := &MockEmailSender{}
	h := NewHandler(newTestMailer(sender))
	e := echo.New()

	body := `{"userEmail":"patient@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SendAppointmentConfirmation(c)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
	if len(sender.Calls()) != 0 {
		t.Error("expected no send calls for invalid payload")
	}
}

func TestHandler_SendAppointmentConfirmation_SenderFailure(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "provider down"}
	h := NewHandler(newTestMailer(sender))
	e := echo.New()

	body := `{"userEmail":"patient@example.com","doctorName":"Dr. Smith","appointmentDate":"2024-06-01","appointmentTime":"10:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SendAppointmentConfirmation(c)
	if err == nil {
		t.Fatal("expected error for sender failure")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
	if httpErr.Message != "failed to send email" {
		t.Errorf("expected generic message, got %v", httpErr.Message)
	}
}
