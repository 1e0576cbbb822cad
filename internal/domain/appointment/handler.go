package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentwise/dentwise/internal/platform/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.ListAll)
	api.GET("/appointments/mine", h.ListMine)
	api.GET("/appointments/stats", h.Stats)
	api.GET("/doctors/:id/booked-slots", h.BookedSlots)
}

// Book handles POST /appointments.
func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	details, err := h.service.Book(ctx, auth.ExternalIDFromContext(ctx), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, details)
}

// ListAll handles GET /appointments.
func (h *Handler) ListAll(c echo.Context) error {
	items, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListMine handles GET /appointments/mine.
func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.service.ListForUser(ctx, auth.ExternalIDFromContext(ctx))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Stats handles GET /appointments/stats.
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.service.UserStats(ctx, auth.ExternalIDFromContext(ctx))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// BookedSlots handles GET /doctors/:id/booked-slots?date=YYYY-MM-DD.
func (h *Handler) BookedSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid doctor id"})
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	slots := h.service.BookedSlots(c.Request().Context(), doctorID, date)
	return c.JSON(http.StatusOK, echo.Map{"bookedSlots": slots})
}

func writeError(c echo.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error()})
	case errors.Is(err, ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrUnauthenticated.Error()})
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrDoctorNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}
