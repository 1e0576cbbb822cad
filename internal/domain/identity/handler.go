package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dentwise/dentwise/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me", h.Me)
}

// Me resolves (and lazily creates) the local user for the authenticated
// principal.
func (h *Handler) Me(c echo.Context) error {
	externalID := auth.ExternalIDFromContext(c.Request().Context())
	if externalID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	u, err := h.svc.EnsureUser(c.Request().Context(), externalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve user")
	}
	return c.JSON(http.StatusOK, u)
}
