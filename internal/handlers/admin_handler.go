package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// AdminHandler serves administrative announcements and account actions.
// Its routes must be mounted behind middleware.RequireRole(models.RoleAdmin).
type AdminHandler struct {
	userRepository repositories.UserRepository
	notifier       *notify.Service
}

func NewAdminHandler(userRepo repositories.UserRepository, notifier *notify.Service) *AdminHandler {
	return &AdminHandler{
		userRepository: userRepo,
		notifier:       notifier,
	}
}

func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/broadcast", h.Broadcast)
	g.POST("/users/:id/suspend", h.SuspendUser)
}

// Broadcast sends an announcement to the listed recipients, or to every
// connected user when none are listed.
func (h *AdminHandler) Broadcast(c echo.Context) error {
	var req models.AdminBroadcastRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	stored, err := h.notifier.BroadcastAdmin(c.Request().Context(), req.Recipients, req.Title, req.Body, req.Link)
	if errors.Is(err, notify.ErrNoRecipient) {
		return echo.NewHTTPError(http.StatusBadRequest, "Recipients must not be blank")
	}
	if err != nil {
		return repoError(err, "Notification")
	}

	logging.Info().
		Str("admin", getIdentityFromContext(c)).
		Int("stored", stored).
		Msg("admin broadcast sent")

	return success(c, http.StatusAccepted, echo.Map{
		"stored":    stored,
		"ephemeral": len(req.Recipients) == 0,
	})
}

// SuspendUser flags an account as suspended and notifies its owner
func (h *AdminHandler) SuspendUser(c echo.Context) error {
	var req models.SuspendUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByIdentity(c.Param("id"))
	if err != nil {
		return repoError(err, "User")
	}
	if user.Role == models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Admins cannot be suspended")
	}

	if err := h.userRepository.SetSuspended(user.ID, true); err != nil {
		return repoError(err, "User")
	}

	if _, err := h.notifier.NotifySuspension(c.Request().Context(), user.Identity(), req.Reason); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"suspended": true})
}
