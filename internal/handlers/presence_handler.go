package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Presence answers who currently has an identified connection.
type Presence interface {
	OnlineUsers(ctx context.Context) ([]string, error)
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type PresenceHandler struct {
	presence Presence
}

func NewPresenceHandler(presence Presence) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

func (h *PresenceHandler) RegisterPresenceRoutes(g *echo.Group) {
	g.GET("/presence/online", h.GetOnlineUsers)
	g.GET("/presence/:id", h.GetUserPresence)
}

func (h *PresenceHandler) GetOnlineUsers(c echo.Context) error {
	users, err := h.presence.OnlineUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"users": users, "count": len(users)})
}

func (h *PresenceHandler) GetUserPresence(c echo.Context) error {
	userID := c.Param("id")
	online, err := h.presence.IsOnline(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"userId": userID, "online": online})
}
