package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	users                  notify.UserDirectory
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, users notify.UserDirectory) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		users:                  users,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/read", h.ClearRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// views resolves each sender once per page.
func (h *NotificationHandler) views(c echo.Context, notifications []models.Notification) []models.NotificationView {
	views := make([]models.NotificationView, len(notifications))
	senders := make(map[string]*models.UserCompact)

	for i := range notifications {
		n := &notifications[i]
		var sender *models.UserCompact
		if n.Sender != nil {
			cached, seen := senders[*n.Sender]
			if !seen {
				compact, err := h.users.Compact(c.Request().Context(), *n.Sender)
				if err != nil {
					compact = &models.UserCompact{ID: *n.Sender}
				}
				senders[*n.Sender] = compact
				cached = compact
			}
			sender = cached
		}
		views[i] = n.View(sender)
	}
	return views
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipient(c.Request().Context(), recipient, page, limit)
	if err != nil {
		return repoError(err, "Notification")
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.views(c, notifications),
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	count, err := h.notificationRepository.CountUnread(c.Request().Context(), recipient)
	if err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), c.Param("id"), recipient); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"read": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), recipient)
	if err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	if err := h.notificationRepository.Delete(c.Request().Context(), c.Param("id"), recipient); err != nil {
		return repoError(err, "Notification")
	}

	return c.NoContent(http.StatusNoContent)
}

// ClearRead deletes every read notification of the caller
func (h *NotificationHandler) ClearRead(c echo.Context) error {
	recipient := getIdentityFromContext(c)
	if recipient == "" {
		return unauthenticated()
	}

	deleted, err := h.notificationRepository.DeleteRead(c.Request().Context(), recipient)
	if err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"deleted": deleted})
}
