package handlers

import (
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifier         *notify.Service
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifier *notify.Service) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifier:         notifier,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user and notifies them
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}

	target, err := h.userRepository.GetUserByIdentity(c.Param("id"))
	if err != nil {
		return repoError(err, "User")
	}
	if currentUserID == target.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	isFollowing, err := h.followRepository.IsFollowing(currentUserID, target.ID)
	if err != nil {
		return repoError(err, "Follow")
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{
		FollowerID:  currentUserID,
		FollowingID: target.ID,
	}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		return repoError(err, "Follow")
	}

	actor, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		actor = &models.User{ID: currentUserID}
	}
	if _, err := h.notifier.NotifyFollow(c.Request().Context(), actor, target.Identity()); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}

	targetID, err := repositories.ParseUserID(c.Param("id"))
	if err != nil {
		return repoError(err, "User")
	}

	if err := h.followRepository.DeleteFollow(currentUserID, targetID); err != nil {
		return repoError(err, "Follow")
	}

	return success(c, http.StatusOK, echo.Map{"following": false})
}
