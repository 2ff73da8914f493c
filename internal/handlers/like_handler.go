package handlers

import (
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	notifier       *notify.Service
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *notify.Service) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		notifier:       notifier,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
}

// LikePost likes a post and notifies its author
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return repoError(err, "Post")
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return repoError(err, "Like")
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}
	if err := h.likeRepository.CreateLike(like); err != nil {
		return repoError(err, "Like")
	}

	if err := h.postRepository.AddLikes(ctx, postID, 1); err != nil {
		logging.Warn().Err(err).Str("post", postID).Msg("failed to update likes count")
	}

	actor, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		actor = &models.User{ID: currentUserID}
	}
	if _, err := h.notifier.NotifyReaction(ctx, actor, post); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusCreated, like)
}

// UnlikePost removes the caller's like from a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}
	postID := c.Param("post_id")

	if err := h.likeRepository.DeleteLike(postID, currentUserID); err != nil {
		return repoError(err, "Like")
	}

	if err := h.postRepository.AddLikes(c.Request().Context(), postID, -1); err != nil {
		logging.Warn().Err(err).Str("post", postID).Msg("failed to update likes count")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetLikesCountForPost retrieves the total number of likes for a specific post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID := c.Param("post_id")

	count, err := h.likeRepository.CountByPost(postID)
	if err != nil {
		return repoError(err, "Like")
	}

	return success(c, http.StatusOK, echo.Map{"post_id": postID, "likes_count": count})
}
