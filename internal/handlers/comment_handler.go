package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          *notify.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *notify.Service) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment comments on a post and notifies its author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}
	postID := c.Param("post_id")
	ctx := c.Request().Context()

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return repoError(err, "Post")
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  currentUserID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return repoError(err, "Comment")
	}

	if err := h.postRepository.AddComments(ctx, postID, 1); err != nil {
		logging.Warn().Err(err).Str("post", postID).Msg("failed to update comments count")
	}

	actor, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		actor = &models.User{ID: currentUserID}
	}
	if _, err := h.notifier.NotifyComment(ctx, actor, post, comment.Content); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusCreated, comment)
}

// GetCommentsByPostID lists a post's comments
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	comments, err := h.commentRepository.GetCommentsByPostID(c.Param("post_id"))
	if err != nil {
		return repoError(err, "Comment")
	}
	return success(c, http.StatusOK, comments)
}

// DeleteComment deletes one of the caller's comments
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(id))
	if err != nil {
		return repoError(err, "Comment")
	}
	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(comment.ID); err != nil {
		return repoError(err, "Comment")
	}

	if err := h.postRepository.AddComments(c.Request().Context(), comment.PostID, -1); err != nil {
		logging.Warn().Err(err).Str("post", comment.PostID).Msg("failed to update comments count")
	}

	return c.NoContent(http.StatusNoContent)
}
