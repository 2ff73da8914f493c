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

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	notifier         *notify.Service
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, followRepo repositories.FollowRepository, notifier *notify.Service) *PostHandler {
	return &PostHandler{
		postRepository:   postRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
		notifier:         notifier,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost stores a post and notifies the author's followers
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthenticated()
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return repoError(err, "User")
	}

	post := &models.Post{
		Author:    author.Identity(),
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return repoError(err, "Post")
	}

	followerIDs, err := h.followRepository.GetFollowerIDs(currentUserID)
	if err != nil {
		logging.Error().Err(err).Uint("author", currentUserID).Msg("failed to load followers")
		return success(c, http.StatusCreated, post)
	}
	followers := make([]string, len(followerIDs))
	for i, id := range followerIDs {
		followers[i] = strconv.FormatUint(uint64(id), 10)
	}
	if _, err := h.notifier.NotifyNewPost(c.Request().Context(), author, post, followers); err != nil {
		return repoError(err, "Notification")
	}

	return success(c, http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repoError(err, "Post")
	}
	return success(c, http.StatusOK, post)
}

// GetPosts lists posts, optionally filtered by author
func (h *PostHandler) GetPosts(c echo.Context) error {
	skip, limit := paging(c)

	var (
		posts []models.Post
		err   error
	)
	if author := c.QueryParam("user_id"); author != "" {
		posts, err = h.postRepository.GetPostsByAuthor(c.Request().Context(), author, skip, limit)
	} else {
		posts, err = h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	}
	if err != nil {
		return repoError(err, "Post")
	}

	return success(c, http.StatusOK, posts)
}

// DeletePost deletes one of the caller's posts
func (h *PostHandler) DeletePost(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return repoError(err, "Post")
	}
	if post.Author != me {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return repoError(err, "Post")
	}

	return c.NoContent(http.StatusNoContent)
}
