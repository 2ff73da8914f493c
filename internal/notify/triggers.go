package notify

import (
	"context"

	"github.com/anonto42/socialpulse/backend/internal/models"
)

// NotifyFollow tells followee that follower started following them.
func (s *Service) NotifyFollow(ctx context.Context, follower *models.User, followee string) (*models.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient: followee,
		Sender:    follower.Identity(),
		Category:  models.CategoryNewFollower,
		Title:     follower.Label() + " started following you",
		Link:      "/users/" + follower.Identity(),
		RefID:     follower.Identity(),
		RefKind:   models.RefUser,
	})
}

// NotifyReaction tells the post author that actor reacted to the post.
func (s *Service) NotifyReaction(ctx context.Context, actor *models.User, post *models.Post) (*models.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient: post.Author,
		Sender:    actor.Identity(),
		Category:  models.CategoryNewReaction,
		Title:     actor.Label() + " liked your post",
		Body:      post.Content,
		Link:      "/posts/" + post.ID.Hex(),
		RefID:     post.ID.Hex(),
		RefKind:   models.RefPost,
	})
}

// NotifyComment tells the post author that actor commented on the post.
func (s *Service) NotifyComment(ctx context.Context, actor *models.User, post *models.Post, comment string) (*models.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient: post.Author,
		Sender:    actor.Identity(),
		Category:  models.CategoryNewComment,
		Title:     actor.Label() + " commented on your post",
		Body:      comment,
		Link:      "/posts/" + post.ID.Hex(),
		RefID:     post.ID.Hex(),
		RefKind:   models.RefPost,
	})
}

// NotifyNewPost tells the author's followers about a new post.
func (s *Service) NotifyNewPost(ctx context.Context, author *models.User, post *models.Post, followers []string) (int, error) {
	stored, err := s.NotifyMany(ctx, followers, Input{
		Sender:   author.Identity(),
		Category: models.CategoryNewPost,
		Title:    author.Label() + " shared a new post",
		Body:     post.Content,
		Link:     "/posts/" + post.ID.Hex(),
		RefID:    post.ID.Hex(),
		RefKind:  models.RefPost,
	})
	return len(stored), err
}

// NotifySuspension sends a system notification about an account suspension.
func (s *Service) NotifySuspension(ctx context.Context, user, reason string) (*models.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient: user,
		Category:  models.CategorySystem,
		Title:     "Your account has been suspended",
		Body:      reason,
	})
}
