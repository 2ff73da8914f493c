// Package notify creates durable notifications and pushes them to the
// recipient's live connections.
//
// Persistence is authoritative; the live push is at-most-once with no
// acknowledgement and no retry. A recipient without open connections simply
// misses the push and sees the record the next time it lists notifications.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
)

// ErrNoRecipient is returned when a notification has no recipient.
var ErrNoRecipient = errors.New("notify: recipient is required")

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateMany(ctx context.Context, ns []*models.Notification) error
	UpsertUnreadMessage(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Publisher delivers events to live connections. Both calls are
// fire-and-forget.
type Publisher interface {
	PublishToUser(userID string, eventType string, data any)
	Broadcast(eventType string, data any)
}

// UserDirectory resolves identities to display fields.
type UserDirectory interface {
	Compact(ctx context.Context, identity string) (*models.UserCompact, error)
}

// Input describes one notification. An empty Sender marks a system or admin
// notification.
type Input struct {
	Recipient string
	Sender    string
	Category  models.NotificationCategory
	Title     string
	Body      string
	Link      string
	RefID     string
	RefKind   models.RefKind
}

// Service is the notification fan-out.
type Service struct {
	store     Store
	publisher Publisher
	users     UserDirectory
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates a Service. A non-positive ttl selects
// models.DefaultNotificationTTL. users may be nil, in which case senders are
// published with their identity only.
func NewService(store Store, publisher Publisher, users UserDirectory, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = models.DefaultNotificationTTL
	}
	return &Service{
		store:     store,
		publisher: publisher,
		users:     users,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Notify stores a notification and pushes it to the recipient. A
// notification whose sender is its recipient is suppressed: nothing is
// stored or pushed and Notify returns (nil, nil).
func (s *Service) Notify(ctx context.Context, in Input) (*models.Notification, error) {
	if in.Recipient == "" {
		return nil, ErrNoRecipient
	}
	if isSelf(in.Sender, in.Recipient) {
		return nil, nil
	}

	n := s.build(in)
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	s.publish(ctx, n, "")
	return n, nil
}

// NotifyMany stores one notification per distinct recipient and pushes each
// to its recipient. Empty recipients and the sender itself are skipped.
func (s *Service) NotifyMany(ctx context.Context, recipients []string, in Input) ([]*models.Notification, error) {
	seen := make(map[string]struct{}, len(recipients))
	batch := make([]*models.Notification, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" || isSelf(in.Sender, r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}

		in.Recipient = r
		batch = append(batch, s.build(in))
	}
	if len(batch) == 0 {
		return nil, nil
	}

	if err := s.store.CreateMany(ctx, batch); err != nil {
		return nil, err
	}
	for _, n := range batch {
		s.publish(ctx, n, "")
	}
	return batch, nil
}

// UpsertMessageNotification keeps a single unread new_message notification
// per (sender, recipient, conversation). A message arriving while that
// notification is unread refreshes its title, body, link and expiry in place;
// once it has been read, the next message creates a new one. The resulting
// record is pushed to the recipient either way.
func (s *Service) UpsertMessageNotification(ctx context.Context, recipient, sender, senderDisplayName, previewText, conversationID string) (*models.Notification, error) {
	if recipient == "" {
		return nil, ErrNoRecipient
	}
	if isSelf(sender, recipient) {
		return nil, nil
	}

	name := strings.TrimSpace(senderDisplayName)
	if name == "" {
		name = "someone"
	}
	n := s.build(Input{
		Recipient: recipient,
		Sender:    sender,
		Category:  models.CategoryNewMessage,
		Title:     "New message from " + name,
		Body:      previewText,
		Link:      "/messages/" + conversationID,
		RefID:     conversationID,
		RefKind:   models.RefConversation,
	})

	stored, err := s.store.UpsertUnreadMessage(ctx, n)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, stored, senderDisplayName)
	return stored, nil
}

// BroadcastAdmin sends an admin announcement. With no recipients it pushes a
// single ephemeral admin_broadcast event to every open connection and stores
// nothing. Otherwise it stores one notification per recipient and pushes each
// to its room. It returns the number of stored notifications, or
// ErrNoRecipient when recipients are listed but all of them are blank.
func (s *Service) BroadcastAdmin(ctx context.Context, recipients []string, title, body, link string) (int, error) {
	in := Input{
		Category: models.CategoryAdminBroadcast,
		Title:    title,
		Body:     body,
		Link:     link,
	}

	if len(recipients) == 0 {
		n := s.build(in)
		view := n.View(nil)
		view.ExpiresAt = nil
		s.publisher.Broadcast(realtime.EventNotification, view)
		logging.Info().Str("title", n.Title).Msg("admin broadcast pushed to all connections")
		return 0, nil
	}

	if !hasRecipient(recipients) {
		return 0, ErrNoRecipient
	}
	stored, err := s.NotifyMany(ctx, recipients, in)
	if err != nil {
		return 0, err
	}
	logging.Info().Int("recipients", len(stored)).Msg("admin broadcast stored")
	return len(stored), nil
}

func (s *Service) build(in Input) *models.Notification {
	now := s.now()
	n := &models.Notification{
		Recipient: in.Recipient,
		Category:  in.Category,
		Title:     clip(in.Title, models.NotificationTitleMax),
		Body:      clip(in.Body, models.NotificationBodyMax),
		Link:      in.Link,
		RefID:     in.RefID,
		RefKind:   in.RefKind,
		Read:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if in.Sender != "" {
		sender := in.Sender
		n.Sender = &sender
	}
	return n
}

// publish pushes n to its recipient with the sender resolved to display fields.
func (s *Service) publish(ctx context.Context, n *models.Notification, fallbackName string) {
	s.publisher.PublishToUser(n.Recipient, realtime.EventNotification, n.View(s.resolveSender(ctx, n.Sender, fallbackName)))
}

func (s *Service) resolveSender(ctx context.Context, sender *string, fallbackName string) *models.UserCompact {
	if sender == nil {
		return nil
	}
	if s.users != nil {
		compact, err := s.users.Compact(ctx, *sender)
		if err == nil {
			return compact
		}
		logging.Warn().Err(err).Str("sender", *sender).Msg("could not resolve notification sender")
	}
	return &models.UserCompact{ID: *sender, DisplayName: fallbackName}
}

func hasRecipient(recipients []string) bool {
	for _, r := range recipients {
		if strings.TrimSpace(r) != "" {
			return true
		}
	}
	return false
}

func isSelf(sender, recipient string) bool {
	return sender != "" && sender == recipient
}

// clip shortens s to at most max runes, marking the cut with an ellipsis.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
