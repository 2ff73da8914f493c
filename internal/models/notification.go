package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationCategory enumerates what triggered a notification.
type NotificationCategory string

const (
	CategoryNewPost        NotificationCategory = "new_post"
	CategoryNewMessage     NotificationCategory = "new_message"
	CategoryNewFollower    NotificationCategory = "new_follower"
	CategoryNewReaction    NotificationCategory = "new_reaction"
	CategoryNewComment     NotificationCategory = "new_comment"
	CategoryAdminBroadcast NotificationCategory = "admin_broadcast"
	CategorySystem         NotificationCategory = "system"
)

// RefKind names the kind of entity a notification points at.
type RefKind string

const (
	RefPost         RefKind = "Post"
	RefMessage      RefKind = "Message"
	RefConversation RefKind = "Conversation"
	RefUser         RefKind = "User"
)

const (
	NotificationTitleMax = 120
	NotificationBodyMax  = 500

	// DefaultNotificationTTL is how long a notification lives before the
	// store's TTL index reaps it.
	DefaultNotificationTTL = 30 * 24 * time.Hour
)

// Notification is a durable notification document (MongoDB).
type Notification struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Recipient string               `json:"recipient" bson:"recipient"`
	Sender    *string              `json:"sender_id,omitempty" bson:"sender"` // nil for system and admin notifications
	Category  NotificationCategory `json:"category" bson:"category"`
	Title     string               `json:"title" bson:"title"`
	Body      string               `json:"body,omitempty" bson:"body,omitempty"`
	Link      string               `json:"link,omitempty" bson:"link,omitempty"`
	RefID     string               `json:"ref_id,omitempty" bson:"ref_id,omitempty"`
	RefKind   RefKind              `json:"ref_kind,omitempty" bson:"ref_kind,omitempty"`
	Read      bool                 `json:"read" bson:"read"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time            `json:"expires_at" bson:"expires_at"`
}

// NotificationView is the client-facing shape, with the sender resolved to
// display fields. It is both the notification event payload and the list item.
type NotificationView struct {
	ID        string               `json:"id,omitempty"`
	Recipient string               `json:"recipient,omitempty"`
	Sender    *UserCompact         `json:"sender"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body,omitempty"`
	Link      string               `json:"link,omitempty"`
	RefID     string               `json:"ref_id,omitempty"`
	RefKind   RefKind              `json:"ref_kind,omitempty"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// View builds the client-facing shape of n.
func (n *Notification) View(sender *UserCompact) NotificationView {
	v := NotificationView{
		Recipient: n.Recipient,
		Sender:    sender,
		Category:  n.Category,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		RefID:     n.RefID,
		RefKind:   n.RefKind,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if !n.ID.IsZero() {
		v.ID = n.ID.Hex()
	}
	if !n.ExpiresAt.IsZero() {
		expires := n.ExpiresAt
		v.ExpiresAt = &expires
	}
	return v
}
