package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct chat between two users (MongoDB).
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Participants []string           `json:"participants" bson:"participants"`
	LastMessage  *LastMessage       `json:"last_message,omitempty" bson:"last_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// LastMessage is the summary shown in conversation lists.
type LastMessage struct {
	Text   string    `json:"text" bson:"text"`
	Sender string    `json:"sender" bson:"sender"`
	SentAt time.Time `json:"sent_at" bson:"sent_at"`
}

// HasParticipant reports whether user takes part in c.
func (c *Conversation) HasParticipant(user string) bool {
	for _, p := range c.Participants {
		if p == user {
			return true
		}
	}
	return false
}

// Peer returns the other participant, or "" if user is not a participant.
func (c *Conversation) Peer(user string) string {
	if !c.HasParticipant(user) {
		return ""
	}
	for _, p := range c.Participants {
		if p != user {
			return p
		}
	}
	return ""
}

// StartConversationRequest defines the request body for opening a direct conversation
type StartConversationRequest struct {
	Peer string `json:"peer" validate:"required"`
}
