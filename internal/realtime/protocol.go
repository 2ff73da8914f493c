package realtime

import (
	"strings"

	"github.com/goccy/go-json"
)

// Event names exchanged over the socket.
const (
	// client -> server
	EventSetup = "setup"
	EventPing  = "ping"

	// server -> client
	EventConnected      = "connected"
	EventOnlineUsers    = "online_users"
	EventUserStatus     = "user_status"
	EventNotification   = "notification"
	EventReceiveMessage = "receive_message"
	EventMessagesRead   = "messages_read"
	EventPong           = "pong"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope is the JSON frame for every event in both directions.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserStatus is the payload of user_status.
type UserStatus struct {
	UserID UserID `json:"userId"`
	Status string `json:"status"`
}

// MessagesRead is the payload of messages_read.
type MessagesRead struct {
	ConversationID string `json:"conversationId"`
	ReaderID       string `json:"readerId"`
}

// identityKeys are the setup payload fields that may carry the user identity,
// in priority order.
var identityKeys = []string{"_id", "id", "userId", "userID"}

// ResolveIdentity extracts the user identity from a setup payload. The first
// key of identityKeys holding a non-empty string or a number wins.
func ResolveIdentity(data []byte) (UserID, bool) {
	if len(data) == 0 {
		return "", false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}

	for _, key := range identityKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if id, ok := identityValue(raw); ok {
			return id, true
		}
	}
	return "", false
}

func identityValue(raw json.RawMessage) (UserID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return UserID(s), s != ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return UserID(n.String()), true
	}
	return "", false
}
