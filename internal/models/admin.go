package models

// AdminBroadcastRequest defines the request body for an admin announcement.
// An empty Recipients list addresses every connected user.
type AdminBroadcastRequest struct {
	Recipients []string `json:"recipients" validate:"omitempty,max=1000,dive,required"`
	Title      string   `json:"title" validate:"required,max=120"`
	Body       string   `json:"body,omitempty" validate:"omitempty,max=500"`
	Link       string   `json:"link,omitempty" validate:"omitempty,max=2048"`
}

// SuspendUserRequest defines the request body for suspending an account
type SuspendUserRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
