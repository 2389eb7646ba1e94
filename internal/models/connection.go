package models

import (
	"strings"
	"time"
)

// Connection request lifecycle. A rejected request is retained, not deleted.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// MaxRequestMessageLen caps the optional introduction message.
const MaxRequestMessageLen = 200

// ConnectionRequest is a directed invitation from one user to another.
// Acceptance makes the edge count as a symmetric connection for both sides.
type ConnectionRequest struct {
	ID          string    `json:"id" bson:"_id"`
	FromUserID  string    `json:"from_user_id" bson:"from_user_id"`
	ToUserID    string    `json:"to_user_id" bson:"to_user_id"`
	Message     string    `json:"message" bson:"message,omitempty"`
	Status      string    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	RespondedAt time.Time `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
}

type SendRequestBody struct {
	ToUserID string `json:"to_user_id" validate:"required"`
	Message  string `json:"message" validate:"max=200"`
}

func (r *SendRequestBody) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.ToUserID) == "" {
		errors["to_user_id"] = "Recipient is required"
	}
	if len(r.Message) > MaxRequestMessageLen {
		errors["message"] = "Message must be 200 characters or fewer"
	}

	return errors
}
