package models

import (
	"strings"
	"time"
)

// ChatID derives the canonical chat key for a pair of users. The pair is
// unordered, so the two ids are sorted before joining.
func ChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Chat is an append-only conversation between exactly two users, created when
// a connection request is accepted.
type Chat struct {
	ID           string    `json:"id" bson:"_id"`
	Participants []string  `json:"participants" bson:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty" bson:"last_message,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Peer returns the other participant, or "" if userID is not in the chat.
func (c *Chat) Peer(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message is immutable once created; only the read flag changes afterwards.
type Message struct {
	ID         string    `json:"id" bson:"_id"`
	ChatID     string    `json:"chat_id" bson:"chat_id"`
	FromUserID string    `json:"from_user_id" bson:"from_user_id"`
	ToUserID   string    `json:"to_user_id" bson:"to_user_id"`
	Content    string    `json:"content" bson:"content"`
	Read       bool      `json:"read" bson:"read"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type SendMessageBody struct {
	Content string `json:"content" validate:"required"`
}

func (r *SendMessageBody) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Content) == "" {
		errors["content"] = "Message content is required"
	}

	return errors
}
