package models

import (
	"strings"
	"time"
)

// UserFlag tracks moderation strikes against a user, bumped each time another
// user reports them.
type UserFlag struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	Strikes      int       `json:"strikes" bson:"strikes"`
	LastStrikeAt time.Time `json:"last_strike_at" bson:"last_strike_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type ReportUserBody struct {
	Reason  string `json:"reason" validate:"required"`
	Message string `json:"message" validate:"max=2000"`
}

func (r *ReportUserBody) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Reason) == "" {
		errors["reason"] = "Reason is required"
	}
	if len(r.Message) > 2000 {
		errors["message"] = "Message is too long"
	}

	return errors
}
