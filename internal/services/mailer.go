package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type SendGridMailer struct {
	APIKey       string
	FromEmail    string
	SupportEmail string
	HTTPClient   *http.Client
	Endpoint     string
}

func NewSendGridMailer(apiKey string, fromEmail string, supportEmail string) *SendGridMailer {
	support := strings.TrimSpace(supportEmail)
	if support == "" {
		support = "support@skilldom.app"
	}
	return &SendGridMailer{
		APIKey:       strings.TrimSpace(apiKey),
		FromEmail:    strings.TrimSpace(fromEmail),
		SupportEmail: support,
		Endpoint:     "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	ReplyTo          *sendGridEmailAddress     `json:"reply_to,omitempty"`
	Content          []sendGridContent         `json:"content"`
}

// SendPasswordReset delivers the reset link to the account email.
func (m *SendGridMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	body := fmt.Sprintf(
		"We received a request to reset your Skilldom password.\n\nReset your password here:\n%s\n\nIf you did not request this, you can ignore this email.\n",
		link,
	)
	return m.send(ctx, email, "Reset your Skilldom password", body, nil, nil)
}

// SendEmailVerification delivers the confirm-account link after sign up.
func (m *SendGridMailer) SendEmailVerification(ctx context.Context, email, link string) error {
	body := fmt.Sprintf(
		"Welcome to Skilldom!\n\nConfirm your email address here:\n%s\n",
		link,
	)
	return m.send(ctx, email, "Confirm your Skilldom account", body, nil, nil)
}

// SendSupportEmail forwards a support form submission to the support inbox,
// with reply-to set to the submitting user.
func (m *SendGridMailer) SendSupportEmail(ctx context.Context, ticket string, userName string, userEmail string, message string) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	subject := fmt.Sprintf("Support Request: #%s", ticket)
	body := strings.TrimSpace(message)
	if body == "" {
		body = "(empty message)"
	}

	plain := fmt.Sprintf(
		"Support ticket: %s\nFrom: %s <%s>\n\nMessage:\n%s\n",
		ticket,
		strings.TrimSpace(userName),
		strings.TrimSpace(userEmail),
		body,
	)
	replyTo := &sendGridEmailAddress{
		Email: strings.TrimSpace(userEmail),
		Name:  strings.TrimSpace(userName),
	}
	return m.send(ctx, m.SupportEmail, subject, plain, map[string]string{"ticket": ticket}, replyTo)
}

// SendReportAlert notifies the support inbox that a user was reported.
func (m *SendGridMailer) SendReportAlert(ctx context.Context, reportedUserID string, strikes int, reason string) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	subject := fmt.Sprintf("User reported: %s (strike %d)", reportedUserID, strikes)
	plain := fmt.Sprintf("User %s now has %d strike(s).\n\nReason:\n%s\n", reportedUserID, strikes, strings.TrimSpace(reason))
	return m.send(ctx, m.SupportEmail, subject, plain, map[string]string{"reported_user": reportedUserID}, nil)
}

func (m *SendGridMailer) send(ctx context.Context, to string, subject string, plain string, customArgs map[string]string, replyTo *sendGridEmailAddress) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	if m.APIKey == "" {
		return fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return fmt.Errorf("missing MAIL_FROM_EMAIL")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("missing recipient email")
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:         []sendGridEmailAddress{{Email: strings.TrimSpace(to)}},
				Subject:    subject,
				CustomArgs: customArgs,
			},
		},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  "Skilldom",
		},
		ReplyTo: replyTo,
		Content: []sendGridContent{
			{Type: "text/plain", Value: plain},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}

// NopMailer satisfies the mailer contract without sending anything. Used in
// development and tests.
type NopMailer struct{}

func (NopMailer) SendPasswordReset(ctx context.Context, email, link string) error     { return nil }
func (NopMailer) SendEmailVerification(ctx context.Context, email, link string) error { return nil }
