package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sentinel errors surfaced by providers. Callers branch on these; anything
// else is treated as provider unavailability.
var (
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrTooManyAttempts    = errors.New("too many sign-in attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnavailable        = errors.New("auth provider unavailable")
)

// Session is an authenticated identity plus the metadata the provider knows
// about it (used to synthesize placeholder profiles).
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Metadata carries optional identity fields supplied at sign-up.
type Metadata struct {
	Name      string
	AvatarURL string
}

// SignUpResult is returned by SignUp. Session is nil when the provider sent a
// confirmation email and no session exists yet.
type SignUpResult struct {
	UserID               string
	Session              *Session
	RequiresConfirmation bool
}

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is a session-change notification. Session is nil for EventSignedOut.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Unsubscribe removes a subscription registered with Subscribe.
type Unsubscribe func()

// Provider is the remote auth collaborator. Implementations must deliver
// events in the order they occur.
type Provider interface {
	SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error)
	// SignInWithPassword reports ErrInvalidCredentials for both unknown
	// accounts and wrong passwords; callers that need the distinction do a
	// secondary profile lookup.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// FederatedSignInURL returns the redirect entry point for an external
	// identity provider. No session is returned; the eventual sign-in
	// arrives as an event.
	FederatedSignInURL(provider string) (string, error)
	// ResetPasswordForEmail succeeds whether or not the email is registered,
	// to prevent account enumeration.
	ResetPasswordForEmail(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	// CurrentSession returns the provider's persisted session, or nil.
	CurrentSession(ctx context.Context) (*Session, error)
	// VerifyToken validates a bearer token and returns the session it
	// represents without touching the persisted session.
	VerifyToken(ctx context.Context, token string) (*Session, error)
	Subscribe(fn func(Event)) Unsubscribe
}

// Mailer delivers account emails. May be backed by SendGrid or a no-op.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
	SendEmailVerification(ctx context.Context, email, link string) error
}

// eventBus fans events out to subscribers in registration order.
// Delivery is synchronous so per-subscriber ordering follows emit order.
type eventBus struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]func(Event))}
}

func (b *eventBus) subscribe(fn func(Event)) Unsubscribe {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *eventBus) emit(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for i := 0; i < b.next; i++ {
		if fn, ok := b.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
