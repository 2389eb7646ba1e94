package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// identityToolkitEndpoint is the REST entry point for password sign-in; the
// admin SDK deliberately has no password-verification API.
const identityToolkitEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

type FirebaseProviderConfig struct {
	ProjectID           string
	CredentialsJSON     string
	WebAPIKey           string
	BaseURL             string
	RequireConfirmation bool
}

// FirebaseProvider fronts Firebase Auth: admin SDK for user management and
// token verification, Identity Toolkit REST for password sign-in.
type FirebaseProvider struct {
	cfg        FirebaseProviderConfig
	client     *fbauth.Client
	mailer     Mailer
	log        *zap.Logger
	bus        *eventBus
	httpClient *http.Client
	endpoint   string

	mu      sync.Mutex
	current *Session
}

func NewFirebaseProvider(ctx context.Context, cfg FirebaseProviderConfig, mailer Mailer, log *zap.Logger) (*FirebaseProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	return &FirebaseProvider{
		cfg:        cfg,
		client:     client,
		mailer:     mailer,
		log:        log,
		bus:        newEventBus(),
		endpoint:   identityToolkitEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	if _, err := p.client.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	}

	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(meta.Name)
	if meta.AvatarURL != "" {
		params = params.PhotoURL(meta.AvatarURL)
	}

	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if p.cfg.RequireConfirmation {
		link, err := p.client.EmailVerificationLink(ctx, email)
		if err != nil {
			p.log.Warn("verification link failed", zap.String("email", email), zap.Error(err))
		} else if p.mailer != nil {
			if err := p.mailer.SendEmailVerification(ctx, email, link); err != nil {
				p.log.Warn("verification email failed", zap.Error(err))
			}
		}
		return &SignUpResult{UserID: rec.UID, RequiresConfirmation: true}, nil
	}

	sess, err := p.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{UserID: sess.UserID, Session: sess}, nil
}

type toolkitSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type toolkitSignInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(toolkitSignInRequest{
		Email:             normalizeEmail(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := p.endpoint + "?key=" + url.QueryEscape(p.cfg.WebAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out toolkitSignInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if out.Error != nil {
		switch {
		case strings.HasPrefix(out.Error.Message, "EMAIL_NOT_FOUND"),
			strings.HasPrefix(out.Error.Message, "INVALID_PASSWORD"),
			strings.HasPrefix(out.Error.Message, "INVALID_LOGIN_CREDENTIALS"),
			strings.HasPrefix(out.Error.Message, "USER_DISABLED"):
			return nil, ErrInvalidCredentials
		case strings.HasPrefix(out.Error.Message, "TOO_MANY_ATTEMPTS_TRY_LATER"):
			return nil, ErrTooManyAttempts
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, out.Error.Message)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}

	if p.cfg.RequireConfirmation {
		rec, err := p.client.GetUser(ctx, out.LocalID)
		if err == nil && !rec.EmailVerified {
			return nil, ErrEmailNotConfirmed
		}
	}

	sess := &Session{
		UserID: out.LocalID,
		Email:  out.Email,
		Name:   out.DisplayName,
		Token:  out.IDToken,
	}
	if d, err := time.ParseDuration(out.ExpiresIn + "s"); err == nil {
		sess.ExpiresAt = time.Now().Add(d)
	}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	p.bus.emit(Event{Kind: EventSignedIn, Session: sess})
	return sess, nil
}

// FederatedSignInURL returns the hosted OAuth entry point. The redirect flow
// completes client-side; a later token verification establishes the session.
func (p *FirebaseProvider) FederatedSignInURL(provider string) (string, error) {
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	if base == "" {
		return "", ErrUnavailable
	}
	return fmt.Sprintf("%s/__/auth/handler?providerId=%s", base, url.QueryEscape(provider+".com")), nil
}

func (p *FirebaseProvider) ResetPasswordForEmail(ctx context.Context, email string) error {
	link, err := p.client.PasswordResetLink(ctx, normalizeEmail(email))
	if err != nil {
		return resetLinkError(err)
	}
	if p.mailer != nil {
		if err := p.mailer.SendPasswordReset(ctx, email, link); err != nil {
			p.log.Warn("password reset email failed", zap.Error(err))
		}
	}
	return nil
}

// resetLinkError classifies a PasswordResetLink failure. Unknown accounts
// report success to prevent enumeration; everything else is a real outage
// the caller should see.
func resetLinkError(err error) error {
	if fbauth.IsUserNotFound(err) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()

	if current == nil {
		return nil
	}

	// Best effort; local state is already cleared.
	if err := p.client.RevokeRefreshTokens(ctx, current.UserID); err != nil {
		p.log.Warn("revoke refresh tokens failed", zap.String("user_id", current.UserID), zap.Error(err))
	}
	p.bus.emit(Event{Kind: EventSignedOut})
	return nil
}

func (p *FirebaseProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil, nil
	}
	sess := *p.current
	return &sess, nil
}

func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string) (*Session, error) {
	tok, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sess := &Session{UserID: tok.UID, Token: token}
	if email, ok := tok.Claims["email"].(string); ok {
		sess.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		sess.Name = name
	}
	if pic, ok := tok.Claims["picture"].(string); ok {
		sess.AvatarURL = pic
	}
	return sess, nil
}

func (p *FirebaseProvider) Subscribe(fn func(Event)) Unsubscribe {
	return p.bus.subscribe(fn)
}
