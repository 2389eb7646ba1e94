package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/storage"
)

const (
	defaultMaxFailedAttempts = 5
	defaultLockoutWindow     = 15 * time.Minute
)

type localAccount struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

type failedLogins struct {
	Count int
	First time.Time
}

type LocalProviderConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	RequireConfirmation bool
	BaseURL             string
	MaxFailedAttempts   int
	LockoutWindow       time.Duration
}

// LocalProvider is a self-contained auth provider: bcrypt-hashed accounts,
// HS256 session tokens, failed-attempt lockout and an optional JSON snapshot.
// The persisted session lives on the instance and is handed out via
// CurrentSession; nothing here is package-global.
type LocalProvider struct {
	cfg      LocalProviderConfig
	log      *zap.Logger
	snapshot *storage.JSONStore
	mailer   Mailer
	bus      *eventBus

	mu          sync.Mutex
	accounts    map[string]*localAccount
	byEmail     map[string]string
	failed      map[string]*failedLogins
	resetTokens map[string]string
	current     *Session
}

// NewLocalProvider loads any existing account snapshot. snapshot and mailer
// may be nil.
func NewLocalProvider(cfg LocalProviderConfig, snapshot *storage.JSONStore, mailer Mailer, log *zap.Logger) (*LocalProvider, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = defaultMaxFailedAttempts
	}
	if cfg.LockoutWindow <= 0 {
		cfg.LockoutWindow = defaultLockoutWindow
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &LocalProvider{
		cfg:         cfg,
		log:         log,
		snapshot:    snapshot,
		mailer:      mailer,
		bus:         newEventBus(),
		accounts:    make(map[string]*localAccount),
		byEmail:     make(map[string]string),
		failed:      make(map[string]*failedLogins),
		resetTokens: make(map[string]string),
	}

	if snapshot != nil {
		var stored []*localAccount
		if err := snapshot.Load(&stored); err != nil {
			return nil, err
		}
		for _, acc := range stored {
			p.accounts[acc.ID] = acc
			p.byEmail[normalizeEmail(acc.Email)] = acc.ID
		}
	}

	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.byEmail[email]; exists {
		p.mu.Unlock()
		return nil, ErrDuplicateAccount
	}

	acc := &localAccount{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         meta.Name,
		AvatarURL:    meta.AvatarURL,
		Confirmed:    !p.cfg.RequireConfirmation,
		CreatedAt:    time.Now().UTC(),
	}
	p.accounts[acc.ID] = acc
	p.byEmail[email] = acc.ID
	p.persistLocked()

	if !acc.Confirmed {
		p.mu.Unlock()
		p.log.Info("sign-up pending email confirmation", zap.String("user_id", acc.ID))
		return &SignUpResult{UserID: acc.ID, RequiresConfirmation: true}, nil
	}

	sess, err := p.issueSessionLocked(acc)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.current = sess
	p.mu.Unlock()

	p.bus.emit(Event{Kind: EventSignedIn, Session: sess})
	return &SignUpResult{UserID: acc.ID, Session: sess}, nil
}

// ConfirmEmail marks the account confirmed, as if the emailed link was
// followed. Unknown emails are ignored.
func (p *LocalProvider) ConfirmEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.byEmail[normalizeEmail(email)]; ok {
		p.accounts[id].Confirmed = true
		p.persistLocked()
	}
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	p.mu.Lock()
	if fl := p.failed[email]; fl != nil {
		if time.Since(fl.First) > p.cfg.LockoutWindow {
			delete(p.failed, email)
		} else if fl.Count >= p.cfg.MaxFailedAttempts {
			p.mu.Unlock()
			return nil, ErrTooManyAttempts
		}
	}

	id, exists := p.byEmail[email]
	if !exists {
		p.recordFailureLocked(email)
		p.mu.Unlock()
		// Deliberately the same error as a wrong password.
		return nil, ErrInvalidCredentials
	}
	acc := p.accounts[id]

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		p.recordFailureLocked(email)
		p.mu.Unlock()
		return nil, ErrInvalidCredentials
	}
	if !acc.Confirmed {
		p.mu.Unlock()
		return nil, ErrEmailNotConfirmed
	}

	delete(p.failed, email)
	sess, err := p.issueSessionLocked(acc)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.current = sess
	p.mu.Unlock()

	p.bus.emit(Event{Kind: EventSignedIn, Session: sess})
	return sess, nil
}

func (p *LocalProvider) recordFailureLocked(email string) {
	fl := p.failed[email]
	if fl == nil {
		fl = &failedLogins{First: time.Now()}
		p.failed[email] = fl
	}
	fl.Count++
}

func (p *LocalProvider) FederatedSignInURL(provider string) (string, error) {
	// No federation locally; the Firebase provider handles redirect flows.
	return "", ErrUnavailable
}

func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	p.mu.Lock()
	id, exists := p.byEmail[email]
	var token string
	if exists {
		token = uuid.New().String()
		p.resetTokens[token] = id
	}
	p.mu.Unlock()

	// Unknown emails get the same success to prevent enumeration.
	if !exists || p.mailer == nil {
		return nil
	}

	link := fmt.Sprintf("%s/auth/reset?token=%s", strings.TrimRight(p.cfg.BaseURL, "/"), token)
	if err := p.mailer.SendPasswordReset(ctx, email, link); err != nil {
		p.log.Warn("password reset email failed", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// CompletePasswordReset consumes a reset token and installs a new password.
func (p *LocalProvider) CompletePasswordReset(token, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.resetTokens[token]
	if !ok {
		return ErrInvalidToken
	}
	delete(p.resetTokens, token)
	p.accounts[id].PasswordHash = string(hash)
	p.persistLocked()
	return nil
}

// SignOut clears the persisted session. It never fails and is idempotent;
// the signed-out event is only emitted when a session actually existed.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if had {
		p.bus.emit(Event{Kind: EventSignedOut})
	}
	return nil
}

func (p *LocalProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil, nil
	}
	sess := *p.current
	return &sess, nil
}

// Refresh reissues the current session token, mirroring a provider-side
// token refresh notification.
func (p *LocalProvider) Refresh(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil, ErrInvalidToken
	}
	acc := p.accounts[p.current.UserID]
	sess, err := p.issueSessionLocked(acc)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.current = sess
	p.mu.Unlock()

	p.bus.emit(Event{Kind: EventTokenRefreshed, Session: sess})
	return sess, nil
}

func (p *LocalProvider) VerifyToken(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &Session{UserID: sub, Email: email, Name: name, Token: tokenString}, nil
}

func (p *LocalProvider) Subscribe(fn func(Event)) Unsubscribe {
	return p.bus.subscribe(fn)
}

func (p *LocalProvider) issueSessionLocked(acc *localAccount) (*Session, error) {
	expires := time.Now().Add(p.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":   acc.ID,
		"email": acc.Email,
		"name":  acc.Name,
		"iat":   time.Now().Unix(),
		"exp":   expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:    acc.ID,
		Email:     acc.Email,
		Name:      acc.Name,
		AvatarURL: acc.AvatarURL,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}

func (p *LocalProvider) persistLocked() {
	if p.snapshot == nil {
		return
	}
	stored := make([]*localAccount, 0, len(p.accounts))
	for _, acc := range p.accounts {
		stored = append(stored, acc)
	}
	if err := p.snapshot.Save(stored); err != nil {
		p.log.Warn("account snapshot save failed", zap.Error(err))
	}
}
