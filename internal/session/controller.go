package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

// State is the controller's position in the auth lifecycle.
type State string

const (
	// StateLoading holds until the initial session restore finishes.
	StateLoading State = "loading"
	// StateSignedOut means no session exists.
	StateSignedOut State = "signed_out"
	// StateConfirmEmail means sign-up succeeded but the account is waiting
	// on an email confirmation; no session exists yet.
	StateConfirmEmail State = "confirm_email"
	// StateProfileSetup means a session exists but the profile has not been
	// completed yet.
	StateProfileSetup State = "profile_setup"
	// StateActive means a session exists and the profile is complete.
	StateActive State = "active"
)

// Snapshot is an immutable view of the controller's state. Session and
// Profile are nil unless the state carries them.
type Snapshot struct {
	State   State
	Session *auth.Session
	Profile *models.Profile
}

// Unsubscribe removes a subscription registered with Subscribe.
type Unsubscribe func()

// Controller owns the client-visible auth lifecycle. It restores the
// persisted session on Start, listens for provider events, resolves the
// profile for each session change and publishes snapshots to subscribers.
//
// Every transition is stamped with a sequence number taken when it begins.
// A transition only lands if no newer one began in the meantime, so a slow
// profile resolution can never overwrite the outcome of a later sign-in or
// sign-out.
type Controller struct {
	provider auth.Provider
	profiles services.ProfileStore
	resolver *services.ProfileResolver
	pipeline *services.ProfileMutationPipeline
	log      *zap.Logger

	mu       sync.Mutex
	seq      uint64
	snap     Snapshot
	subs     map[int]func(Snapshot)
	nextSub  int
	unsub    auth.Unsubscribe
	started  bool
}

func NewController(provider auth.Provider, profiles services.ProfileStore, resolver *services.ProfileResolver, pipeline *services.ProfileMutationPipeline, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		provider: provider,
		profiles: profiles,
		resolver: resolver,
		pipeline: pipeline,
		log:      log,
		snap:     Snapshot{State: StateLoading},
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start restores the persisted session, if any, and begins listening for
// provider events. Until it completes, Snapshot reports StateLoading.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	c.unsub = c.provider.Subscribe(c.handleEvent)

	seq := c.begin()
	sess, err := c.provider.CurrentSession(ctx)
	if err != nil {
		c.log.Warn("session restore failed", zap.Error(err))
		c.commit(seq, Snapshot{State: StateSignedOut})
		return err
	}
	if sess == nil {
		c.commit(seq, Snapshot{State: StateSignedOut})
		return nil
	}
	c.resolveInto(ctx, seq, sess)
	return nil
}

// Close stops event delivery. The last published snapshot remains readable.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn and delivers the current snapshot to it
// immediately. Subsequent snapshots are delivered in publish order.
func (c *Controller) Subscribe(fn func(Snapshot)) Unsubscribe {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	cur := c.snap
	c.mu.Unlock()

	fn(cur)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SignUp registers a new account. When the provider requires email
// confirmation the controller moves to StateConfirmEmail and no session
// exists; otherwise the new session is resolved like a sign-in.
func (c *Controller) SignUp(ctx context.Context, email, password string, meta auth.Metadata) (*auth.SignUpResult, error) {
	res, err := c.provider.SignUp(ctx, email, password, meta)
	if err != nil {
		return nil, err
	}
	if res.RequiresConfirmation || res.Session == nil {
		seq := c.begin()
		c.commit(seq, Snapshot{State: StateConfirmEmail})
		return res, nil
	}

	seq := c.begin()
	c.resolveInto(ctx, seq, res.Session)
	return res, nil
}

// SignIn authenticates with email and password. The provider reports one
// generic credentials error for unknown accounts and wrong passwords; a
// profile lookup refines it so callers can tell the two apart.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	sess, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.refineCredentialsError(ctx, email)
		}
		return err
	}

	seq := c.begin()
	c.resolveInto(ctx, seq, sess)
	return nil
}

func (c *Controller) refineCredentialsError(ctx context.Context, email string) error {
	_, err := c.profiles.GetByEmail(ctx, email)
	if errors.Is(err, services.ErrProfileNotFound) {
		return auth.ErrAccountNotFound
	}
	if err != nil {
		// Lookup failed; fall back to the generic error rather than guess.
		c.log.Warn("credentials refinement lookup failed", zap.Error(err))
		return auth.ErrInvalidCredentials
	}
	return auth.ErrIncorrectPassword
}

// SignInFederated returns the redirect URL for an external identity
// provider. The eventual session arrives as a provider event.
func (c *Controller) SignInFederated(provider string) (string, error) {
	return c.provider.FederatedSignInURL(provider)
}

// ResetPassword requests a reset email. It succeeds whether or not the
// address is registered.
func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	return c.provider.ResetPasswordForEmail(ctx, email)
}

// SignOut clears local state immediately, then tells the provider. A
// provider failure is logged but the local sign-out stands; signing out
// while already signed out is a no-op.
func (c *Controller) SignOut(ctx context.Context) {
	seq := c.begin()
	c.commit(seq, Snapshot{State: StateSignedOut})

	if err := c.provider.SignOut(ctx); err != nil {
		c.log.Warn("provider sign-out failed", zap.Error(err))
	}
}

// UpdateProfile applies a partial profile update for the current session and
// publishes the re-resolved profile. Saving completes setup, so a successful
// update always lands in StateActive.
func (c *Controller) UpdateProfile(ctx context.Context, req *models.UpdateProfileRequest) (*models.Profile, error) {
	c.mu.Lock()
	sess := c.snap.Session
	c.mu.Unlock()
	if sess == nil {
		return nil, auth.ErrInvalidToken
	}

	prof, err := c.pipeline.Apply(ctx, sess, req)
	if err != nil {
		return nil, err
	}

	seq := c.begin()
	c.commit(seq, Snapshot{State: StateActive, Session: sess, Profile: prof})
	return prof, nil
}

func (c *Controller) handleEvent(ev auth.Event) {
	switch ev.Kind {
	case auth.EventSignedIn:
		seq := c.begin()
		c.resolveInto(context.Background(), seq, ev.Session)
	case auth.EventSignedOut:
		seq := c.begin()
		c.commit(seq, Snapshot{State: StateSignedOut})
	case auth.EventTokenRefreshed:
		// Same identity, fresher token. Swap the session without
		// re-resolving the profile or bumping the sequence.
		c.mu.Lock()
		if c.snap.Session != nil && ev.Session != nil && c.snap.Session.UserID == ev.Session.UserID {
			next := c.snap
			next.Session = ev.Session
			c.snap = next
			subs := c.subscribersLocked()
			c.mu.Unlock()
			for _, fn := range subs {
				fn(next)
			}
			return
		}
		c.mu.Unlock()
	}
}

// resolveInto resolves the profile for sess and commits the resulting
// snapshot under seq. Resolution never fails; an unreachable store degrades
// to a placeholder profile and the setup state.
func (c *Controller) resolveInto(ctx context.Context, seq uint64, sess *auth.Session) {
	prof := c.resolver.Resolve(ctx, sess)

	state := StateProfileSetup
	if prof.ProfileComplete {
		state = StateActive
	}
	c.commit(seq, Snapshot{State: state, Session: sess, Profile: prof})
}

// begin stamps a new transition. Any transition begun earlier becomes stale
// and will fail to commit.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// commit publishes snap unless a newer transition has begun since seq was
// taken. Reports whether the snapshot landed.
func (c *Controller) commit(seq uint64, snap Snapshot) bool {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return false
	}
	c.snap = snap
	subs := c.subscribersLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

func (c *Controller) subscribersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
