package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

// fakeProvider is a scriptable auth.Provider. Tests set the return values
// directly and push events through emit.
type fakeProvider struct {
	mu   sync.Mutex
	subs []func(auth.Event)

	current    *auth.Session
	currentErr error

	signUpResult *auth.SignUpResult
	signUpErr    error

	signInSession *auth.Session
	signInErr     error

	signOutErr   error
	signOutCalls int
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, meta auth.Metadata) (*auth.SignUpResult, error) {
	return f.signUpResult, f.signUpErr
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	return f.signInSession, f.signInErr
}

func (f *fakeProvider) FederatedSignInURL(provider string) (string, error) {
	return "https://auth.example.com/" + provider, nil
}

func (f *fakeProvider) ResetPasswordForEmail(ctx context.Context, email string) error {
	return nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()
	return f.signOutErr
}

func (f *fakeProvider) CurrentSession(ctx context.Context) (*auth.Session, error) {
	return f.current, f.currentErr
}

func (f *fakeProvider) VerifyToken(ctx context.Context, token string) (*auth.Session, error) {
	return nil, auth.ErrInvalidToken
}

func (f *fakeProvider) Subscribe(fn func(auth.Event)) auth.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subs = nil
	}
}

func (f *fakeProvider) emit(ev auth.Event) {
	f.mu.Lock()
	subs := append([]func(auth.Event){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

type controllerFixture struct {
	provider *fakeProvider
	store    services.ProfileStore
	ctrl     *Controller
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	log := zap.NewNop()

	store, err := services.NewMemoryProfileStore(nil, log)
	require.NoError(t, err)
	chats := services.NewMemoryChatService()
	conns := services.NewMemoryConnectionService(chats)
	resolver := services.NewProfileResolver(store, conns, log)
	pipeline := services.NewProfileMutationPipeline(store, resolver, log)

	provider := &fakeProvider{}
	return &controllerFixture{
		provider: provider,
		store:    store,
		ctrl:     NewController(provider, store, resolver, pipeline, log),
	}
}

func sp(s string) *string { return &s }

func session(userID, email string) *auth.Session {
	return &auth.Session{UserID: userID, Email: email, Token: "token-" + userID}
}

// seedCompleteProfile writes the minimum fields that finish profile setup.
func (f *controllerFixture) seedCompleteProfile(t *testing.T, userID, email string) {
	t.Helper()
	_, err := f.store.Upsert(context.Background(), userID, services.ProfileDefaults{Email: email}, &models.UpdateProfileRequest{
		Name:        sp("Alice"),
		Location:    sp("Berlin"),
		SchoolOrJob: sp("Engineer"),
	})
	require.NoError(t, err)
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("no persisted session", func(t *testing.T) {
		f := newControllerFixture(t)
		assert.Equal(t, StateLoading, f.ctrl.Snapshot().State)

		require.NoError(t, f.ctrl.Start(ctx))
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateSignedOut, snap.State)
		assert.Nil(t, snap.Session)
		assert.Nil(t, snap.Profile)
	})

	t.Run("restored session with complete profile", func(t *testing.T) {
		f := newControllerFixture(t)
		f.seedCompleteProfile(t, "u1", "alice@example.com")
		f.provider.current = session("u1", "alice@example.com")

		require.NoError(t, f.ctrl.Start(ctx))
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateActive, snap.State)
		require.NotNil(t, snap.Profile)
		assert.True(t, snap.Profile.ProfileComplete)
		assert.Equal(t, "u1", snap.Session.UserID)
	})

	t.Run("restored session without a profile lands in setup", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")

		require.NoError(t, f.ctrl.Start(ctx))
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateProfileSetup, snap.State)
		require.NotNil(t, snap.Profile)
		assert.False(t, snap.Profile.ProfileComplete)
	})

	t.Run("restore failure degrades to signed out", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.currentErr = errors.New("keychain unavailable")

		err := f.ctrl.Start(ctx)
		assert.Error(t, err)
		assert.Equal(t, StateSignedOut, f.ctrl.Snapshot().State)
	})
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation required", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signUpResult = &auth.SignUpResult{UserID: "u1", RequiresConfirmation: true}

		res, err := f.ctrl.SignUp(ctx, "alice@example.com", "password123", auth.Metadata{})
		require.NoError(t, err)
		assert.True(t, res.RequiresConfirmation)
		assert.Equal(t, StateConfirmEmail, f.ctrl.Snapshot().State)
	})

	t.Run("immediate session goes to setup", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signUpResult = &auth.SignUpResult{UserID: "u1", Session: session("u1", "alice@example.com")}

		_, err := f.ctrl.SignUp(ctx, "alice@example.com", "password123", auth.Metadata{Name: "Alice"})
		require.NoError(t, err)
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateProfileSetup, snap.State)
		assert.Equal(t, "u1", snap.Session.UserID)
	})

	t.Run("provider error leaves state alone", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signUpErr = auth.ErrDuplicateAccount

		_, err := f.ctrl.SignUp(ctx, "alice@example.com", "password123", auth.Metadata{})
		assert.ErrorIs(t, err, auth.ErrDuplicateAccount)
		assert.Equal(t, StateSignedOut, f.ctrl.Snapshot().State)
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success resolves the profile", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.seedCompleteProfile(t, "u1", "alice@example.com")
		f.provider.signInSession = session("u1", "alice@example.com")

		require.NoError(t, f.ctrl.SignIn(ctx, "alice@example.com", "password123"))
		assert.Equal(t, StateActive, f.ctrl.Snapshot().State)
	})

	t.Run("unknown account is refined to not-found", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signInErr = auth.ErrInvalidCredentials

		err := f.ctrl.SignIn(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("known account is refined to wrong password", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.seedCompleteProfile(t, "u1", "alice@example.com")
		f.provider.signInErr = auth.ErrInvalidCredentials

		err := f.ctrl.SignIn(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, auth.ErrIncorrectPassword)
	})

	t.Run("other provider errors pass through", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signInErr = auth.ErrTooManyAttempts

		err := f.ctrl.SignIn(ctx, "alice@example.com", "password123")
		assert.ErrorIs(t, err, auth.ErrTooManyAttempts)
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("clears state before calling the provider", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))

		f.ctrl.SignOut(ctx)
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateSignedOut, snap.State)
		assert.Nil(t, snap.Session)
		assert.Equal(t, 1, f.provider.signOutCalls)
	})

	t.Run("local sign-out stands when the provider fails", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))
		f.provider.signOutErr = errors.New("network down")

		f.ctrl.SignOut(ctx)
		assert.Equal(t, StateSignedOut, f.ctrl.Snapshot().State)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))

		_, err := f.ctrl.UpdateProfile(ctx, &models.UpdateProfileRequest{Name: sp("Alice")})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("saving completes setup", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))
		require.Equal(t, StateProfileSetup, f.ctrl.Snapshot().State)

		prof, err := f.ctrl.UpdateProfile(ctx, &models.UpdateProfileRequest{Name: sp("Alice")})
		require.NoError(t, err)
		assert.True(t, prof.ProfileComplete)

		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateActive, snap.State)
		assert.Equal(t, prof, snap.Profile)
	})
}

func TestProviderEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("signed-in event resolves a session that arrived out of band", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))
		f.seedCompleteProfile(t, "u1", "alice@example.com")

		f.provider.emit(auth.Event{Kind: auth.EventSignedIn, Session: session("u1", "alice@example.com")})
		assert.Equal(t, StateActive, f.ctrl.Snapshot().State)
	})

	t.Run("signed-out event clears the snapshot", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))

		f.provider.emit(auth.Event{Kind: auth.EventSignedOut})
		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateSignedOut, snap.State)
		assert.Nil(t, snap.Session)
	})

	t.Run("token refresh swaps the session in place", func(t *testing.T) {
		f := newControllerFixture(t)
		f.seedCompleteProfile(t, "u1", "alice@example.com")
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))
		before := f.ctrl.Snapshot()

		fresh := session("u1", "alice@example.com")
		fresh.Token = "token-u1-fresh"
		f.provider.emit(auth.Event{Kind: auth.EventTokenRefreshed, Session: fresh})

		snap := f.ctrl.Snapshot()
		assert.Equal(t, StateActive, snap.State)
		assert.Equal(t, "token-u1-fresh", snap.Session.Token)
		assert.Equal(t, before.Profile, snap.Profile)
	})

	t.Run("token refresh for another user is ignored", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))

		f.provider.emit(auth.Event{Kind: auth.EventTokenRefreshed, Session: session("u2", "bob@example.com")})
		assert.Equal(t, "token-u1", f.ctrl.Snapshot().Session.Token)
	})

	t.Run("close stops delivery", func(t *testing.T) {
		f := newControllerFixture(t)
		f.provider.current = session("u1", "alice@example.com")
		require.NoError(t, f.ctrl.Start(ctx))

		f.ctrl.Close()
		f.provider.emit(auth.Event{Kind: auth.EventSignedOut})
		assert.Equal(t, StateProfileSetup, f.ctrl.Snapshot().State)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers the current snapshot immediately", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))

		var got []State
		f.ctrl.Subscribe(func(s Snapshot) { got = append(got, s.State) })
		assert.Equal(t, []State{StateSignedOut}, got)
	})

	t.Run("fans out in registration order", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))

		var order []string
		f.ctrl.Subscribe(func(Snapshot) { order = append(order, "first") })
		f.ctrl.Subscribe(func(Snapshot) { order = append(order, "second") })
		order = order[:0]

		f.ctrl.SignOut(ctx)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		f := newControllerFixture(t)
		require.NoError(t, f.ctrl.Start(ctx))

		calls := 0
		unsub := f.ctrl.Subscribe(func(Snapshot) { calls++ })
		require.Equal(t, 1, calls)

		unsub()
		f.ctrl.SignOut(ctx)
		assert.Equal(t, 1, calls)
	})
}

// A transition begun earlier must not overwrite one begun later, no matter
// which finishes first.
func TestStaleTransitionSuppressed(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))

	seq1 := f.ctrl.begin()
	seq2 := f.ctrl.begin()

	assert.True(t, f.ctrl.commit(seq2, Snapshot{State: StateActive, Session: session("u2", "bob@example.com")}))
	assert.False(t, f.ctrl.commit(seq1, Snapshot{State: StateSignedOut}))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, "u2", snap.Session.UserID)
}
