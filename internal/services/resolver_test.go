package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

type profileFixture struct {
	store       *services.MemoryProfileStore
	connections *services.MemoryConnectionService
	chats       *services.MemoryChatService
	resolver    *services.ProfileResolver
	pipeline    *services.ProfileMutationPipeline
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	log := zap.NewNop()

	store, err := services.NewMemoryProfileStore(nil, log)
	require.NoError(t, err)
	chats := services.NewMemoryChatService()
	connections := services.NewMemoryConnectionService(chats)
	resolver := services.NewProfileResolver(store, connections, log)
	pipeline := services.NewProfileMutationPipeline(store, resolver, log)

	return &profileFixture{
		store:       store,
		connections: connections,
		chats:       chats,
		resolver:    resolver,
		pipeline:    pipeline,
	}
}

func strPtr(s string) *string { return &s }

func TestResolvePlaceholder(t *testing.T) {
	ctx := context.Background()

	t.Run("synthesizes from session metadata when no record exists", func(t *testing.T) {
		fix := newProfileFixture(t)

		prof := fix.resolver.Resolve(ctx, &auth.Session{
			UserID: "u1",
			Email:  "alice@example.com",
			Name:   "Alice Johnson",
		})

		assert.Equal(t, "u1", prof.UserID)
		assert.Equal(t, "alice@example.com", prof.Email)
		assert.Equal(t, "Alice Johnson", prof.Name)
		assert.False(t, prof.ProfileComplete)

		// Lists come back empty, never nil.
		assert.NotNil(t, prof.SkillsToTeach)
		assert.Empty(t, prof.SkillsToTeach)
		assert.NotNil(t, prof.Connections)
	})

	t.Run("derives the name from the email local part", func(t *testing.T) {
		fix := newProfileFixture(t)

		prof := fix.resolver.Resolve(ctx, &auth.Session{
			UserID: "u1",
			Email:  "bob@example.com",
		})
		assert.Equal(t, "bob", prof.Name)
	})

	t.Run("placeholder is not persisted", func(t *testing.T) {
		fix := newProfileFixture(t)

		fix.resolver.Resolve(ctx, &auth.Session{UserID: "u1", Email: "a@b.com"})
		_, err := fix.store.Get(ctx, "u1")
		assert.ErrorIs(t, err, services.ErrProfileNotFound)
	})
}

func TestResolveAssembled(t *testing.T) {
	ctx := context.Background()
	fix := newProfileFixture(t)
	sess := &auth.Session{UserID: "u1", Email: "alice@example.com", Name: "Alice"}

	_, err := fix.pipeline.Apply(ctx, sess, &models.UpdateProfileRequest{
		Name:        strPtr("Alice Johnson"),
		Location:    strPtr("San Francisco, CA"),
		SchoolOrJob: strPtr("Engineer"),
		SkillsToTeach: &[]models.TeachSkill{
			{Name: "React", Rating: 5},
		},
		SkillsToLearn: &[]string{"Python"},
	})
	require.NoError(t, err)

	// An accepted request shows up as a connection.
	req, err := fix.connections.SendRequest(ctx, "u2", "u1", "")
	require.NoError(t, err)
	_, err = fix.connections.Accept(ctx, "u1", req.ID)
	require.NoError(t, err)

	prof := fix.resolver.Resolve(ctx, sess)
	assert.Equal(t, "Alice Johnson", prof.Name)
	assert.True(t, prof.ProfileComplete)
	require.Len(t, prof.SkillsToTeach, 1)
	assert.Equal(t, "React", prof.SkillsToTeach[0].Name)
	assert.Equal(t, []string{"Python"}, prof.SkillsToLearn)
	assert.Equal(t, []string{"u2"}, prof.Connections)
}

func TestResolveIncomplete(t *testing.T) {
	ctx := context.Background()
	fix := newProfileFixture(t)
	sess := &auth.Session{UserID: "u1", Email: "alice@example.com"}

	// Location missing, so the stored record resolves as incomplete.
	_, err := fix.store.Upsert(ctx, "u1",
		services.ProfileDefaults{Email: sess.Email, Name: "Alice"},
		&models.UpdateProfileRequest{SchoolOrJob: strPtr("Engineer")})
	require.NoError(t, err)

	prof := fix.resolver.Resolve(ctx, sess)
	assert.False(t, prof.ProfileComplete)
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()
	fix := newProfileFixture(t)

	_, err := fix.resolver.ResolveID(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrProfileNotFound)

	_, err = fix.store.Upsert(ctx, "u1",
		services.ProfileDefaults{Email: "bob@example.com", Name: "Bob"}, nil)
	require.NoError(t, err)

	prof, err := fix.resolver.ResolveID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", prof.Name)
}
