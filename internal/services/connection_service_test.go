package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

func newConnectionFixture() (*services.MemoryConnectionService, *services.MemoryChatService) {
	chats := services.NewMemoryChatService()
	return services.NewMemoryConnectionService(chats), chats
}

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		req, err := conns.SendRequest(ctx, "alice", "bob", "hello")
		require.NoError(t, err)
		assert.Equal(t, "alice", req.FromUserID)
		assert.Equal(t, "bob", req.ToUserID)
		assert.Equal(t, models.RequestPending, req.Status)
		assert.NotEmpty(t, req.ID)
	})

	t.Run("rejects self requests", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		_, err := conns.SendRequest(ctx, "alice", "alice", "")
		assert.ErrorIs(t, err, services.ErrSelfRequest)
	})

	t.Run("rejects over-long messages", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		_, err := conns.SendRequest(ctx, "alice", "bob", strings.Repeat("x", models.MaxRequestMessageLen+1))
		assert.ErrorIs(t, err, services.ErrMessageTooLong)
	})

	t.Run("rejects duplicates in either direction", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		_, err := conns.SendRequest(ctx, "alice", "bob", "")
		require.NoError(t, err)

		_, err = conns.SendRequest(ctx, "alice", "bob", "")
		assert.ErrorIs(t, err, services.ErrDuplicateRequest)

		_, err = conns.SendRequest(ctx, "bob", "alice", "")
		assert.ErrorIs(t, err, services.ErrDuplicateRequest)
	})

	t.Run("allows a new request after rejection", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		req, err := conns.SendRequest(ctx, "alice", "bob", "")
		require.NoError(t, err)
		_, err = conns.Reject(ctx, "bob", req.ID)
		require.NoError(t, err)

		_, err = conns.SendRequest(ctx, "alice", "bob", "second try")
		assert.NoError(t, err)
	})
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("accepting connects both users and opens their chat", func(t *testing.T) {
		conns, chats := newConnectionFixture()

		req, err := conns.SendRequest(ctx, "alice", "bob", "")
		require.NoError(t, err)

		accepted, err := conns.Accept(ctx, "bob", req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestAccepted, accepted.Status)
		assert.False(t, accepted.RespondedAt.IsZero())

		alicePeers, err := conns.AcceptedPeers(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, alicePeers)

		bobPeers, err := conns.AcceptedPeers(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, bobPeers)

		aliceChats, err := chats.ChatsFor(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, aliceChats, 1)
		assert.Equal(t, models.ChatID("alice", "bob"), aliceChats[0].ID)
		assert.Nil(t, aliceChats[0].LastMessage)
	})

	t.Run("only the recipient can respond", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		req, err := conns.SendRequest(ctx, "alice", "bob", "")
		require.NoError(t, err)

		_, err = conns.Accept(ctx, "alice", req.ID)
		assert.ErrorIs(t, err, services.ErrNotRecipient)

		_, err = conns.Accept(ctx, "carol", req.ID)
		assert.ErrorIs(t, err, services.ErrNotRecipient)
	})

	t.Run("a request can only be responded to once", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		req, err := conns.SendRequest(ctx, "alice", "bob", "")
		require.NoError(t, err)

		_, err = conns.Accept(ctx, "bob", req.ID)
		require.NoError(t, err)

		_, err = conns.Reject(ctx, "bob", req.ID)
		assert.ErrorIs(t, err, services.ErrRequestClosed)
	})

	t.Run("unknown request", func(t *testing.T) {
		conns, _ := newConnectionFixture()

		_, err := conns.Accept(ctx, "bob", "nope")
		assert.ErrorIs(t, err, services.ErrRequestNotFound)
	})
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()
	conns, chats := newConnectionFixture()

	req, err := conns.SendRequest(ctx, "alice", "bob", "")
	require.NoError(t, err)

	rejected, err := conns.Reject(ctx, "bob", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)

	// No connection, no chat.
	peers, err := conns.AcceptedPeers(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, peers)

	bobChats, err := chats.ChatsFor(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobChats)

	// The rejected request is retained on the sender's side.
	sent, err := conns.SentBy(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, models.RequestRejected, sent[0].Status)
}

func TestIncomingPending(t *testing.T) {
	ctx := context.Background()
	conns, _ := newConnectionFixture()

	first, err := conns.SendRequest(ctx, "alice", "carol", "")
	require.NoError(t, err)
	second, err := conns.SendRequest(ctx, "bob", "carol", "")
	require.NoError(t, err)

	incoming, err := conns.IncomingPending(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	// Newest first.
	assert.Equal(t, second.ID, incoming[0].ID)
	assert.Equal(t, first.ID, incoming[1].ID)

	// Responding removes it from the pending list.
	_, err = conns.Accept(ctx, "carol", first.ID)
	require.NoError(t, err)

	incoming, err = conns.IncomingPending(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, second.ID, incoming[0].ID)
}

func TestConnectionDeleteFor(t *testing.T) {
	ctx := context.Background()
	conns, _ := newConnectionFixture()

	req, err := conns.SendRequest(ctx, "alice", "bob", "")
	require.NoError(t, err)
	_, err = conns.Accept(ctx, "bob", req.ID)
	require.NoError(t, err)
	_, err = conns.SendRequest(ctx, "carol", "dave", "")
	require.NoError(t, err)

	require.NoError(t, conns.DeleteFor(ctx, "alice"))

	peers, err := conns.AcceptedPeers(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, peers)

	// Unrelated requests survive.
	incoming, err := conns.IncomingPending(ctx, "dave")
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
}
