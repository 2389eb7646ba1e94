package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

func TestEnsureChat(t *testing.T) {
	ctx := context.Background()
	chats := services.NewMemoryChatService()

	first, err := chats.EnsureChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ChatID("alice", "bob"), first.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, first.Participants)

	// The pair maps to the same chat regardless of argument order.
	again, err := chats.EnsureChat(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.CreatedAt, again.CreatedAt)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("appends in order and tracks the last message", func(t *testing.T) {
		chats := services.NewMemoryChatService()
		chat, err := chats.EnsureChat(ctx, "alice", "bob")
		require.NoError(t, err)

		m1, err := chats.SendMessage(ctx, chat.ID, "alice", "hi bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", m1.ToUserID)
		assert.False(t, m1.Read)

		m2, err := chats.SendMessage(ctx, chat.ID, "bob", "hi alice")
		require.NoError(t, err)

		msgs, err := chats.Messages(ctx, chat.ID, "alice")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, m1.ID, msgs[0].ID)
		assert.Equal(t, m2.ID, msgs[1].ID)

		listed, err := chats.ChatsFor(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.NotNil(t, listed[0].LastMessage)
		assert.Equal(t, m2.ID, listed[0].LastMessage.ID)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		chats := services.NewMemoryChatService()
		chat, err := chats.EnsureChat(ctx, "alice", "bob")
		require.NoError(t, err)

		_, err = chats.SendMessage(ctx, chat.ID, "alice", "   ")
		assert.ErrorIs(t, err, services.ErrEmptyMessage)
	})

	t.Run("rejects outsiders", func(t *testing.T) {
		chats := services.NewMemoryChatService()
		chat, err := chats.EnsureChat(ctx, "alice", "bob")
		require.NoError(t, err)

		_, err = chats.SendMessage(ctx, chat.ID, "carol", "let me in")
		assert.ErrorIs(t, err, services.ErrNotParticipant)

		_, err = chats.Messages(ctx, chat.ID, "carol")
		assert.ErrorIs(t, err, services.ErrNotParticipant)
	})

	t.Run("unknown chat", func(t *testing.T) {
		chats := services.NewMemoryChatService()

		_, err := chats.SendMessage(ctx, "missing", "alice", "hello?")
		assert.ErrorIs(t, err, services.ErrChatNotFound)
	})
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	chats := services.NewMemoryChatService()
	chat, err := chats.EnsureChat(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = chats.SendMessage(ctx, chat.ID, "alice", "one")
	require.NoError(t, err)
	_, err = chats.SendMessage(ctx, chat.ID, "alice", "two")
	require.NoError(t, err)
	_, err = chats.SendMessage(ctx, chat.ID, "bob", "reply")
	require.NoError(t, err)

	// Bob has two unread, alice one.
	updated, err := chats.MarkRead(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	// Second pass is a no-op.
	updated, err = chats.MarkRead(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)

	msgs, err := chats.Messages(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.True(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)
	assert.False(t, msgs[2].Read)
}

func TestChatsForOrdering(t *testing.T) {
	ctx := context.Background()
	chats := services.NewMemoryChatService()

	older, err := chats.EnsureChat(ctx, "alice", "bob")
	require.NoError(t, err)
	newer, err := chats.EnsureChat(ctx, "alice", "carol")
	require.NoError(t, err)

	// A message in the older chat bumps it to the top.
	_, err = chats.SendMessage(ctx, older.ID, "bob", "ping")
	require.NoError(t, err)

	listed, err := chats.ChatsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, older.ID, listed[0].ID)
	assert.Equal(t, newer.ID, listed[1].ID)
}

func TestChatDeleteFor(t *testing.T) {
	ctx := context.Background()
	chats := services.NewMemoryChatService()

	mine, err := chats.EnsureChat(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = chats.SendMessage(ctx, mine.ID, "alice", "bye")
	require.NoError(t, err)
	other, err := chats.EnsureChat(ctx, "carol", "dave")
	require.NoError(t, err)

	require.NoError(t, chats.DeleteFor(ctx, "alice"))

	bobChats, err := chats.ChatsFor(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobChats)

	carolChats, err := chats.ChatsFor(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, carolChats, 1)
	assert.Equal(t, other.ID, carolChats[0].ID)
}
