package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message is rejected without a provider call", func(t *testing.T) {
		llm := &fakeGenerator{}
		svc := NewChatService(&fakeChatStore{}, llm)

		_, err := svc.Respond(ctx, "user-1", "   ", "text", "en")
		require.Error(t, err)
		textCalls, _ := llm.calls()
		assert.Zero(t, textCalls)
	})

	t.Run("successful reply is persisted", func(t *testing.T) {
		db := &fakeChatStore{}
		svc := NewChatService(db, &fakeGenerator{textResp: "Water your tomatoes in the morning."})

		reply, err := svc.Respond(ctx, "user-1", "When should I water tomatoes?", "text", "en")
		require.NoError(t, err)
		assert.True(t, reply.Persisted)
		assert.NotEmpty(t, reply.MessageID)
		assert.Equal(t, "Water your tomatoes in the morning.", reply.Response)
		require.Len(t, db.messages, 1)
		assert.Equal(t, "When should I water tomatoes?", db.messages[0].Message)
	})

	t.Run("provider failure yields the static fallback reply", func(t *testing.T) {
		db := &fakeChatStore{}
		svc := NewChatService(db, &fakeGenerator{textErr: errors.New("gemini down")})

		reply, err := svc.Respond(ctx, "user-1", "Help my plants", "text", "en")
		require.NoError(t, err)
		assert.Contains(t, reply.Response, "Plant Care Assistant")
		// The fallback exchange is still recorded.
		assert.True(t, reply.Persisted)
	})

	t.Run("fallback reply is language matched", func(t *testing.T) {
		svc := NewChatService(&fakeChatStore{}, &fakeGenerator{textErr: errors.New("gemini down")})

		reply, err := svc.Respond(ctx, "user-1", "உதவி", "text", "ta")
		require.NoError(t, err)
		assert.Contains(t, reply.Response, "தாவர பராமரிப்பு")
	})

	t.Run("unsupported language code gets the english fallback", func(t *testing.T) {
		db := &fakeChatStore{}
		svc := NewChatService(db, &fakeGenerator{textErr: errors.New("gemini down")})

		reply, err := svc.Respond(ctx, "user-1", "aidez-moi", "text", "fr")
		require.NoError(t, err)
		assert.Contains(t, reply.Response, "Plant Care Assistant")
		require.Len(t, db.messages, 1)
		assert.Equal(t, "en", db.messages[0].Language)
	})

	t.Run("store failure degrades but keeps the reply", func(t *testing.T) {
		db := &fakeChatStore{createErr: errors.New("db unreachable")}
		svc := NewChatService(db, &fakeGenerator{textResp: "Advice text"})

		reply, err := svc.Respond(ctx, "user-1", "Question", "text", "en")
		require.NoError(t, err)
		assert.False(t, reply.Persisted)
		assert.Empty(t, reply.MessageID)
		assert.Equal(t, "Advice text", reply.Response)
	})
}

func TestChatHistoryAndClear(t *testing.T) {
	ctx := context.Background()
	db := &fakeChatStore{}
	svc := NewChatService(db, &fakeGenerator{textResp: "reply"})

	t.Run("clearing an empty history succeeds", func(t *testing.T) {
		require.NoError(t, svc.ClearHistory("user-1"))
		messages, err := svc.History("user-1")
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("history returns only the owner's messages", func(t *testing.T) {
		_, err := svc.Respond(ctx, "user-1", "first", "text", "en")
		require.NoError(t, err)
		_, err = svc.Respond(ctx, "user-2", "other", "text", "en")
		require.NoError(t, err)

		messages, err := svc.History("user-1")
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "first", messages[0].Message)
	})

	t.Run("clear removes all owner messages and is idempotent", func(t *testing.T) {
		require.NoError(t, svc.ClearHistory("user-1"))
		require.NoError(t, svc.ClearHistory("user-1"))

		messages, err := svc.History("user-1")
		require.NoError(t, err)
		assert.Empty(t, messages)

		others, err := svc.History("user-2")
		require.NoError(t, err)
		assert.Len(t, others, 1)
	})
}
