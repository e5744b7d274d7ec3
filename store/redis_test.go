package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (store.ChatStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewRedisStore(client, "/test"), mr
}

func Test_RedisStore_Messages(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := chatCtx("chat-1")

	assert.Empty(t, s.Messages(ctx))

	require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "what is the NOS mint?")))
	require.NoError(t, s.Add(ctx, llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
		ToolCallID: "call-1",
		Name:       "WebSearch",
		Content:    `{"results":[]}`,
	})))
	require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleAI, "here it is")))

	msgs := s.Messages(ctx)
	require.Len(t, msgs, 3)
	assert.Equal(t, llms.RoleHuman, msgs[0].Role)
	assert.Equal(t, "what is the NOS mint?\n", msgs[0].GetContent())

	// tool response parts survive the round trip
	require.Len(t, msgs[1].Parts, 1)
	tr, ok := msgs[1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call-1", tr.ToolCallID)
	assert.Equal(t, "WebSearch", tr.Name)
	assert.Equal(t, `{"results":[]}`, tr.Content)

	// chats are isolated by chat ID
	assert.Empty(t, s.Messages(chatCtx("chat-2")))
}

func Test_RedisStore_HistoryCap(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := chatCtx("chat-1")

	for i := 0; i < 60; i++ {
		require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, fmt.Sprintf("message %d", i))))
	}

	msgs := s.Messages(ctx)
	require.Len(t, msgs, 50)
	// oldest messages were trimmed
	assert.Equal(t, "message 10\n", msgs[0].GetContent())
	assert.Equal(t, "message 59\n", msgs[49].GetContent())
}

func Test_RedisStore_ChatInfo(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := chatCtx("chat-1")

	require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hi")))

	info, err := s.GetChatInfo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", info.ChatID)
	assert.Equal(t, "New Chat", info.Title)
	assert.False(t, info.CreatedAt.IsZero())
	assert.Len(t, info.Messages, 1)

	require.NoError(t, s.UpdateChat(ctx, "NOS research", map[string]any{"pinned": true}))

	info, err = s.GetChatInfo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "NOS research", info.Title)
	assert.Equal(t, true, info.Metadata["pinned"])

	// adding a message must not clobber the title
	require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleAI, "hello")))
	info, err = s.GetChatInfo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "NOS research", info.Title)

	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat-1"}, chats)
}

func Test_RedisStore_Reset(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := chatCtx("chat-1")

	require.NoError(t, s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hi")))
	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)

	require.NoError(t, s.Reset(ctx))
	assert.Empty(t, s.Messages(ctx))

	chats, err = s.ListChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func Test_RedisStore_Cleanup(t *testing.T) {
	s, mr := newRedisStore(t)
	staleCtx := chatCtx("stale")
	freshCtx := chatCtx("fresh")

	require.NoError(t, s.Add(staleCtx, llms.MessageFromTextParts(llms.RoleHuman, "old")))
	require.NoError(t, s.Add(freshCtx, llms.MessageFromTextParts(llms.RoleHuman, "new")))

	// age the stale chat by rewriting its stored info
	info, err := s.GetChatInfo(staleCtx, "")
	require.NoError(t, err)
	info.UpdatedAt = time.Now().Add(-48 * time.Hour)
	info.Messages = nil
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, mr.Set("/test/chatstore/info/stale", string(data)))

	deleted, err := s.Cleanup(staleCtx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), deleted)

	assert.Empty(t, s.Messages(staleCtx))
	require.Len(t, s.Messages(freshCtx), 1)

	chats, err := s.ListChats(freshCtx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, chats)
}

func Test_RedisStore_NoChatContext(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	assert.Nil(t, s.Messages(ctx))
	err := s.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chat context")
}
