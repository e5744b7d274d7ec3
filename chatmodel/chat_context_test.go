package chatmodel_test

import (
	"context"
	"testing"

	"github.com/solchat-ai/solchat/chatmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ChatContext(t *testing.T) {
	chatCtx := chatmodel.NewChatContext("chat-1")
	assert.Equal(t, "chat-1", chatCtx.GetChatID())

	_, ok := chatCtx.GetMetadata("model")
	assert.False(t, ok)
	chatCtx.SetMetadata("model", "gpt-5-mini")
	v, ok := chatCtx.GetMetadata("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-5-mini", v)

	// an empty chat ID gets generated
	generated := chatmodel.NewChatContext("")
	assert.NotEmpty(t, generated.GetChatID())
}

func Test_GetChatID(t *testing.T) {
	ctx := context.Background()
	_, err := chatmodel.GetChatID(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chat context")
	assert.Nil(t, chatmodel.GetChatContext(ctx))

	chatCtx := chatmodel.NewChatContext("chat-1")
	ctx = chatmodel.WithChatContext(ctx, chatCtx)

	id, err := chatmodel.GetChatID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat-1", id)
	assert.Equal(t, chatCtx, chatmodel.GetChatContext(ctx))
}

type namedResult struct {
	Name string `json:"name"`
}

func (r namedResult) GetContent() string {
	return "content: " + r.Name
}

func Test_Stringify(t *testing.T) {
	assert.Equal(t, "content: NOS", chatmodel.Stringify(namedResult{Name: "NOS"}))
	assert.Equal(t, `{"a":1}`, chatmodel.Stringify(map[string]int{"a": 1}))
	assert.Equal(t, []byte(`{"name":"NOS"}`), chatmodel.ToBytes(struct {
		Name string `json:"name"`
	}{Name: "NOS"}))
}
