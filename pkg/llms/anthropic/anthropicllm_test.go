package anthropic_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "")

	_, err := anthropic.New(anthropic.WithModel("claude-haiku-4-5"))
	assert.True(t, err == anthropic.ErrMissingToken)

	_, err = anthropic.New(anthropic.WithToken("fake-token"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-haiku-4-5"),
		anthropic.WithBaseURL("https://custom.anthropic.com"),
		anthropic.WithHTTPClient(&http.Client{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", llm.GetName())
	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())
}

func Test_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "messages")
		assert.Equal(t, "testkey", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "NOS is the Nosana token."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("testkey"),
		anthropic.WithModel("claude-haiku-4-5"),
		anthropic.WithBaseURL(server.URL),
		anthropic.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "You are a Solana assistant."),
		llms.MessageFromTextParts(llms.RoleHuman, "what is NOS?"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "NOS is the Nosana token.", resp.Choices[0].Content)
	assert.Equal(t, "end_turn", resp.Choices[0].StopReason)
	assert.EqualValues(t, 12, resp.Choices[0].GenerationInfo["InputTokens"])
	assert.EqualValues(t, 7, resp.Choices[0].GenerationInfo["OutputTokens"])
}

func Test_GenerateContent_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [],
			"usage": {"input_tokens": 3, "output_tokens": 0}
		}`))
	}))
	defer server.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("testkey"),
		anthropic.WithModel("claude-haiku-4-5"),
		anthropic.WithBaseURL(server.URL),
		anthropic.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	assert.True(t, err == anthropic.ErrEmptyResponse)
}
