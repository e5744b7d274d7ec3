package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/pkg/llms/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv(openai.TokenEnvVarName, "")

	_, err := openai.New(openai.WithModel("gpt-5-mini"))
	assert.True(t, err == openai.ErrMissingToken)

	_, err = openai.New(openai.WithToken("fake-token"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	llm, err := openai.New(
		openai.WithToken("fake-token"),
		openai.WithModel("gpt-5-mini"),
		openai.WithBaseURL("https://custom.openai.com"),
		openai.WithOrganization("org-1"),
		openai.WithHTTPClient(&http.Client{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())
}

func Test_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "chat/completions")
		assert.Equal(t, "Bearer testkey", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "NOS is the Nosana token."}, "finish_reason": "stop"}
			],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	}))
	defer server.Close()

	llm, err := openai.New(
		openai.WithToken("testkey"),
		openai.WithModel("gpt-5-mini"),
		openai.WithBaseURL(server.URL),
		openai.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "what is NOS?"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "NOS is the Nosana token.", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)
	assert.EqualValues(t, 12, resp.Choices[0].GenerationInfo["PromptTokens"])
	assert.EqualValues(t, 7, resp.Choices[0].GenerationInfo["CompletionTokens"])
}

func Test_GenerateContent_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	llm, err := openai.New(
		openai.WithToken("testkey"),
		openai.WithModel("gpt-5-mini"),
		openai.WithBaseURL(server.URL),
		openai.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	assert.True(t, err == openai.ErrEmptyResponse)
}
