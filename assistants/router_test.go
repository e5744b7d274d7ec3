package assistants_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/solchat-ai/solchat/assistants"
	"github.com/solchat-ai/solchat/mocks/mockassistants"
	"github.com/solchat-ai/solchat/mocks/mockllms"
	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/toolcall"
	"github.com/solchat-ai/solchat/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubTool is a scriptable tool for router tests. It counts dispatches
// so tests can prove a rejected call never reached the adapter.
type stubTool struct {
	name        string
	callCount   int
	validateErr error
	callErr     error
	result      string
	lastInput   string
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub tool" }
func (t *stubTool) Parameters() any     { return map[string]any{"type": "object"} }

func (t *stubTool) CallFields() []toolcall.Field {
	return []toolcall.Field{
		{Name: "query", Type: toolcall.TypeString, Required: true},
		{Name: "max_results", Type: toolcall.TypeNumber, Default: float64(5)},
	}
}

func (t *stubTool) ValidateInput(input string) error {
	return t.validateErr
}

func (t *stubTool) Call(_ context.Context, input string) (string, error) {
	t.callCount++
	t.lastInput = input
	if t.callErr != nil {
		return "", t.callErr
	}
	return t.result, nil
}

func newMockModel(t *testing.T) *mockllms.MockModel {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("gpt-5-mini").AnyTimes()
	return mockLLM
}

func completion(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: content},
		},
	}
}

func conversation() []llms.Message {
	return []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "What is the price of NOS?"),
	}
}

func Test_RunToolPass_Success(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch", result: `{"results":[{"url":"https://nosana.io"}]}`}
	registry := tools.NewRegistry(tool)
	router := assistants.NewToolRouter(mockLLM, registry)

	var selectionMessages []llms.Message
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			selectionMessages = messages
			return completion(`<tool_call>
<tool>WebSearch</tool>
<args>
<query>NOS token price</query>
</args>
</tool_call>`), nil
		})

	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)

	// selection prompt carries the tool catalog followed by the conversation
	require.NotEmpty(t, selectionMessages)
	assert.Equal(t, llms.RoleSystem, selectionMessages[0].Role)
	assert.Contains(t, selectionMessages[0].GetContent(), "## WebSearch")
	assert.Equal(t, llms.RoleHuman, selectionMessages[len(selectionMessages)-1].Role)

	assert.Equal(t, 1, tool.callCount)
	assert.Contains(t, tool.lastInput, "NOS token price")
	// missing optional field got its declared default
	assert.Contains(t, tool.lastInput, `"max_results":5`)

	assert.Equal(t, "WebSearch", res.Invocation.Tool)
	assert.Equal(t, "NOS token price", res.Invocation.Params["query"])

	require.Len(t, res.Events, 2)
	assert.Equal(t, assistants.ProgressCall, res.Events[0].State)
	assert.Equal(t, assistants.ProgressResult, res.Events[1].State)
	assert.Equal(t, res.Events[0].ToolCallID, res.Events[1].ToolCallID)
	assert.NotEmpty(t, res.Events[0].ToolCallID)
	assert.Equal(t, "WebSearch", res.Events[0].ToolName)
	assert.Equal(t, tool.result, res.Events[1].ResultJSON)

	require.Len(t, res.Turns, 2)
	assert.Equal(t, llms.RoleTool, res.Turns[0].Role)
	require.Len(t, res.Turns[0].Parts, 1)
	tr, ok := res.Turns[0].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, res.Events[0].ToolCallID, tr.ToolCallID)
	assert.Equal(t, "WebSearch", tr.Name)
	assert.Equal(t, tool.result, tr.Content)
	assert.Equal(t, llms.RoleSystem, res.Turns[1].Role)
	assert.Contains(t, res.Turns[1].GetContent(), "tool result")
}

func Test_RunToolPass_NoTool(t *testing.T) {
	mockLLM := newMockModel(t)
	registry := tools.NewRegistry(&stubTool{name: "WebSearch"})
	router := assistants.NewToolRouter(mockLLM, registry)

	for _, content := range []string{
		"I can answer this directly.",
		"<tool_call>\n<tool></tool>\n</tool_call>",
		"",
	} {
		mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(completion(content), nil)

		res, err := router.RunToolPass(context.Background(), conversation())
		require.NoError(t, err)
		assert.Empty(t, res.Turns, "content: %q", content)
		assert.Empty(t, res.Events)
		assert.True(t, res.Invocation.IsEmpty())
	}
}

func Test_RunToolPass_ToolsDisabled(t *testing.T) {
	mockLLM := newMockModel(t)
	registry := tools.NewRegistry(&stubTool{name: "WebSearch"})
	router := assistants.NewToolRouter(mockLLM, registry, assistants.WithToolsEnabled(false))

	// no GenerateContent expectation: the pass must not reach the model
	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
	assert.Empty(t, res.Turns)
	assert.Empty(t, res.Events)
}

func Test_RunToolPass_SelectionFailure(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch"}
	registry := tools.NewRegistry(tool)
	router := assistants.NewToolRouter(mockLLM, registry)

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rate limited"))

	res, err := router.RunToolPass(context.Background(), conversation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool selection failed")
	assert.Empty(t, res.Turns)
	assert.Empty(t, res.Events)
	assert.Equal(t, 0, tool.callCount)
}

func Test_RunToolPass_UnknownTool(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch"}
	registry := tools.NewRegistry(tool)
	router := assistants.NewToolRouter(mockLLM, registry)

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>TokenPrice</tool></tool_call>"), nil)

	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, 0, tool.callCount)

	require.Len(t, res.Events, 1)
	assert.Equal(t, assistants.ProgressError, res.Events[0].State)
	assert.Contains(t, res.Events[0].ResultJSON, "unknown tool")

	require.Len(t, res.Turns, 2)
	assert.Equal(t, llms.RoleTool, res.Turns[0].Role)
	assert.Contains(t, res.Turns[0].GetContent(), "unknown tool")
}

func Test_RunToolPass_ValidationRejected(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch", validateErr: errors.New("query is required")}
	registry := tools.NewRegistry(tool)
	router := assistants.NewToolRouter(mockLLM, registry)

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>WebSearch</tool><args></args></tool_call>"), nil)

	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)

	// a rejected call never reaches the adapter
	assert.Equal(t, 0, tool.callCount)

	require.Len(t, res.Events, 2)
	assert.Equal(t, assistants.ProgressCall, res.Events[0].State)
	assert.Equal(t, assistants.ProgressError, res.Events[1].State)
	assert.Contains(t, res.Events[1].ResultJSON, "query is required")

	require.Len(t, res.Turns, 2)
	assert.Contains(t, res.Turns[0].GetContent(), "query is required")
}

func Test_RunToolPass_ToolFailure(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch", callErr: errors.New("upstream timeout")}
	registry := tools.NewRegistry(tool)
	router := assistants.NewToolRouter(mockLLM, registry)

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>WebSearch</tool><args><query>solana</query></args></tool_call>"), nil)

	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, 1, tool.callCount)

	require.Len(t, res.Events, 2)
	assert.Equal(t, assistants.ProgressCall, res.Events[0].State)
	assert.Equal(t, assistants.ProgressError, res.Events[1].State)

	// the failure flows to the answering stage as data
	require.Len(t, res.Turns, 2)
	assert.Contains(t, res.Turns[0].GetContent(), "upstream timeout")
	assert.Equal(t, llms.RoleSystem, res.Turns[1].Role)
}

func Test_RunToolPass_ContextWindow(t *testing.T) {
	mockLLM := newMockModel(t)
	registry := tools.NewRegistry(&stubTool{name: "WebSearch"})
	router := assistants.NewToolRouter(mockLLM, registry, assistants.WithMaxContextTurns(2))

	long := make([]llms.Message, 0, 10)
	for i := 0; i < 10; i++ {
		long = append(long, llms.MessageFromTextParts(llms.RoleHuman, strings.Repeat("x", i+1)))
	}

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			// system prompt plus the two trailing turns
			assert.Len(t, messages, 3)
			return completion("no tool needed"), nil
		})

	_, err := router.RunToolPass(context.Background(), long)
	require.NoError(t, err)
}

func Test_RunToolPass_ProgressSink(t *testing.T) {
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch", result: `{"ok":true}`}
	registry := tools.NewRegistry(tool)

	var published []assistants.ProgressEvent
	sink := sinkFunc(func(_ context.Context, ev assistants.ProgressEvent) {
		published = append(published, ev)
	})
	router := assistants.NewToolRouter(mockLLM, registry, assistants.WithProgressSink(sink))

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>WebSearch</tool><args><query>solana</query></args></tool_call>"), nil)

	res, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, res.Events, published)
}

type sinkFunc func(ctx context.Context, ev assistants.ProgressEvent)

func (f sinkFunc) Publish(ctx context.Context, ev assistants.ProgressEvent) {
	f(ctx, ev)
}

func Test_RunToolPass_Callbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := newMockModel(t)
	tool := &stubTool{name: "WebSearch", result: `{"ok":true}`}
	registry := tools.NewRegistry(tool)

	cb := mockassistants.NewMockCallback(ctrl)
	router := assistants.NewToolRouter(mockLLM, registry, assistants.WithCallback(cb))

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>WebSearch</tool><args><query>solana</query></args></tool_call>"), nil)

	gomock.InOrder(
		cb.EXPECT().OnSelectionStart(gomock.Any(), mockLLM, gomock.Any()),
		cb.EXPECT().OnSelectionEnd(gomock.Any(), mockLLM, gomock.Any()),
		cb.EXPECT().OnToolStart(gomock.Any(), tool, gomock.Any()),
		cb.EXPECT().OnToolEnd(gomock.Any(), tool, gomock.Any(), tool.result),
	)

	_, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
}

func Test_RunToolPass_Callbacks_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := newMockModel(t)
	registry := tools.NewRegistry(&stubTool{name: "WebSearch"})

	cb := mockassistants.NewMockCallback(ctrl)
	router := assistants.NewToolRouter(mockLLM, registry, assistants.WithCallback(cb))

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(completion("<tool_call><tool>TokenPrice</tool></tool_call>"), nil)

	cb.EXPECT().OnSelectionStart(gomock.Any(), mockLLM, gomock.Any())
	cb.EXPECT().OnSelectionEnd(gomock.Any(), mockLLM, gomock.Any())
	cb.EXPECT().OnToolNotFound(gomock.Any(), "TokenPrice")

	_, err := router.RunToolPass(context.Background(), conversation())
	require.NoError(t, err)
}
