package callbacks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/solchat-ai/solchat/assistants"
	"github.com/solchat-ai/solchat/callbacks"
	"github.com/solchat-ai/solchat/mocks/mockllms"
	"github.com/solchat-ai/solchat/mocks/mocktools"
	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Printer(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("gpt-5-mini").AnyTimes()
	mockTool := mocktools.NewMockITool(ctrl)
	mockTool.EXPECT().Name().Return("WebSearch").AnyTimes()

	ctx := context.Background()
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "<tool_call><tool>WebSearch</tool></tool_call>"},
		},
	}

	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	cb.OnSelectionStart(ctx, mockLLM, []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	cb.OnSelectionEnd(ctx, mockLLM, resp)
	cb.OnSelectionError(ctx, mockLLM, errors.New("rate limited"))
	cb.OnToolStart(ctx, mockTool, `{"query":"solana"}`)
	cb.OnToolEnd(ctx, mockTool, `{"query":"solana"}`, `{"results":[]}`)
	cb.OnToolError(ctx, mockTool, `{"query":"solana"}`, errors.New("upstream timeout"))
	cb.OnToolNotFound(ctx, "TokenPrice")

	out := buf.String()
	assert.Contains(t, out, "Selection Start: gpt-5-mini model, 1 messages")
	assert.Contains(t, out, "Selection End: gpt-5-mini model")
	assert.Contains(t, out, "Selection Error: gpt-5-mini: rate limited")
	assert.Contains(t, out, "Tool Start: WebSearch")
	assert.Contains(t, out, `Input: {"query":"solana"}`)
	assert.Contains(t, out, "Tool End: WebSearch")
	assert.Contains(t, out, "Tool Error: WebSearch: upstream timeout")
	assert.Contains(t, out, "Tool Not Found: TokenPrice")
	// default mode elides payloads
	assert.NotContains(t, out, "Output:")
	assert.NotContains(t, out, "<tool_call>")

	buf.Reset()
	verbose := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)
	verbose.OnSelectionEnd(ctx, mockLLM, resp)
	verbose.OnToolEnd(ctx, mockTool, `{"query":"solana"}`, `{"results":[]}`)

	out = buf.String()
	assert.Contains(t, out, "<tool_call><tool>WebSearch</tool></tool_call>")
	assert.Contains(t, out, `Output: {"results":[]}`)
}

func Test_Fanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("gpt-5-mini").AnyTimes()
	mockTool := mocktools.NewMockITool(ctrl)
	mockTool.EXPECT().Name().Return("WebSearch").AnyTimes()

	ctx := context.Background()
	var buf1, buf2 bytes.Buffer
	fanout := callbacks.NewFanout(
		callbacks.NewNoop(),
		callbacks.NewPrinter(&buf1, callbacks.ModeDefault),
	)
	fanout.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))

	fanout.OnToolStart(ctx, mockTool, "{}")
	fanout.OnToolNotFound(ctx, "TokenPrice")

	for _, buf := range []*bytes.Buffer{&buf1, &buf2} {
		assert.Contains(t, buf.String(), "Tool Start: WebSearch")
		assert.Contains(t, buf.String(), "Tool Not Found: TokenPrice")
	}
}

func Test_Streamer(t *testing.T) {
	s := callbacks.NewStreamer(2)
	ctx := context.Background()

	ev1 := assistants.ProgressEvent{State: assistants.ProgressCall, ToolCallID: "1", ToolName: "WebSearch"}
	ev2 := assistants.ProgressEvent{State: assistants.ProgressResult, ToolCallID: "1", ToolName: "WebSearch"}
	ev3 := assistants.ProgressEvent{State: assistants.ProgressCall, ToolCallID: "2", ToolName: "WebFetch"}

	s.Publish(ctx, ev1)
	s.Publish(ctx, ev2)
	// buffer is full, the slow consumer loses this one
	s.Publish(ctx, ev3)
	s.Close()

	var got []assistants.ProgressEvent
	for ev := range s.Events() {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, ev1, got[0])
	assert.Equal(t, ev2, got[1])

	// publish after close must not panic
	s.Publish(ctx, ev1)
	s.Close()
}
