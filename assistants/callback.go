package assistants

import (
	"context"

	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/tools"
)

//go:generate mockgen -source=callback.go -destination=../mocks/mockassistants/callback_mock.gen.go -package mockassistants

// Callback receives lifecycle notifications from a tool pass.
// All methods are best-effort notifications; implementations must not block.
type Callback interface {
	tools.Callback
	OnSelectionStart(ctx context.Context, llm llms.Model, messages []llms.Message)
	OnSelectionEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse)
	OnSelectionError(ctx context.Context, llm llms.Model, err error)
	OnToolNotFound(ctx context.Context, toolName string)
}

// ProgressState is the lifecycle stage of one tool call.
type ProgressState string

const (
	// ProgressCall is emitted before a tool call is dispatched.
	ProgressCall ProgressState = "call"
	// ProgressResult is emitted after a tool call returned a result.
	ProgressResult ProgressState = "result"
	// ProgressError is emitted after a tool call was rejected or failed.
	ProgressError ProgressState = "error"
)

// ProgressEvent describes the lifecycle of one tool call, for streaming
// to a client. Within one call the order is `call` then `result` or
// `error`; delivery is best-effort and loss is tolerable.
type ProgressEvent struct {
	State      ProgressState `json:"state"`
	ToolCallID string        `json:"tool_call_id"`
	ToolName   string        `json:"tool_name"`
	ArgsJSON   string        `json:"args_json,omitempty"`
	ResultJSON string        `json:"result_json,omitempty"`
}

// ProgressSink receives progress events. Publish must not block the
// orchestration pass; a failed or dropped delivery is not an error.
type ProgressSink interface {
	Publish(ctx context.Context, ev ProgressEvent)
}
