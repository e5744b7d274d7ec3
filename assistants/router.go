package assistants

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/pkg/llmutils"
	"github.com/solchat-ai/solchat/pkg/metricskey"
	"github.com/solchat-ai/solchat/toolcall"
	"github.com/solchat-ai/solchat/tools"
)

var logger = xlog.NewPackageLogger("github.com/solchat-ai/solchat", "assistants")

// callFielder is implemented by tools that declare a markup parse
// contract for their parameters.
type callFielder interface {
	CallFields() []toolcall.Field
}

// ToolPassResult is the outcome of one orchestration pass. Turns are
// returned for the caller to append; the router never mutates the
// conversation it was given.
type ToolPassResult struct {
	// Turns to append to the conversation before the answering stage;
	// empty when no tool was selected.
	Turns []llms.Message
	// Events emitted during the pass, in emission order.
	Events []ProgressEvent
	// Invocation that was dispatched; empty when no tool was selected.
	Invocation toolcall.Invocation
}

// ToolRouter runs the tool selection and execution pass. One router is
// safe for concurrent use across conversations; a single conversation
// must not run overlapping passes.
type ToolRouter struct {
	llm      llms.Model
	registry *tools.Registry
	cfg      *Config
}

// NewToolRouter creates a router over the given model and tool registry.
func NewToolRouter(llm llms.Model, registry *tools.Registry, options ...Option) *ToolRouter {
	return &ToolRouter{
		llm:      llm,
		registry: registry,
		cfg:      NewConfig(options...),
	}
}

// RunToolPass executes one pass: select a tool with one model
// completion, parse the completion into an invocation, validate and
// dispatch it, and synthesize the two turns carrying the tool result and
// the answering instruction.
//
// Adapter failures are captured as data in the synthesized turns. Only a
// failure of the selection completion itself is returned as an error,
// together with an empty result, so the caller can proceed to the
// answering stage without tool augmentation.
func (r *ToolRouter) RunToolPass(ctx context.Context, conversation []llms.Message, opts ...Option) (*ToolPassResult, error) {
	cfg := r.cfg.Apply(opts...)
	res := &ToolPassResult{}

	if !cfg.ToolsEnabled {
		return res, nil
	}

	started := time.Now()
	defer metricskey.PerfToolPass.MeasureSince(started, r.llm.GetName())

	raw, err := r.selectTool(ctx, cfg, conversation)
	if err != nil {
		metricskey.StatsToolSelectionFailed.IncrCounter(1, r.llm.GetName())
		metricskey.StatsToolPassesCompleted.IncrCounter(1, "selection_failed")
		return res, errors.WithMessage(err, "tool selection failed")
	}

	name := toolcall.ParseName(raw)
	if name == "" {
		metricskey.StatsToolPassesCompleted.IncrCounter(1, "no_tool")
		return res, nil
	}

	tool := r.registry.Get(name)
	if tool == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnToolNotFound(ctx, name)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", name,
			"available_tools", r.registry.Names(),
		)
		inv := toolcall.Invocation{Tool: name}
		res.Invocation = inv
		r.failCall(ctx, cfg, res, inv, uuid.NewString(),
			errors.Errorf("unknown tool %q, available tools: %v", name, r.registry.Names()))
		metricskey.StatsToolPassesCompleted.IncrCounter(1, "tool_not_found")
		return res, nil
	}

	var fields []toolcall.Field
	if fp, ok := tool.(callFielder); ok {
		fields = fp.CallFields()
	}
	inv := toolcall.Parse(raw, fields)
	res.Invocation = inv

	callID := uuid.NewString()
	argsJSON := inv.ArgsJSON()

	r.publish(ctx, cfg, res, ProgressEvent{
		State:      ProgressCall,
		ToolCallID: callID,
		ToolName:   tool.Name(),
		ArgsJSON:   argsJSON,
	})

	// Reject calls with missing required parameters before any network
	// call is made.
	if iv, ok := tool.(tools.InputValidator); ok {
		if err := iv.ValidateInput(argsJSON); err != nil {
			metricskey.StatsToolCallsRejected.IncrCounter(1, tool.Name())
			r.failCall(ctx, cfg, res, inv, callID, errors.WithMessage(err, "invalid tool call"))
			metricskey.StatsToolPassesCompleted.IncrCounter(1, "rejected")
			return res, nil
		}
	}

	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnToolStart(ctx, tool, argsJSON)
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.ToolTimeout)
	defer cancel()

	callStarted := time.Now()
	out, err := tool.Call(callCtx, argsJSON)
	metricskey.PerfToolCall.MeasureSince(callStarted, tool.Name())

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, tool.Name())
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnToolError(ctx, tool, argsJSON, err)
		}
		r.failCall(ctx, cfg, res, inv, callID, err)
		metricskey.StatsToolPassesCompleted.IncrCounter(1, "tool_failed")
		return res, nil
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, tool.Name())
	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnToolEnd(ctx, tool, argsJSON, out)
	}

	r.publish(ctx, cfg, res, ProgressEvent{
		State:      ProgressResult,
		ToolCallID: callID,
		ToolName:   tool.Name(),
		ArgsJSON:   argsJSON,
		ResultJSON: out,
	})

	res.Turns = synthesizeTurns(callID, tool.Name(), out)

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_pass_done",
		"tool", tool.Name(),
		"tool_call_id", callID,
		"result", slices.StringUpto(out, 64),
	)
	metricskey.StatsToolPassesCompleted.IncrCounter(1, "ok")
	return res, nil
}

// selectTool issues the single selection completion over a bounded
// suffix of the conversation and returns the raw model text.
func (r *ToolRouter) selectTool(ctx context.Context, cfg *Config, conversation []llms.Message) (string, error) {
	prompt, err := selectionPromptTemplate.FormatPrompt(map[string]any{
		"tool_catalog": r.registry.Catalog(),
	})
	if err != nil {
		return "", errors.WithMessage(err, "failed to format selection prompt")
	}

	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, prompt.String()),
	}
	messages = append(messages, conversationTail(conversation, cfg.MaxContextTurns)...)

	callOpts := []llms.CallOption{
		llms.WithTemperature(0),
		llms.WithMaxTokens(cfg.SelectionMaxTokens),
	}
	if cfg.Model != "" {
		callOpts = append(callOpts, llms.WithModel(cfg.Model))
	}

	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnSelectionStart(ctx, r.llm, messages)
	}

	resp, err := r.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnSelectionError(ctx, r.llm, err)
		}
		return "", err
	}

	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnSelectionEnd(ctx, r.llm, resp)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// failCall records a failed tool call: an error progress event plus the
// synthesized failure turns, without any adapter retry.
func (r *ToolRouter) failCall(ctx context.Context, cfg *Config, res *ToolPassResult, inv toolcall.Invocation, callID string, err error) {
	failure := llmutils.ToJSON(map[string]string{
		"error": err.Error(),
	})
	r.publish(ctx, cfg, res, ProgressEvent{
		State:      ProgressError,
		ToolCallID: callID,
		ToolName:   inv.Tool,
		ArgsJSON:   inv.ArgsJSON(),
		ResultJSON: failure,
	})
	res.Turns = synthesizeTurns(callID, inv.Tool, failure)
}

// publish records the event on the result and forwards it to the
// configured sink. Sink delivery is best-effort.
func (r *ToolRouter) publish(ctx context.Context, cfg *Config, res *ToolPassResult, ev ProgressEvent) {
	res.Events = append(res.Events, ev)
	if cfg.ProgressSink != nil {
		cfg.ProgressSink.Publish(ctx, ev)
	}
}

// synthesizeTurns produces the two turns appended after a tool call: the
// serialized tool result, and the fixed instruction for the answering
// stage.
func synthesizeTurns(callID, toolName, content string) []llms.Message {
	return []llms.Message{
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: callID,
			Name:       toolName,
			Content:    content,
		}),
		llms.MessageFromTextParts(llms.RoleSystem, answerInstruction),
	}
}

// conversationTail returns the trailing suffix of the conversation,
// bounded to maxTurns messages.
func conversationTail(conversation []llms.Message, maxTurns int) []llms.Message {
	if maxTurns <= 0 || len(conversation) <= maxTurns {
		return conversation
	}
	return conversation[len(conversation)-maxTurns:]
}
