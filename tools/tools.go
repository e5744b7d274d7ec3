package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/solchat-ai/solchat/chatmodel"
	"github.com/solchat-ai/solchat/pkg/llmutils"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools -exclude_interfaces Tool

// ITool is a tool the model can invoke to interact with external services.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the tool, to be used in the prompt.
	Parameters() any

	// Call executes the tool with the given JSON input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

// Tool is a typed tool with a request and response shape.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// InputValidator is implemented by tools whose input can be checked
// without executing the tool. The orchestrator rejects an invocation
// that fails validation before any network call is made.
type InputValidator interface {
	ValidateInput(input string) error
}

// Validatable is implemented by request structs that need cross-field
// validation beyond what struct tags can express.
type Validatable interface {
	Validate() error
}

// Callback receives tool lifecycle notifications.
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateInput unmarshals input into I and checks the declared
// constraints: `validate` struct tags first, then the request's own
// Validate method when implemented.
func ValidateInput[I any](input string) error {
	var req I
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	if err := validate.Struct(&req); err != nil {
		return errors.WithMessage(err, "invalid input")
	}
	if v, ok := any(&req).(Validatable); ok {
		return v.Validate()
	}
	return nil
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions renders the name and description of the given tools
// as backticked JSON for prompt injection.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
