package prompts

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/solchat-ai/solchat/pkg/llms"
)

// PromptValue is the interface that all prompt values must implement.
type PromptValue interface {
	String() string
	Messages() []llms.Message
}

// FormatPrompter renders a prompt template from input values.
type FormatPrompter interface {
	FormatPrompt(values map[string]any) (PromptValue, error)
	GetInputVariables() []string
}

// StringPromptValue is a prompt value that is a string.
type StringPromptValue string

func (v StringPromptValue) String() string {
	return string(v)
}

// Messages returns the prompt as a single system message.
func (v StringPromptValue) Messages() []llms.Message {
	return []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, string(v)),
	}
}

// PromptTemplate is a text template with `{variable}` placeholders.
type PromptTemplate struct {
	// Template is the prompt template.
	Template string
	// InputVariables is a list of variable names the prompt template expects.
	InputVariables []string
}

var _ FormatPrompter = (*PromptTemplate)(nil)

// NewPromptTemplate returns a new prompt template.
func NewPromptTemplate(template string, inputVars []string) *PromptTemplate {
	return &PromptTemplate{
		Template:       template,
		InputVariables: inputVars,
	}
}

// FormatPrompt formats the prompt template with the given values.
// Every declared input variable must be present in values.
func (p *PromptTemplate) FormatPrompt(values map[string]any) (PromptValue, error) {
	res := p.Template
	for _, name := range p.InputVariables {
		val, ok := values[name]
		if !ok {
			return nil, errors.Errorf("missing prompt input variable: %s", name)
		}
		res = strings.ReplaceAll(res, "{"+name+"}", fmt.Sprint(val))
	}
	return StringPromptValue(res), nil
}

// GetInputVariables returns the input variables the prompt expects.
func (p *PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}
