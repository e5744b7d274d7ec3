package llms

import (
	"context"
)

// ProviderType identifies the backing completion provider.
type ProviderType string

const (
	// ProviderOpenAI is the OpenAI chat-completion provider.
	ProviderOpenAI ProviderType = "OPENAI"
	// ProviderAnthropic is the Anthropic messages provider.
	ProviderAnthropic ProviderType = "ANTHROPIC"
)

// Model is an interface the completion providers implement.
// The orchestration core depends only on this interface, so providers
// are swappable by configuration.
type Model interface {
	// GetName returns the configured model name, e.g. "gpt-4o-mini".
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence of
	// messages. It's the most general interface for chat-like interactions.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}
