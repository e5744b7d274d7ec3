package assistants

import (
	"time"
)

const (
	// DefaultMaxContextTurns bounds the conversation suffix sent to the
	// tool-selection completion.
	DefaultMaxContextTurns = 6
	// DefaultToolTimeout bounds one tool dispatch.
	DefaultToolTimeout = 30 * time.Second
	// DefaultSelectionMaxTokens bounds the selection completion.
	DefaultSelectionMaxTokens = 512
)

// Option is a function that can be used to modify the router Config.
type Option func(*Config)

type Config struct {
	// ToolsEnabled gates the whole pass; when false the pass
	// short-circuits with an empty result.
	ToolsEnabled bool

	// Model overrides the model name for the selection completion.
	Model string

	// MaxContextTurns is the number of trailing conversation turns
	// included in the selection prompt.
	MaxContextTurns int

	// ToolTimeout bounds one tool dispatch.
	ToolTimeout time.Duration

	// SelectionMaxTokens bounds the selection completion.
	SelectionMaxTokens int

	// CallbackHandler receives lifecycle notifications.
	CallbackHandler Callback

	// ProgressSink receives streamed tool-call progress events.
	ProgressSink ProgressSink
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		ToolsEnabled:       true,
		MaxContextTurns:    DefaultMaxContextTurns,
		ToolTimeout:        DefaultToolTimeout,
		SelectionMaxTokens: DefaultSelectionMaxTokens,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the given options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithToolsEnabled gates tool usage for the session.
func WithToolsEnabled(enabled bool) Option {
	return func(o *Config) {
		o.ToolsEnabled = enabled
	}
}

// WithModel overrides the model for the selection completion.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
	}
}

// WithMaxContextTurns sets the number of trailing turns sent to the
// selection completion.
func WithMaxContextTurns(n int) Option {
	return func(o *Config) {
		o.MaxContextTurns = n
	}
}

// WithToolTimeout bounds one tool dispatch.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Config) {
		o.ToolTimeout = d
	}
}

// WithSelectionMaxTokens bounds the selection completion.
func WithSelectionMaxTokens(n int) Option {
	return func(o *Config) {
		o.SelectionMaxTokens = n
	}
}

// WithCallback sets the callback handler.
func WithCallback(cb Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = cb
	}
}

// WithProgressSink sets the progress event sink.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *Config) {
		o.ProgressSink = sink
	}
}
