package openai

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/solchat-ai/solchat/pkg/llms"
	"github.com/solchat-ai/solchat/pkg/metricskey"
)

var (
	ErrEmptyResponse = errors.New("openai: no response")
	ErrMissingToken  = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")
)

type LLM struct {
	Client  openai.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM using the official OpenAI SDK.
// If no token is provided via options, the API key is read from the
// OPENAI_API_KEY environment variable.
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token: os.Getenv(TokenEnvVarName),
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(2),
	}
	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.OrgID != "" {
		sdkOpts = append(sdkOpts, option.WithOrganization(options.OrgID))
	}
	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	return &LLM{
		Client:  openai.NewClient(sdkOpts...),
		Options: options,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{
		Model: o.Options.Model,
	}
	for _, opt := range options {
		opt(&opts)
	}

	sdkMessages, err := processMessages(messages)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to process messages")
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: sdkMessages,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: opts.StopWords,
		}
	}

	if opts.StreamingFunc != nil {
		return generateStreamingContent(ctx, o, params, opts.StreamingFunc)
	}

	result, err := o.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create chat completion")
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	metricskey.StatsLLMInputTokens.IncrCounter(float64(result.Usage.PromptTokens), opts.Model)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(result.Usage.CompletionTokens), opts.Model)

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"PromptTokens":     result.Usage.PromptTokens,
				"CompletionTokens": result.Usage.CompletionTokens,
				"TotalTokens":      result.Usage.TotalTokens,
				"ID":               result.ID,
			},
		}
	}

	return &llms.ContentResponse{Choices: choices}, nil
}

// generateStreamingContent handles streaming responses from the OpenAI API.
// The streaming function is called for each text chunk received.
func generateStreamingContent(ctx context.Context, o *LLM, params openai.ChatCompletionNewParams, streamingFunc func(context.Context, []byte) error) (*llms.ContentResponse, error) {
	stream := o.Client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var content strings.Builder
	var stopReason string

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta != "" {
			content.WriteString(delta)
			if err := streamingFunc(ctx, []byte(delta)); err != nil {
				return nil, err
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			stopReason = string(chunk.Choices[0].FinishReason)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, errors.Wrap(err, "openai: streaming failed")
	}

	metricskey.StatsLLMInputTokens.IncrCounter(float64(acc.Usage.PromptTokens), string(params.Model))
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(acc.Usage.CompletionTokens), string(params.Model))

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    content.String(),
				StopReason: stopReason,
				GenerationInfo: map[string]any{
					"PromptTokens":     acc.Usage.PromptTokens,
					"CompletionTokens": acc.Usage.CompletionTokens,
					"TotalTokens":      acc.Usage.TotalTokens,
				},
			},
		},
	}, nil
}

// processMessages converts messages to the SDK chat-completion format.
func processMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	sdkMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			sdkMessages = append(sdkMessages, openai.SystemMessage(msg.GetContent()))
		case llms.RoleHuman:
			sdkMessages = append(sdkMessages, openai.UserMessage(msg.GetContent()))
		case llms.RoleAI:
			sdkMessages = append(sdkMessages, openai.AssistantMessage(msg.GetContent()))
		case llms.RoleTool:
			// Tool results are flattened as user content since tool calls
			// are carried over free text, not the native tool-use API.
			sdkMessages = append(sdkMessages, openai.UserMessage(msg.GetContent()))
		default:
			return nil, errors.Errorf("openai: role %v not supported", msg.Role)
		}
	}
	return sdkMessages, nil
}
