// Package webfetch provides a page-retrieval tool. Two interchangeable
// backends are supported, a Jina reader and the Exa contents API, and the
// configured API key selects which one is active.
package webfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/solchat-ai/solchat/chatmodel"
	"github.com/solchat-ai/solchat/pkg/llmutils"
	"github.com/solchat-ai/solchat/pkg/schema"
	"github.com/solchat-ai/solchat/toolcall"
	"github.com/solchat-ai/solchat/tools"
)

const ToolName = "FetchPage"

// MaxContentLength caps the retrieved page content, in characters.
const MaxContentLength = 10000

const (
	jinaBaseURL = "https://r.jina.ai"
	exaBaseURL  = "https://api.exa.ai"
)

// FetchRequest represents the tool input.
type FetchRequest struct {
	URL string `json:"url" yaml:"url" validate:"required,url" jsonschema:"title=url,description=The URL of the page to retrieve."`
}

// PageContent is the normalized retrieval result.
type PageContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

var _ chatmodel.ContentProvider = (*PageContent)(nil)

func (p *PageContent) GetContent() string {
	return llmutils.ToJSON(p)
}

// Config holds the injected adapter configuration.
// Exactly one of the API keys must be set.
type Config struct {
	JinaAPIKey string `json:"jina_api_key,omitempty" yaml:"jina_api_key,omitempty"`
	ExaAPIKey  string `json:"exa_api_key,omitempty" yaml:"exa_api_key,omitempty"`
}

type backend interface {
	fetch(ctx context.Context, pageURL string) (*PageContent, error)
}

// Tool retrieves readable page content through the configured backend.
type Tool struct {
	name        string
	description string
	funcParams  any

	backend backend
}

var (
	_ tools.Tool[FetchRequest, PageContent] = (*Tool)(nil)
	_ tools.InputValidator                  = (*Tool)(nil)
)

func New(cfg Config) (*Tool, error) {
	if cfg.JinaAPIKey != "" && cfg.ExaAPIKey != "" {
		return nil, errors.New("webfetch: configure either the Jina or the Exa API key, not both")
	}

	client := &http.Client{Timeout: 20 * time.Second}
	var be backend
	switch {
	case cfg.JinaAPIKey != "":
		be = &jinaBackend{apiKey: cfg.JinaAPIKey, baseURL: jinaBaseURL, httpClient: client}
	case cfg.ExaAPIKey != "":
		be = &exaBackend{apiKey: cfg.ExaAPIKey, baseURL: exaBaseURL, httpClient: client}
	default:
		return nil, errors.New("webfetch: no API key is set")
	}

	sc, err := schema.New(reflect.TypeOf(FetchRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name:        ToolName,
		description: "Retrieve the readable content of a web page by URL, for follow-up on a search result.",
		funcParams:  sc.Parameters,
		backend:     be,
	}, nil
}

// WithBackendURL overrides the backend base URL, for tests.
func (t *Tool) WithBackendURL(baseURL string) *Tool {
	switch be := t.backend.(type) {
	case *jinaBackend:
		be.baseURL = baseURL
	case *exaBackend:
		be.baseURL = baseURL
	}
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

// CallFields declares the parse contract for markup tool calls.
func (t *Tool) CallFields() []toolcall.Field {
	return []toolcall.Field{
		{Name: "url", Type: toolcall.TypeString, Required: true},
	}
}

// ValidateInput checks the call arguments without fetching.
func (t *Tool) ValidateInput(input string) error {
	return tools.ValidateInput[FetchRequest](input)
}

func (t *Tool) Run(ctx context.Context, req *FetchRequest) (*PageContent, error) {
	if req.URL == "" {
		return nil, errors.New("invalid request: empty url")
	}

	page, err := t.backend.fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	if runes := []rune(page.Content); len(runes) > MaxContentLength {
		page.Content = string(runes[:MaxContentLength])
	}
	if page.URL == "" {
		page.URL = req.URL
	}
	return page, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req FetchRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

// jinaBackend reads pages through the Jina reader endpoint.
type jinaBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func (b *jinaBackend) fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/"+pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("reader returned status %d for %s", resp.StatusCode, pageURL)
	}

	var body struct {
		Data struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode reader response")
	}
	if body.Data.Content == "" {
		return nil, errors.Errorf("reader returned empty content for %s", pageURL)
	}
	return &PageContent{
		Title:   body.Data.Title,
		Content: body.Data.Content,
		URL:     body.Data.URL,
	}, nil
}

// exaBackend reads pages through the Exa contents API.
type exaBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func (b *exaBackend) fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	payload := map[string]any{
		"urls": []string{pageURL},
		"text": true,
	}
	js, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/contents", bytes.NewReader(js))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("contents API returned status %d: %s", resp.StatusCode, string(bs))
	}

	var body struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode contents response")
	}
	if len(body.Results) == 0 || body.Results[0].Text == "" {
		return nil, errors.Errorf("contents API returned no content for %s", pageURL)
	}
	return &PageContent{
		Title:   body.Results[0].Title,
		Content: body.Results[0].Text,
		URL:     body.Results[0].URL,
	}, nil
}
