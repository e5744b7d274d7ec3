// Package websearch provides a web search tool backed by the Tavily API,
// biased towards Solana ecosystem sources by a configurable domain
// allow-list.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/x/values"
	"github.com/solchat-ai/solchat/chatmodel"
	"github.com/solchat-ai/solchat/pkg/llmutils"
	"github.com/solchat-ai/solchat/pkg/schema"
	"github.com/solchat-ai/solchat/toolcall"
	"github.com/solchat-ai/solchat/tools"
)

const ToolName = "WebSearch"

const (
	// DefaultMaxResults is used when the call does not set max_results.
	DefaultMaxResults = 5
	// DefaultSearchDepth is used when the call does not set search_depth.
	DefaultSearchDepth = "basic"

	// Tavily rejects queries shorter than this; short queries are padded.
	minQueryLength = 5

	defaultEndpoint = "https://api.tavily.com/search"
)

// DefaultIncludeDomains biases searches towards Solana ecosystem sources.
// Configuration data, overridable per call.
var DefaultIncludeDomains = []string{
	"solana.com",
	"docs.solana.com",
	"solana.stackexchange.com",
	"github.com",
}

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query          string   `json:"query" yaml:"query" validate:"required" jsonschema:"title=query,description=The query to search the web for."`
	MaxResults     int      `json:"max_results,omitempty" yaml:"max_results,omitempty" jsonschema:"title=max_results,description=Maximum number of results to return."`
	SearchDepth    string   `json:"search_depth,omitempty" yaml:"search_depth,omitempty" jsonschema:"title=search_depth,description=Search depth: basic or advanced."`
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty" jsonschema:"title=include_domains,description=Domains to restrict the search to."`
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty" jsonschema:"title=exclude_domains,description=Domains to exclude from the search."`
}

// Result is one normalized search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Image is one image attached to the search response.
type Image struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SearchResult represents the structure for a search response.
type SearchResult struct {
	Results []Result `json:"results"`
	Images  []Image  `json:"images,omitempty"`
	Answer  string   `json:"answer,omitempty"`
}

var _ chatmodel.ContentProvider = (*SearchResult)(nil)

func (r *SearchResult) GetContent() string {
	return llmutils.ToJSON(r)
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}
	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}
	return buf.String()
}

// Config holds the injected adapter configuration.
type Config struct {
	APIKey string `json:"api_key" yaml:"api_key" validate:"required"`
	// IncludeDomains is the default domain allow-list; a call may override it.
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
}

// Tool is a tool that provides a web search functionality.
type Tool struct {
	name        string
	description string
	funcParams  any

	cfg        Config
	baseURL    string
	httpClient *http.Client
}

var (
	_ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)
	_ tools.InputValidator                    = (*Tool)(nil)
)

func New(cfg Config) (*Tool, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("websearch: API key is not set")
	}
	if cfg.IncludeDomains == nil {
		cfg.IncludeDomains = DefaultIncludeDomains
	}

	sc, err := schema.New(reflect.TypeOf(SearchRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Search the web for current information about the Solana ecosystem: projects, tokens, news, documentation.",
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		funcParams:  sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
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
		{Name: "query", Type: toolcall.TypeString, Required: true},
		{Name: "max_results", Type: toolcall.TypeNumber, Default: float64(DefaultMaxResults)},
		{Name: "search_depth", Type: toolcall.TypeString, Default: DefaultSearchDepth},
		{Name: "include_domains", Type: toolcall.TypeStringList},
		{Name: "exclude_domains", Type: toolcall.TypeStringList},
	}
}

// ValidateInput checks the call arguments without performing a search.
func (t *Tool) ValidateInput(input string) error {
	return tools.ValidateInput[SearchRequest](input)
}

func (t *Tool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	includeDomains := req.IncludeDomains
	if len(includeDomains) == 0 {
		includeDomains = t.cfg.IncludeDomains
	}

	searchReq := tavilyModels.SearchRequest{
		APIKey:         t.cfg.APIKey,
		Query:          padQuery(req.Query),
		SearchDepth:    strings.ToLower(values.StringsCoalesce(req.SearchDepth, DefaultSearchDepth)),
		MaxResults:     req.MaxResults,
		IncludeAnswer:  true,
		IncludeImages:  true,
		IncludeDomains: includeDomains,
		ExcludeDomains: req.ExcludeDomains,
	}
	if searchReq.MaxResults <= 0 {
		searchReq.MaxResults = DefaultMaxResults
	}

	searchResp, err := t.search(ctx, searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	res := &SearchResult{
		Answer: searchResp.Answer,
	}
	for _, item := range searchResp.Results {
		res.Results = append(res.Results, Result{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
			Score:   item.Score,
		})
	}
	for _, img := range searchResp.Images {
		res.Images = append(res.Images, Image{URL: img})
	}
	if len(res.Results) == 0 && res.Answer == "" {
		return nil, errors.Errorf("no results found for query: %s", req.Query)
	}

	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req SearchRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

// searchResponse carries the fields of the Tavily response, including the
// image URLs returned when include_images is set.
type searchResponse struct {
	tavilyModels.SearchResponse
	Images []string `json:"images,omitempty"`
}

func (t *Tool) search(ctx context.Context, searchReq tavilyModels.SearchRequest) (*searchResponse, error) {
	js, err := json.Marshal(searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	endpoint := values.StringsCoalesce(t.baseURL, defaultEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(js))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call search API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("search API returned status %d: %s", resp.StatusCode, string(bs))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}
	return &body, nil
}

// padQuery pads queries below the provider-side minimum length.
func padQuery(q string) string {
	if len(q) < minQueryLength {
		return q + strings.Repeat(" ", minQueryLength-len(q))
	}
	return q
}
