// Package marketdata provides a token market-data tool that fans out to
// two independent sources, Birdeye and Solscan, and returns a best-effort
// aggregate. A failed source is recorded as an inline error string; the
// call fails wholesale only when every source failed and the aggregate
// carries no usable primary field.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/solchat-ai/solchat/chatmodel"
	"github.com/solchat-ai/solchat/pkg/llmutils"
	"github.com/solchat-ai/solchat/pkg/metricskey"
	"github.com/solchat-ai/solchat/pkg/schema"
	"github.com/solchat-ai/solchat/toolcall"
	"github.com/solchat-ai/solchat/tools"
)

const ToolName = "TokenMarketData"

const (
	birdeyeBaseURL = "https://public-api.birdeye.so"
	solscanBaseURL = "https://pro-api.solscan.io"
)

// MarketRequest represents the tool input. At least one of the token
// symbol or the mint address must be set; the sources themselves require
// a mint address, so the selection policy asks the model to discover the
// mint first when only a symbol is known.
type MarketRequest struct {
	TokenSymbol string `json:"token_symbol,omitempty" yaml:"token_symbol,omitempty" validate:"required_without=MintAddress" jsonschema:"title=token_symbol,description=The token ticker symbol, e.g. NOS."`
	MintAddress string `json:"mint_address,omitempty" yaml:"mint_address,omitempty" validate:"required_without=TokenSymbol" jsonschema:"title=mint_address,description=The token mint address on Solana."`
}

// BirdeyeData carries the price-side fields from Birdeye.
type BirdeyeData struct {
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"price_change_24h,omitempty"`
	Liquidity      float64 `json:"liquidity,omitempty"`
	Source         string  `json:"source"`
	SourceURL      string  `json:"source_url"`
}

// SolscanData carries the supply-side fields from Solscan.
type SolscanData struct {
	Name      string  `json:"name,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Decimals  int     `json:"decimals,omitempty"`
	Supply    string  `json:"supply,omitempty"`
	Holders   int64   `json:"holders,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Source    string  `json:"source"`
	SourceURL string  `json:"source_url"`
}

// MarketData is the aggregate result assembled from all sources.
type MarketData struct {
	TokenSymbol  string       `json:"token_symbol,omitempty"`
	MintAddress  string       `json:"mint_address,omitempty"`
	Birdeye      *BirdeyeData `json:"birdeye,omitempty"`
	BirdeyeError string       `json:"birdeye_error,omitempty"`
	Solscan      *SolscanData `json:"solscan,omitempty"`
	SolscanError string       `json:"solscan_error,omitempty"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

var _ chatmodel.ContentProvider = (*MarketData)(nil)

func (m *MarketData) GetContent() string {
	return llmutils.ToJSON(m)
}

// HasUsableField reports whether the aggregate carries at least one
// primary data point: a price or a supply figure.
func (m *MarketData) HasUsableField() bool {
	if m.Birdeye != nil && m.Birdeye.Price != 0 {
		return true
	}
	if m.Solscan != nil && m.Solscan.Supply != "" {
		return true
	}
	return false
}

// Config holds the injected adapter configuration.
type Config struct {
	BirdeyeAPIKey string `json:"birdeye_api_key" yaml:"birdeye_api_key"`
	SolscanAPIKey string `json:"solscan_api_key" yaml:"solscan_api_key"`
}

// Tool aggregates token market data from Birdeye and Solscan.
type Tool struct {
	name        string
	description string
	funcParams  any

	cfg        Config
	birdeyeURL string
	solscanURL string
	httpClient *http.Client
}

var (
	_ tools.Tool[MarketRequest, MarketData] = (*Tool)(nil)
	_ tools.InputValidator                  = (*Tool)(nil)
)

func New(cfg Config) (*Tool, error) {
	if cfg.BirdeyeAPIKey == "" && cfg.SolscanAPIKey == "" {
		return nil, errors.New("marketdata: no API keys are set")
	}
	sc, err := schema.New(reflect.TypeOf(MarketRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name:        ToolName,
		description: "Look up current market data for a Solana token: price and liquidity from Birdeye, supply and holders from Solscan.",
		funcParams:  sc.Parameters,
		cfg:         cfg,
		birdeyeURL:  birdeyeBaseURL,
		solscanURL:  solscanBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// WithBaseURLs overrides the source base URLs, for tests.
func (t *Tool) WithBaseURLs(birdeyeURL, solscanURL string) *Tool {
	t.birdeyeURL = birdeyeURL
	t.solscanURL = solscanURL
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
		{Name: "token_symbol", Type: toolcall.TypeString},
		{Name: "mint_address", Type: toolcall.TypeString},
	}
}

// ValidateInput checks the call arguments without calling any source.
func (t *Tool) ValidateInput(input string) error {
	return tools.ValidateInput[MarketRequest](input)
}

// Run fans out to all sources concurrently and waits for every one of
// them before assembling the aggregate, so the result shape is stable.
func (t *Tool) Run(ctx context.Context, req *MarketRequest) (*MarketData, error) {
	if req.TokenSymbol == "" && req.MintAddress == "" {
		return nil, errors.New("invalid request: token symbol or mint address is required")
	}

	res := &MarketData{
		TokenSymbol: req.TokenSymbol,
		MintAddress: req.MintAddress,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		data, err := t.fetchBirdeye(ctx, req.MintAddress)
		if err != nil {
			metricskey.StatsMarketSourcesFailed.IncrCounter(1, "birdeye")
			res.BirdeyeError = err.Error()
			return
		}
		res.Birdeye = data
	}()
	go func() {
		defer wg.Done()
		data, err := t.fetchSolscan(ctx, req.MintAddress)
		if err != nil {
			metricskey.StatsMarketSourcesFailed.IncrCounter(1, "solscan")
			res.SolscanError = err.Error()
			return
		}
		res.Solscan = data
	}()
	wg.Wait()

	res.FetchedAt = time.Now().UTC()

	if res.BirdeyeError != "" && res.SolscanError != "" && !res.HasUsableField() {
		return nil, errors.Errorf("all market data sources failed: birdeye: %s; solscan: %s",
			res.BirdeyeError, res.SolscanError)
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req MarketRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

func (t *Tool) fetchBirdeye(ctx context.Context, mint string) (*BirdeyeData, error) {
	if t.cfg.BirdeyeAPIKey == "" {
		return nil, errors.New("birdeye API key is not configured")
	}
	if mint == "" {
		return nil, errors.New("mint address required")
	}

	u := fmt.Sprintf("%s/defi/price?address=%s&include_liquidity=true", t.birdeyeURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("X-API-KEY", t.cfg.BirdeyeAPIKey)
	req.Header.Set("x-chain", "solana")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "birdeye request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("birdeye returned status %d", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Value           float64 `json:"value"`
			PriceChange24h  float64 `json:"priceChange24h"`
			Liquidity       float64 `json:"liquidity"`
			UpdateHumanTime string  `json:"updateHumanTime"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode birdeye response")
	}
	if !body.Success || body.Data.Value == 0 {
		return nil, errors.Errorf("birdeye returned no price for %s", mint)
	}

	return &BirdeyeData{
		Price:          body.Data.Value,
		PriceChange24h: body.Data.PriceChange24h,
		Liquidity:      body.Data.Liquidity,
		Source:         "Birdeye",
		SourceURL:      fmt.Sprintf("https://birdeye.so/token/%s?chain=solana", mint),
	}, nil
}

func (t *Tool) fetchSolscan(ctx context.Context, mint string) (*SolscanData, error) {
	if t.cfg.SolscanAPIKey == "" {
		return nil, errors.New("solscan API key is not configured")
	}
	if mint == "" {
		return nil, errors.New("mint address required")
	}

	u := fmt.Sprintf("%s/v2.0/token/meta?address=%s", t.solscanURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("token", t.cfg.SolscanAPIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "solscan request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("solscan returned status %d", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Name      string  `json:"name"`
			Symbol    string  `json:"symbol"`
			Decimals  int     `json:"decimals"`
			Supply    string  `json:"supply"`
			Holder    int64   `json:"holder"`
			MarketCap float64 `json:"market_cap"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode solscan response")
	}
	if !body.Success || body.Data.Supply == "" {
		return nil, errors.Errorf("solscan returned no token meta for %s", mint)
	}

	return &SolscanData{
		Name:      body.Data.Name,
		Symbol:    body.Data.Symbol,
		Decimals:  body.Data.Decimals,
		Supply:    body.Data.Supply,
		Holders:   body.Data.Holder,
		MarketCap: body.Data.MarketCap,
		Source:    "Solscan",
		SourceURL: "https://solscan.io/token/" + mint,
	}, nil
}
