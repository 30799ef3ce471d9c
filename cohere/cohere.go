package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ncecere/recommendation-fn/provider"
	"github.com/ncecere/recommendation-fn/providerutil"
)

// DefaultBaseURL is the public Cohere API root.
const DefaultBaseURL = "https://api.cohere.ai"

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "command"

// ErrNoGenerations is returned when the generate endpoint answers
// successfully but the response carries no generations.
var ErrNoGenerations = errors.New("cohere: response contained no generations")

// ErrMalformedGeneration is returned when the first generation is null
// or carries no text.
var ErrMalformedGeneration = errors.New("cohere: first generation has no text")

// Client is a Cohere provider client for the legacy generate API.
//
// It can be configured explicitly via ClientOptions or implicitly via
// environment variables. See NewClient for details.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient provider.HTTPClient
	headers    http.Header
}

// NewClient creates a new Cohere client.
//
// Environment variables:
//   - COHERE_API_KEY (required if opts.APIKey is empty)
//   - COHERE_BASE_URL (optional, defaults to https://api.cohere.ai)
func NewClient(opts provider.ClientOptions) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("COHERE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("cohere: missing API key; set ClientOptions.APIKey or COHERE_API_KEY")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("COHERE_BASE_URL")
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	hc := opts.HTTPClient
	if hc == nil {
		hc = providerutil.DefaultHTTPClient()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: hc,
		headers:    opts.Headers,
	}, nil
}

func (c *Client) generateURL() string {
	if strings.HasSuffix(c.baseURL, "/v1") {
		return c.baseURL + "/generate"
	}
	return c.baseURL + "/v1/generate"
}

// CompletionModel returns a CompletionModel bound to the given
// generation model ID. An empty ID selects DefaultModel.
func (c *Client) CompletionModel(model string) provider.CompletionModel {
	if model == "" {
		model = DefaultModel
	}
	return &completionModel{client: c, model: model}
}

type completionModel struct {
	client *Client
	model  string
}

type generateRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	P             *float64 `json:"p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

type generation struct {
	ID           string  `json:"id"`
	Text         *string `json:"text"`
	FinishReason string  `json:"finish_reason"`
}

type generateResponse struct {
	ID          string        `json:"id"`
	Generations []*generation `json:"generations"`
}

func (m *completionModel) Generate(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	model := m.model
	if req.Model != "" {
		model = req.Model
	}

	body := generateRequest{
		Model:         model,
		Prompt:        req.Prompt,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		P:             req.TopP,
		StopSequences: req.Stop,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.client.generateURL(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	for k, vs := range m.client.headers {
		for _, v := range vs {
			if v == "" {
				continue
			}
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.client.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	var out generateResponse
	raw, err := providerutil.ReadJSONRaw(resp, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Generations) == 0 {
		return nil, ErrNoGenerations
	}

	first := out.Generations[0]
	if first == nil || first.Text == nil {
		return nil, ErrMalformedGeneration
	}
	return &provider.CompletionResponse{
		Text:       *first.Text,
		StopReason: first.FinishReason,
		Raw:        raw,
	}, nil
}
