// Package openai provides an OpenAI-compatible provider for the n1 endpoint.
//
// Example usage:
//
//	provider, err := openai.NewProvider(os.Getenv("YUTORI_API_KEY"),
//	    openai.WithModel("n1-latest"))
//	if err != nil {
//	    panic(err)
//	}
//
//	resp, err := provider.Complete(ctx, messages)
//	if err != nil {
//	    panic(err)
//	}
//	msg, err := llm.FirstChoice(resp, "Agent step 1 response")
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/types"
)

const (
	// DefaultBaseURL is the Yutori n1 API base URL
	DefaultBaseURL = "https://api.yutori.com/v1"

	// DefaultModel is the n1 model alias
	DefaultModel = "n1-latest"

	chatCompletionsPath = "chat/completions"
)

// Provider implements llm.Provider for OpenAI-compatible chat completions.
type Provider struct {
	client     openai.Client
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ llm.Provider = (*Provider)(nil)

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// NewProvider creates a provider with the given API key.
//
// If apiKey is empty, it is read from YUTORI_API_KEY. SDK-level retries are
// disabled: the agent's single size retry is the only retry applied.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("YUTORI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required (provide via parameter or YUTORI_API_KEY environment variable)")
	}

	p := &Provider{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(0),
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(p.httpClient))
	}
	p.client = openai.NewClient(clientOpts...)

	return p, nil
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []*types.Message `json:"messages"`
}

// Complete posts the multimodal conversation to chat/completions.
//
// The typed SDK params cannot carry images inside tool messages, so the
// body is encoded from our own wire types and sent through the client's raw
// Post. The SDK still handles auth, base URL and error decoding.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*llm.Response, error) {
	body, err := json.Marshal(chatRequest{Model: p.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var raw []byte
	if err := p.client.Post(ctx, chatCompletionsPath, json.RawMessage(body), &raw); err != nil {
		return nil, requestError(err)
	}
	return llm.DecodeResponse(raw)
}

// CompleteText runs a text-only system+user exchange.
func (p *Provider) CompleteText(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", requestError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &llm.ModelProtocolError{
			Context: "Text completion response",
			Reason:  "did not include completion choices.",
		}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// requestError wraps a failed completion call. The SDK's error text only
// carries a nested "error" object, so the raw response body is appended to
// keep top-level detail/message payloads and plain-text rejections visible.
func requestError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if body := responseBody(apiErr); body != "" {
			return fmt.Errorf("chat completion failed: %w: %s", err, body)
		}
	}
	return fmt.Errorf("chat completion failed: %w", err)
}

func responseBody(apiErr *openai.Error) string {
	if apiErr.Response == nil {
		return ""
	}
	dump := apiErr.DumpResponse(true)
	if i := bytes.Index(dump, []byte("\r\n\r\n")); i >= 0 {
		dump = dump[i+4:]
	}
	return strings.TrimSpace(string(dump))
}

// Ping lists models to verify the key and base URL.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("model listing failed: %w", err)
	}
	return nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}
