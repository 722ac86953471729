// Package ai talks to OpenAI-compatible chat-completion endpoints. It turns
// free-text requests into task lists and writes spending analyses.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// OpenAIBaseURL is the OpenAI REST API root.
	OpenAIBaseURL = "https://api.openai.com/v1"
	// PerplexityBaseURL is the Perplexity REST API root.
	PerplexityBaseURL = "https://api.perplexity.ai"

	defaultMaxTokens = 1000
	defaultTimeout   = 60 * time.Second
)

// APIError is a non-200 answer from the completion endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// ChatMessage is one entry of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a single completion call. Zero values fall back
// to the client's defaults.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	// JSON asks the model to answer with a single JSON object.
	JSON bool
}

// Client posts to {BaseURL}/chat/completions.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithMaxTokens sets the default completion budget.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// NewClient creates a client for the given key and default model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   OpenAIBaseURL,
		model:     model,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOpenAI creates a client for the OpenAI API.
func NewOpenAI(apiKey, model string, opts ...Option) *Client {
	return NewClient(apiKey, model, opts...)
}

// NewPerplexity creates a client for the Perplexity API.
func NewPerplexity(apiKey, model string, opts ...Option) *Client {
	return NewClient(apiKey, model, append([]Option{WithBaseURL(PerplexityBaseURL)}, opts...)...)
}

// Model returns the client's default model.
func (c *Client) Model() string { return c.model }

type apiResponseFormat struct {
	Type string `json:"type"`
}

type apiRequest struct {
	Model          string             `json:"model"`
	Messages       []ChatMessage      `json:"messages"`
	Temperature    float64            `json:"temperature"`
	MaxTokens      int                `json:"max_tokens"`
	ResponseFormat *apiResponseFormat `json:"response_format,omitempty"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one completion request and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, cr CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("no API key configured")
	}

	reqBody := apiRequest{
		Model:       cr.Model,
		Messages:    cr.Messages,
		Temperature: cr.Temperature,
		MaxTokens:   cr.MaxTokens,
	}
	if reqBody.Model == "" {
		reqBody.Model = c.model
	}
	if reqBody.MaxTokens <= 0 {
		reqBody.MaxTokens = c.maxTokens
	}
	if cr.JSON {
		reqBody.ResponseFormat = &apiResponseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &APIError{Status: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return result.Choices[0].Message.Content, nil
}
