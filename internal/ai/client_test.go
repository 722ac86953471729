package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		got = apiRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", "gpt-test", WithBaseURL(srv.URL+"/"), WithMaxTokens(42))
	out, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		JSON:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 42, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)

	_, err = c.Complete(context.Background(), CompletionRequest{Model: "other", MaxTokens: 7})
	require.NoError(t, err)
	assert.Equal(t, "other", got.Model)
	assert.Equal(t, 7, got.MaxTokens)
	assert.Nil(t, got.ResponseFormat)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", "m", WithBaseURL(srv.URL)).Complete(context.Background(), CompletionRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.EqualError(t, err, "API error (429): slow down")
}

func TestClient_EmptyChoicesAndMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", "m", WithBaseURL(srv.URL)).Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)

	_, err = NewClient("", "m", WithBaseURL(srv.URL)).Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)
}

func TestNewPerplexity_BaseURL(t *testing.T) {
	c := NewPerplexity("k", "sonar-pro")
	assert.Equal(t, PerplexityBaseURL, c.baseURL)
	assert.Equal(t, "sonar-pro", c.Model())
}

func TestConversation_TrimKeepsFirst(t *testing.T) {
	c := NewConversation(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		c.Add(RoleUser, s)
	}
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, "d", msgs[1].Content)
	assert.Equal(t, "e", msgs[2].Content)

	c.Reset()
	assert.Zero(t, c.Len())
}
