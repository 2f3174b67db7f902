package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscope/internal/types"
)

func TestChatClientSendsOpenRouterRequest(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://site", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Skyscope", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	}))
	defer server.Close()

	c := NewOpenRouterClient("or-key", server.URL+"/", "vendor/model", "https://site", "Skyscope", time.Second)
	out, err := c.Complete(context.Background(), NewRequest("sys", "user", 0.7))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "vendor/model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: RoleSystem, Content: "sys"}, got.Messages[0])
}

func TestChatClientLocalAIWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"local"}}]}`))
	}))
	defer server.Close()

	c := NewLocalAIClient(server.URL, "gpt-4", time.Second)
	out, err := c.Complete(context.Background(), NewRequest("", "q", 0.7))
	require.NoError(t, err)
	assert.Equal(t, "local", out)
	assert.Equal(t, "localai", c.Name())
}

func TestChatClientMissingKey(t *testing.T) {
	c := NewOpenRouterClient("", "http://unused", "m", "", "", time.Second)
	_, err := c.Complete(context.Background(), NewRequest("", "q", 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfigurationMissing))
}

func TestChatClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "oops", types.ErrProviderUnavailable},
		{"no choices", http.StatusOK, `{"choices":[]}`, types.ErrProviderUnavailable},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`, types.ErrProviderUnavailable},
		{"garbage", http.StatusOK, `not json`, types.ErrParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewLocalAIClient(server.URL, "m", time.Second)
			_, err := c.Complete(context.Background(), NewRequest("", "q", 0))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestChatClientRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"after retry"}}]}`))
	}))
	defer server.Close()

	c := NewChatClient(ChatConfig{Name: "openrouter", APIKey: "k", BaseURL: server.URL, MaxRetries: 1, Timeout: 5 * time.Second})
	out, err := c.Complete(context.Background(), NewRequest("", "q", 0))
	require.NoError(t, err)
	assert.Equal(t, "after retry", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRequestSystem(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	}}
	assert.Equal(t, "a\n\nb", req.System())
	assert.Len(t, NewRequest("", "u", 0).Messages, 1)
}
