package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot-be/pkg/llm"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Flu symptoms include fever."}}]}`))
	}))
	defer srv.Close()

	p := NewGroqProvider("gsk-test", "", 5*time.Second, 0)
	p.baseURL = srv.URL

	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "You are a medical assistant."},
		{Role: "user", Content: "What are flu symptoms?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Flu symptoms include fever.", reply)
}

func TestChatRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer srv.Close()

	p := NewGroqProvider("gsk-test", "", 5*time.Second, 2)
	p.baseURL = srv.URL

	reply, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer srv.Close()

	p := NewGroqProvider("gsk-test", "", 5*time.Second, 2)
	p.baseURL = srv.URL

	_, err := p.Generate(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}
