// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newStreamServer serves /api/chat as NDJSON with one line per token.
func newStreamServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			w.WriteHeader(http.StatusOK)
			return
		}

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, tok := range tokens {
			line, _ := json.Marshal(ChatResponse{
				Model:   req.Model,
				Message: Message{Role: "assistant", Content: tok},
			})
			fmt.Fprintf(w, "%s\n", line)
		}
		final, _ := json.Marshal(ChatResponse{
			Model:        req.Model,
			Done:         true,
			DoneReason:   "stop",
			EvalCount:    len(tokens),
			EvalDuration: int64(time.Second),
		})
		fmt.Fprintf(w, "%s\n", final)
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:      baseURL,
		Timeout:      2 * time.Second,
		DefaultModel: "llama3.1",
	})
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.CheckRunning(context.Background()))
}

func TestCheckRunning_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	c := newTestClient(srv.URL)
	err := c.CheckRunning(context.Background())
	require.Error(t, err)
	require.True(t, IsNotRunning(err))
}

// =============================================================================
// MODEL LISTING
// =============================================================================

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(ListModelsResponse{
			Models: []ModelInfo{
				{Name: "llama3.1"},
				{Name: "mistral"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	require.Equal(t, "llama3.1", models[0].Name)
}

// =============================================================================
// CHAT STREAM
// =============================================================================

func TestChatStream_DeliversChunksInOrder(t *testing.T) {
	srv := newStreamServer(t, []string{"Hel", "lo", "!"})
	defer srv.Close()

	c := newTestClient(srv.URL)

	var got []string
	var doneChunk *StreamChunk
	err := c.ChatStream(context.Background(), "llama3.1", []Message{NewUserMessage("hi")}, nil, func(chunk StreamChunk) {
		if chunk.Done {
			cp := chunk
			doneChunk = &cp
			return
		}
		got = append(got, chunk.Content)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hel", "lo", "!"}, got)
	require.NotNil(t, doneChunk)
	require.Equal(t, "stop", doneChunk.DoneReason)
	require.Equal(t, 3, doneChunk.CompletionTokens)

	// 3 tokens over the 1s eval duration reported by the server.
	require.InDelta(t, 3.0, doneChunk.TokensPerSecond(), 1e-9)
}

func TestStreamChunk_TokensPerSecond(t *testing.T) {
	chunk := StreamChunk{Done: true, CompletionTokens: 50, EvalDuration: 2 * time.Second}
	require.InDelta(t, 25.0, chunk.TokensPerSecond(), 1e-9)

	// Zero before the done chunk populates statistics.
	require.Zero(t, StreamChunk{Content: "partial"}.TokensPerSecond())
}

func TestChatStream_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.ChatStream(context.Background(), "nope", nil, nil, func(StreamChunk) {})
	require.True(t, IsModelNotFound(err))
}

func TestChatStream_SkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "this is not json")
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"ok"},"done":false}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	var got []string
	err := c.ChatStream(context.Background(), "llama3.1", nil, nil, func(chunk StreamChunk) {
		if chunk.Content != "" {
			got = append(got, chunk.Content)
		}
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, got)
}

// =============================================================================
// CUMULATIVE STREAMING
// =============================================================================

func TestStreamCompletion_CumulativeValues(t *testing.T) {
	srv := newStreamServer(t, []string{"H", "e", "y"})
	defer srv.Close()

	c := newTestClient(srv.URL)

	var got []string
	for v := range c.StreamCompletion(context.Background(), "llama3.1", []Message{NewUserMessage("hi")}, nil) {
		got = append(got, v)
	}

	// Every value is the full response so far, not a delta.
	require.Equal(t, []string{"H", "He", "Hey"}, got)
}

func TestStreamCompletion_SoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable

	c := newTestClient(srv.URL)

	var got []string
	for v := range c.StreamCompletion(context.Background(), "llama3.1", nil, nil) {
		got = append(got, v)
	}

	// Failure is folded into a final Error: value; the channel still
	// closes cleanly.
	require.Len(t, got, 1)
	require.True(t, strings.HasPrefix(got[0], "Error: "))
}

func TestStreamCompletion_ErrorAfterPartialOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"par"},"done":false}`)
		w.(http.Flusher).Flush()
		// Connection drops without a done line.
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	var got []string
	for v := range c.StreamCompletion(context.Background(), "llama3.1", nil, nil) {
		got = append(got, v)
	}

	require.NotEmpty(t, got)
	require.Equal(t, "par", got[0])
	require.True(t, strings.HasPrefix(got[len(got)-1], "Error: "))
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 256, opts.NumPredict)
	require.InDelta(t, 0.7, opts.Temperature, 1e-9)
	require.InDelta(t, 0.9, opts.TopP, 1e-9)
}

func TestClientConfigDefaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	cfg := c.GetConfig()
	require.Equal(t, "http://127.0.0.1:11434", cfg.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, "llama3.1", cfg.DefaultModel)
}
