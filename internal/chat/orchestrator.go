// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates message submission and streaming responses.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/jelly/internal/model"
	"github.com/jeranaias/jelly/internal/ollama"
	"github.com/jeranaias/jelly/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyPrompt is returned when a submitted prompt is empty or
	// whitespace-only after trimming.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrGenerationInFlight is returned when a submission targets a thread
	// that already has an active generation.
	ErrGenerationInFlight = errors.New("generation already in flight for thread")
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultPersona is the system prompt prepended to every model request.
	DefaultPersona = "You are 🪼 Jelly, a helpful AI assistant."

	// DefaultContextWindow is the number of trailing thread messages sent
	// to the model alongside the persona.
	DefaultContextWindow = 8

	// DefaultStreamTimeout bounds a single generation end to end.
	DefaultStreamTimeout = 2 * time.Minute
)

// =============================================================================
// STREAMER
// =============================================================================

// Streamer produces cumulative completion text for a chat request. Each
// value received from the channel is the full response so far; the channel
// closes when generation finishes. Implemented by ollama.Client.
type Streamer interface {
	StreamCompletion(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options) <-chan string
}

// =============================================================================
// RESULT
// =============================================================================

// Result describes a committed generation.
type Result struct {
	// ThreadID is the thread the assistant message was appended to. It is
	// captured at submit time, so it names the originating thread even if
	// the active thread changed mid-stream.
	ThreadID string

	// Message is the committed assistant message.
	Message *model.Message

	// Partial is true when the stream timed out and the accumulated text
	// was committed as-is.
	Partial bool
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator drives the submission pipeline: append the user message,
// assemble the model context, consume the cumulative stream, and commit
// exactly one assistant message per submission.
//
// At most one generation runs per thread at a time. Submissions against a
// thread with an in-flight generation are rejected rather than queued.
type Orchestrator struct {
	store    *store.Store
	streamer Streamer
	logger   *zap.Logger

	persona string
	window  int
	timeout time.Duration
	options *ollama.Options

	mu       sync.Mutex
	inFlight map[string]bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPersona overrides the system prompt.
func WithPersona(persona string) Option {
	return func(o *Orchestrator) {
		if persona != "" {
			o.persona = persona
		}
	}
}

// WithContextWindow overrides the trailing-message window size.
func WithContextWindow(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithTimeout overrides the per-generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithOptions overrides the generation parameters sent with every request.
func WithOptions(opts *ollama.Options) Option {
	return func(o *Orchestrator) {
		if opts != nil {
			o.options = opts
		}
	}
}

// NewOrchestrator creates an orchestrator over a store and streamer.
func NewOrchestrator(s *store.Store, streamer Streamer, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		store:    s,
		streamer: streamer,
		logger:   logger,
		persona:  DefaultPersona,
		window:   DefaultContextWindow,
		timeout:  DefaultStreamTimeout,
		options:  ollama.DefaultOptions(),
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sink receives cumulative response text during streaming. Each call
// carries the full response so far. Calls never block the stream: when the
// sink lags, intermediate values are dropped and only the newest is
// delivered.
type Sink func(cumulative string)

// Submit runs one full submission against a thread: the prompt is appended
// as a user message, the model is invoked with the persona plus the
// trailing context window, cumulative text is forwarded to sink, and the
// final text is committed as a single assistant message.
//
// The target thread is captured at submit time; the commit lands on that
// thread regardless of later thread switches. A generation that exceeds
// the timeout commits whatever text accumulated and reports Partial.
func (o *Orchestrator) Submit(ctx context.Context, threadID, modelName, prompt string, sink Sink) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if !o.store.Exists(threadID) {
		return nil, store.ErrThreadNotFound
	}

	if err := o.acquire(threadID); err != nil {
		return nil, err
	}
	defer o.release(threadID)

	if _, err := o.store.AppendMessage(threadID, model.RoleUser, prompt); err != nil {
		return nil, err
	}

	o.logger.Info("submission accepted",
		zap.String("thread_id", threadID),
		zap.String("model", modelName),
		zap.Int("prompt_runes", len([]rune(prompt))))

	messages, err := o.buildContext(threadID)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	final, timedOut := o.consume(streamCtx, modelName, messages, sink)

	msg, err := o.store.AppendMessage(threadID, model.RoleAssistant, final)
	if err != nil {
		return nil, err
	}

	o.logger.Info("generation committed",
		zap.String("thread_id", threadID),
		zap.String("message_id", msg.ID),
		zap.Bool("partial", timedOut),
		zap.Int("response_runes", len([]rune(final))))

	return &Result{ThreadID: threadID, Message: msg, Partial: timedOut}, nil
}

// InFlight reports whether a generation is currently running for a thread.
func (o *Orchestrator) InFlight(threadID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight[threadID]
}

func (o *Orchestrator) acquire(threadID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[threadID] {
		return ErrGenerationInFlight
	}
	o.inFlight[threadID] = true
	return nil
}

func (o *Orchestrator) release(threadID string) {
	o.mu.Lock()
	delete(o.inFlight, threadID)
	o.mu.Unlock()
}

// buildContext assembles the model request: the persona system message
// followed by the trailing window of thread messages, including the user
// message just appended.
func (o *Orchestrator) buildContext(threadID string) ([]ollama.Message, error) {
	t, err := o.store.Get(threadID)
	if err != nil {
		return nil, err
	}

	tail := t.Tail(o.window)
	messages := make([]ollama.Message, 0, len(tail)+1)
	messages = append(messages, ollama.NewSystemMessage(o.persona))
	for _, m := range tail {
		messages = append(messages, ollama.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return messages, nil
}

// consume drains the cumulative stream, forwarding updates through a
// coalescing relay so a slow sink never blocks the producer, and returns
// the final text. timedOut reports that the stream context expired before
// the producer closed the channel; the text accumulated so far is returned
// for commit.
func (o *Orchestrator) consume(ctx context.Context, modelName string, messages []ollama.Message, sink Sink) (final string, timedOut bool) {
	stream := o.streamer.StreamCompletion(ctx, modelName, messages, o.options)

	// PERFORMANCE: capacity-1 relay with drop-older semantics. The sink
	// may do slow work (SSE writes); the producer only ever waits on a
	// buffered send that the relay continually drains.
	updates := make(chan string, 1)
	done := make(chan struct{})

	if sink != nil {
		go func() {
			defer close(done)
			for v := range updates {
				sink(v)
			}
		}()
	} else {
		close(done)
	}

	for {
		select {
		case v, ok := <-stream:
			if !ok {
				close(updates)
				<-done
				return final, false
			}
			final = v
			if sink != nil {
				select {
				case updates <- v:
				default:
					// Replace the stale pending value with the newest.
					select {
					case <-updates:
					default:
					}
					updates <- v
				}
			}
		case <-ctx.Done():
			close(updates)
			<-done
			o.logger.Warn("stream timed out, committing partial response",
				zap.String("model", modelName),
				zap.Int("accumulated_runes", len([]rune(final))))
			return final, true
		}
	}
}
