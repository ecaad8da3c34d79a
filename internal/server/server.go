// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP/SSE API surface for the browser frontend.
//
// Endpoints:
//   - GET    /api/threads              - Sorted thread list
//   - POST   /api/threads              - Create thread
//   - GET    /api/threads/{id}         - Full thread with messages
//   - PATCH  /api/threads/{id}         - Rename thread
//   - DELETE /api/threads/{id}         - Delete thread
//   - POST   /api/threads/{id}/activate - Set active thread
//   - POST   /api/threads/{id}/menu    - Toggle context menu
//   - GET    /api/threads/{id}/share   - Share link
//   - POST   /api/chat                 - Submit prompt (SSE stream)
//   - GET    /api/session              - Session state
//   - PUT    /api/session/language     - Set language
//   - PUT    /api/session/model        - Set model
//   - GET    /api/languages            - Localization strings and codes
//   - GET    /api/models               - Supported model list
//   - GET    /health                   - Health check
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/jelly/internal/chat"
	"github.com/jeranaias/jelly/internal/i18n"
	"github.com/jeranaias/jelly/internal/model"
	"github.com/jeranaias/jelly/internal/ollama"
	"github.com/jeranaias/jelly/internal/session"
	"github.com/jeranaias/jelly/internal/store"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// Version is the server version.
	Version = "0.1.0"

	// DefaultMaxBodyBytes caps request body size.
	DefaultMaxBodyBytes = 1 << 20

	// healthCheckTimeout bounds the Ollama probe during /health.
	healthCheckTimeout = 2 * time.Second
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// ListenAddr is the host:port to bind to.
	ListenAddr string

	// ShareHost is the public hostname used when formatting share links.
	ShareHost string

	// RateLimitRPS and RateLimitBurst configure the per-IP limiter.
	// RPS of 0 disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBodyBytes caps request body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server is the HTTP API server for the chat frontend.
type Server struct {
	opts   Options
	router *http.ServeMux
	server *http.Server

	store      *store.Store
	controller *session.Controller
	orch       *chat.Orchestrator
	table      *i18n.Table
	ollama     *ollama.Client

	logger *zap.Logger
}

// New creates a Server wired to the store, session controller, orchestrator,
// localization table, and Ollama client.
func New(opts Options, s *store.Store, ctrl *session.Controller, orch *chat.Orchestrator, table *i18n.Table, oc *ollama.Client, logger *zap.Logger) *Server {
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &Server{
		opts:       opts,
		router:     http.NewServeMux(),
		store:      s,
		controller: ctrl,
		orch:       orch,
		table:      table,
		ollama:     oc,
		logger:     logger,
	}

	srv.setupRoutes()
	return srv
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /api/threads", s.handleListThreads)
	s.router.HandleFunc("POST /api/threads", s.handleCreateThread)
	s.router.HandleFunc("GET /api/threads/{id}", s.handleGetThread)
	s.router.HandleFunc("PATCH /api/threads/{id}", s.handleRenameThread)
	s.router.HandleFunc("DELETE /api/threads/{id}", s.handleDeleteThread)
	s.router.HandleFunc("POST /api/threads/{id}/activate", s.handleActivateThread)
	s.router.HandleFunc("POST /api/threads/{id}/menu", s.handleToggleMenu)
	s.router.HandleFunc("GET /api/threads/{id}/share", s.handleShareThread)

	s.router.HandleFunc("POST /api/chat", s.handleChat)

	s.router.HandleFunc("GET /api/session", s.handleSession)
	s.router.HandleFunc("PUT /api/session/language", s.handleSetLanguage)
	s.router.HandleFunc("PUT /api/session/model", s.handleSetModel)

	s.router.HandleFunc("GET /api/languages", s.handleLanguages)
	s.router.HandleFunc("GET /api/models", s.handleModels)

	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the fully wrapped HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	var limiter *RateLimiter
	if s.opts.RateLimitRPS > 0 {
		limiter = NewRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst)
	}

	return Chain(
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(DefaultCORSConfig()),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(limiter, s.logger),
		MaxBytesMiddleware(s.opts.MaxBodyBytes),
	)(s.router)
}

// ============================================================================
// THREAD HANDLERS
// ============================================================================

// ThreadListResponse is the response for GET /api/threads.
type ThreadListResponse struct {
	Threads []model.ThreadMeta `json:"threads"`
	Active  string             `json:"active"`
}

// handleListThreads handles GET /api/threads.
func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ThreadListResponse{
		Threads: s.store.ListSorted(),
		Active:  s.controller.ActiveThread(),
	})
}

// CreateThreadRequest is the request body for POST /api/threads.
type CreateThreadRequest struct {
	Title string `json:"title"`
}

// handleCreateThread handles POST /api/threads. The new thread becomes
// active; an empty title is defaulted by the store.
func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req CreateThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t := s.controller.CreateThread(req.Title)
	s.writeJSON(w, http.StatusCreated, t)
}

// handleGetThread handles GET /api/threads/{id}.
func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// RenameThreadRequest is the request body for PATCH /api/threads/{id}.
type RenameThreadRequest struct {
	Title string `json:"title"`
}

// handleRenameThread handles PATCH /api/threads/{id}. An empty title is a
// no-op, matching the create-flow placeholder behavior.
func (s *Server) handleRenameThread(w http.ResponseWriter, r *http.Request) {
	var req RenameThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.Rename(r.PathValue("id"), req.Title); err != nil {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteThread handles DELETE /api/threads/{id}. Deletion routes
// through the session controller so active-thread re-resolution and the
// last-thread recovery rule apply atomically.
func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.DeleteThread(r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"active_thread": s.controller.ActiveThread(),
	})
}

// handleActivateThread handles POST /api/threads/{id}/activate.
func (s *Server) handleActivateThread(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.SetActiveThread(r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleMenu handles POST /api/threads/{id}/menu.
func (s *Server) handleToggleMenu(w http.ResponseWriter, r *http.Request) {
	open := s.controller.ToggleMenu(r.PathValue("id"))
	s.writeJSON(w, http.StatusOK, map[string]bool{"open": open})
}

// ShareResponse is the response for GET /api/threads/{id}/share.
type ShareResponse struct {
	URL string `json:"url"`
}

// handleShareThread handles GET /api/threads/{id}/share.
func (s *Server) handleShareThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Exists(id) {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	s.writeJSON(w, http.StatusOK, ShareResponse{URL: ShareURL(s.opts.ShareHost, id)})
}

// ShareURL formats the public share link for a thread.
func ShareURL(host, threadID string) string {
	return fmt.Sprintf("https://%s/?thread_id=%s", host, threadID)
}

// ============================================================================
// CHAT HANDLER (SSE)
// ============================================================================

// ChatRequest is the request body for POST /api/chat. ThreadID is optional;
// when empty the active thread is targeted. The target is resolved once,
// before streaming starts, so a mid-stream thread switch cannot redirect
// the response.
type ChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Prompt   string `json:"prompt"`
}

// chatUpdate is the payload of SSE "update" events: cumulative text so far.
type chatUpdate struct {
	Content string `json:"content"`
}

// chatDone is the payload of the final SSE "done" event.
type chatDone struct {
	ThreadID string         `json:"thread_id"`
	Message  *model.Message `json:"message"`
	Partial  bool           `json:"partial"`
}

// handleChat handles POST /api/chat. The response is an SSE stream of
// cumulative partials; the final event carries the committed message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = s.controller.ActiveThread()
	}
	modelName := s.controller.Model()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Validate before committing to the SSE content type so rejections
	// surface as plain JSON errors.
	if !s.store.Exists(threadID) {
		s.writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	if s.orch.InFlight(threadID) {
		s.writeError(w, http.StatusConflict, "generation already in flight")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sink := func(cumulative string) {
		s.sendEvent(w, flusher, "update", chatUpdate{Content: cumulative})
	}

	result, err := s.orch.Submit(r.Context(), threadID, modelName, req.Prompt, sink)
	if err != nil {
		// The stream is already open; deliver the failure as an SSE
		// error event rather than an HTTP status.
		s.sendEvent(w, flusher, "error", map[string]string{"error": errorMessage(err)})
		return
	}

	s.sendEvent(w, flusher, "done", chatDone{
		ThreadID: result.ThreadID,
		Message:  result.Message,
		Partial:  result.Partial,
	})
}

// sendEvent writes a single named SSE event.
func (s *Server) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// errorMessage maps orchestrator errors to client-safe strings.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt):
		return "prompt must not be empty"
	case errors.Is(err, chat.ErrGenerationInFlight):
		return "generation already in flight"
	case errors.Is(err, store.ErrThreadNotFound):
		return "thread not found"
	default:
		return "request processing failed"
	}
}

// ============================================================================
// SESSION HANDLERS
// ============================================================================

// handleSession handles GET /api/session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.GetSnapshot())
}

// SetLanguageRequest is the request body for PUT /api/session/language.
type SetLanguageRequest struct {
	Language string `json:"language"`
}

// handleSetLanguage handles PUT /api/session/language.
func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req SetLanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.controller.SetLanguage(req.Language); err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown language code")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetModelRequest is the request body for PUT /api/session/model.
type SetModelRequest struct {
	Model string `json:"model"`
}

// handleSetModel handles PUT /api/session/model.
func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var req SetModelRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.controller.SetModel(req.Model); err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown model")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// LANGUAGE AND MODEL HANDLERS
// ============================================================================

// LanguagesResponse is the response for GET /api/languages.
type LanguagesResponse struct {
	Current string       `json:"current"`
	Strings i18n.Strings `json:"strings"`
	Codes   []string     `json:"codes"`
}

// handleLanguages handles GET /api/languages.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, LanguagesResponse{
		Current: s.controller.Language(),
		Strings: s.controller.Strings(),
		Codes:   s.table.Codes(),
	})
}

// ModelsResponse is the response for GET /api/models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Current string   `json:"current"`
}

// handleModels handles GET /api/models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ModelsResponse{
		Models:  model.SupportedModels,
		Current: s.controller.Model(),
	})
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	OllamaStatus string `json:"ollama_status"`
	Threads      int    `json:"threads"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: Version,
		Threads: s.store.Count(),
	}

	if s.ollama != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := s.ollama.CheckRunning(ctx); err == nil {
			health.OllamaStatus = "ok"
		} else {
			health.OllamaStatus = "unavailable"
			health.Status = "degraded"
		}
	} else {
		health.OllamaStatus = "not_configured"
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.opts.ListenAddr,
		Handler: s.Handler(),
		// No WriteTimeout: SSE chat streams stay open for the duration
		// of a generation.
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	s.logger.Info("server starting",
		zap.String("addr", s.opts.ListenAddr),
		zap.String("version", Version))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeJSON decodes a JSON request body. An empty body decodes to the
// zero value so optional-body endpoints accept bare POSTs.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
