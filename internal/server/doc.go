// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP/SSE API surface for the browser frontend.
//
// # Key Types
//
//   - Server: route setup, handlers, and lifecycle
//   - Options: listen address, share host, rate limits, body caps
//   - RateLimiter: per-IP token bucket
//
// # Streaming
//
// POST /api/chat responds as a Server-Sent Events stream. Each "update"
// event carries the cumulative response text so far; the final "done" event
// carries the committed assistant message. Failures after the stream opens
// are delivered as "error" events since the HTTP status is already written.
//
// # Middleware
//
// The handler chain applies panic recovery, request IDs, security headers,
// CORS for the browser frontend, structured request logging, per-IP rate
// limiting, and request body size caps, in that order.
package server
