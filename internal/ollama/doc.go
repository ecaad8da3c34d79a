// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// # Key Types
//
//   - Client: HTTP client with health check, model listing, and streaming chat
//   - StreamReader: NDJSON line parser for streaming responses
//   - StreamChunk: one parsed chunk with content and final statistics
//
// # Streaming surfaces
//
// ChatStream delivers raw incremental chunks to a callback and returns typed
// errors (ClientError with an ErrorType taxonomy).
//
// StreamCompletion wraps ChatStream into a channel of cumulative text: every
// value is the full response so far, and any failure is folded into a final
// "Error:"-prefixed value instead of an error return. The chat orchestrator
// depends on that soft-failure contract to keep error text renderable like
// any other assistant output.
package ollama
