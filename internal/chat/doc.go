// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates message submission and streaming responses.
//
// A submission moves through four phases: the prompt is validated and
// appended as a user message, the model context is assembled (persona plus
// the trailing window of thread messages), the cumulative stream is
// consumed with updates coalesced toward the UI sink, and exactly one
// assistant message is committed to the originating thread.
//
// Per-thread submissions are serialized: a second Submit against a thread
// with a generation in flight fails with ErrGenerationInFlight instead of
// queueing. Streams that exceed the timeout commit the accumulated partial
// text and flag the result as partial.
package chat
