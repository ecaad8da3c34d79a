// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads and messages.
//
// # Key Types
//
//   - Thread: one conversation with append-only message history
//   - Message: a single user/assistant/system message
//   - Role: message sender classification
//   - ThreadMeta: lightweight metadata for thread listings
//
// Threads and messages are plain values with no locking; the store package
// owns all synchronization and hands out clones to readers.
package model
