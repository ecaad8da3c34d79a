// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the set of conversation threads.
//
// # Key Types
//
//   - Store: mutex-guarded map of threads with CRUD and ordering
//
// # Invariants
//
// The store enforces two invariants that the rest of the application relies
// on:
//
//   - Thread ids are unique at all times.
//   - At least one thread exists at all times. Deleting the last thread
//     synthesizes the default thread ("main" / "Main Conversation") within
//     the same mutation.
//
// # Persistence
//
// When constructed with a data directory, the store writes a JSON snapshot
// after every mutation using an atomic write-with-fsync, and reloads it at
// startup. Persistence is best effort; the in-memory state is authoritative.
package store
