// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the process-wide session controller.
//
// The controller owns the mutable session state that is not thread data:
// the active thread id, the UI language, the selected model, and the
// per-thread context-menu booleans. Thread deletion routes through the
// controller so the active-thread reference is re-resolved atomically with
// the deletion; no intermediate state where the active id points at a
// missing thread is ever observable.
package session
