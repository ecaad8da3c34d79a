// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for jelly.
//
// It contains the atomic file writer used by the thread store's snapshot
// persistence and the rune-aware string helpers used for titles and previews.
// Nothing in here knows about threads, sessions, or the model API.
package util
