// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the static localization table for the UI chrome.
//
// The table maps two-letter language codes to complete records of UI text
// (title, tab labels, button labels, placeholder text). Nine languages ship
// built in; a TOML locales file can replace the whole table, and Watch
// hot-reloads it on change. Records must be complete: a missing field is a
// load-time configuration error, never a silent fallback.
package i18n
