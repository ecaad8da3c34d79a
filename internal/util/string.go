// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for jelly.
package util

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// Thread titles and previews pass through here, and several of the supported
// UI languages are CJK or Indic scripts, so byte-based slicing would corrupt
// them.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// CollapseNewlines replaces newline characters with spaces, for single-line
// previews of multi-line message content.
func CollapseNewlines(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\n':
			out = append(out, ' ')
		case '\r':
			// dropped
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// RuneLen returns the number of runes (characters) in a string.
func RuneLen(s string) int {
	return len([]rune(s))
}
