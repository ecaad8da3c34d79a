// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero budget", "hello", 0, ""},
		{"negative budget", "hello", -1, ""},
		{"tiny budget skips ellipsis", "hello", 2, "he"},
		{"multibyte characters", "日本語のテスト", 5, "日本..."},
		{"emoji", "🪼🪼🪼🪼🪼", 4, "🪼..."},
		{"empty string", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TruncateRunes(tt.input, tt.maxRunes))
		})
	}
}

func TestCollapseNewlines(t *testing.T) {
	require.Equal(t, "a b c", CollapseNewlines("a\nb\nc"))
	require.Equal(t, "a b", CollapseNewlines("a\r\nb"))
	require.Equal(t, "plain", CollapseNewlines("plain"))
	require.Equal(t, "", CollapseNewlines(""))
}

func TestRuneLen(t *testing.T) {
	require.Equal(t, 5, RuneLen("hello"))
	require.Equal(t, 3, RuneLen("日本語"))
	require.Equal(t, 1, RuneLen("🪼"))
}
