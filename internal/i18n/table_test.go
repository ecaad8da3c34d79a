// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// BUILTIN TABLE
// =============================================================================

func TestBuiltin_AllRecordsComplete(t *testing.T) {
	table := Builtin()
	require.Equal(t, 9, table.Len())

	for _, code := range table.Codes() {
		s, ok := table.Get(code)
		require.True(t, ok)
		require.NoError(t, s.validate(), "language %s", code)
	}
}

func TestBuiltin_ContainsDefault(t *testing.T) {
	table := Builtin()
	require.True(t, table.Has(DefaultLanguage))

	s, ok := table.Get("en")
	require.True(t, ok)
	require.Equal(t, "English", s.Name)
	require.Equal(t, "🪼 Jelly", s.Title)
}

func TestTable_HasAndGet(t *testing.T) {
	table := Builtin()

	require.True(t, table.Has("ja"))
	require.False(t, table.Has("xx"))

	_, ok := table.Get("xx")
	require.False(t, ok)
}

func TestTable_CodesSorted(t *testing.T) {
	table := Builtin()
	codes := table.Codes()
	require.Equal(t, []string{"as", "bn", "de", "en", "es", "fr", "hi", "ja", "zh"}, codes)
}

func TestBuiltin_IsolatedCopies(t *testing.T) {
	a := Builtin()
	b := Builtin()

	require.NoError(t, LoadFile(a, writeLocales(t, validLocalesTOML)))
	// Loading into one table never touches another.
	require.Equal(t, 9, b.Len())
}

// =============================================================================
// FILE LOADING
// =============================================================================

const validLocalesTOML = `
[en]
name = "English"
title = "Jelly"
threads = "Threads"
new_thread = "New Thread"
history = "History"
share = "Share"
delete = "Delete"
edit = "Edit"
talk = "Talk..."
created = "Created"

[pt]
name = "Português"
title = "Jelly"
threads = "Tópicos"
new_thread = "Novo Tópico"
history = "Histórico"
share = "Compartilhar"
delete = "Excluir"
edit = "Editar"
talk = "Fale com Jelly..."
created = "Criado"
`

func writeLocales(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locales.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_ReplacesTable(t *testing.T) {
	table := Builtin()
	require.NoError(t, LoadFile(table, writeLocales(t, validLocalesTOML)))

	require.Equal(t, 2, table.Len())
	require.True(t, table.Has("pt"))
	require.False(t, table.Has("ja"))

	s, _ := table.Get("pt")
	require.Equal(t, "Português", s.Name)
}

func TestLoadFile_MissingFieldRejected(t *testing.T) {
	table := Builtin()
	incomplete := `
[en]
name = "English"
title = "Jelly"
`
	err := LoadFile(table, writeLocales(t, incomplete))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing fields")

	// Failed load leaves the previous table in effect.
	require.Equal(t, 9, table.Len())
}

func TestLoadFile_InvalidLanguageCode(t *testing.T) {
	table := Builtin()
	bad := `
[not_a_code]
name = "x"
title = "x"
threads = "x"
new_thread = "x"
history = "x"
share = "x"
delete = "x"
edit = "x"
talk = "x"
created = "x"
`
	err := LoadFile(table, writeLocales(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid language code")
	require.Equal(t, 9, table.Len())
}

func TestLoadFile_EmptyFile(t *testing.T) {
	table := Builtin()
	err := LoadFile(table, writeLocales(t, ""))
	require.Error(t, err)
	require.Equal(t, 9, table.Len())
}

func TestLoadFile_MissingFile(t *testing.T) {
	table := Builtin()
	err := LoadFile(table, filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
