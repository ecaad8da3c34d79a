// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the static localization table for the UI chrome.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// =============================================================================
// STRINGS RECORD
// =============================================================================

// Strings is one complete record of UI chrome text for a language. Every
// field is required: a record with a missing field is a configuration error
// at load time, there is no fallback to a default language.
type Strings struct {
	Name      string `toml:"name" json:"name"`
	Title     string `toml:"title" json:"title"`
	Threads   string `toml:"threads" json:"threads"`
	NewThread string `toml:"new_thread" json:"new_thread"`
	History   string `toml:"history" json:"history"`
	Share     string `toml:"share" json:"share"`
	Delete    string `toml:"delete" json:"delete"`
	Edit      string `toml:"edit" json:"edit"`
	Talk      string `toml:"talk" json:"talk"`
	Created   string `toml:"created" json:"created"`
}

// validate reports which required fields are missing.
func (s Strings) validate() error {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("name", s.Name)
	check("title", s.Title)
	check("threads", s.Threads)
	check("new_thread", s.NewThread)
	check("history", s.History)
	check("share", s.Share)
	check("delete", s.Delete)
	check("edit", s.Edit)
	check("talk", s.Talk)
	check("created", s.Created)
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// =============================================================================
// TABLE
// =============================================================================

// Table maps two-letter language codes to their Strings record. The table is
// read-mostly; a RWMutex lets a file watcher swap in a reloaded table while
// request handlers read concurrently.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Strings
}

// Builtin returns a table populated with the built-in languages.
func Builtin() *Table {
	entries := make(map[string]Strings, len(builtin))
	for code, s := range builtin {
		entries[code] = s
	}
	return &Table{entries: entries}
}

// Has reports whether the table contains the given language code.
func (t *Table) Has(code string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[code]
	return ok
}

// Get returns the Strings record for a language code.
func (t *Table) Get(code string) (Strings, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.entries[code]
	return s, ok
}

// Codes returns the available language codes in sorted order.
func (t *Table) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of languages in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// =============================================================================
// FILE LOADING
// =============================================================================

// LoadFile replaces the table contents from a TOML file keyed by language
// code. The whole file must be valid before anything is swapped in: unknown
// or unparseable language codes and incomplete records fail the load and
// leave the current table untouched.
func LoadFile(t *Table, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read locales file: %w", err)
	}

	var entries map[string]Strings
	if err := toml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse locales file: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("locales file %s defines no languages", path)
	}

	for code, s := range entries {
		if _, err := language.Parse(code); err != nil {
			return fmt.Errorf("invalid language code %q: %w", code, err)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("language %q: %w", code, err)
		}
	}

	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	return nil
}
