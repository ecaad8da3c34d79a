// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the process-wide session controller.
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/jelly/internal/i18n"
	"github.com/jeranaias/jelly/internal/model"
	"github.com/jeranaias/jelly/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidLanguage is returned when a language switch references a
	// code absent from the localization table.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrUnknownModel is returned when a model switch references a name
	// outside the supported model list.
	ErrUnknownModel = errors.New("unknown model")
)

// =============================================================================
// SESSION CONTROLLER
// =============================================================================

// Controller tracks the process-wide session state: the active thread, the
// UI language, the selected model, and which thread context menus are open.
// All mutations of the thread set route through the controller so the
// active-thread reference can be kept consistent with the store inside one
// logical transaction.
//
// Menu state is ephemeral UI state. It is never persisted and resets on
// restart.
//
// Lock ordering: the controller lock is always taken before any store lock.
type Controller struct {
	mu sync.Mutex

	store *store.Store
	table *i18n.Table

	activeID  string
	language  string
	modelName string
	menuOpen  map[string]bool

	logger *zap.Logger
}

// NewController creates a controller bound to a store and localization
// table. The newest thread becomes active; the store guarantees one exists.
func NewController(s *store.Store, table *i18n.Table, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:     s,
		table:     table,
		activeID:  s.Newest(),
		language:  i18n.DefaultLanguage,
		modelName: model.DefaultModel,
		menuOpen:  make(map[string]bool),
		logger:    logger,
	}
}

// =============================================================================
// ACTIVE THREAD
// =============================================================================

// ActiveThread returns the id of the active thread.
func (c *Controller) ActiveThread() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// SetActiveThread switches the active thread. The id must exist in the
// store. The existence check runs under the controller lock so a concurrent
// DeleteThread cannot remove the thread between the check and the switch.
func (c *Controller) SetActiveThread(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.Exists(id) {
		return store.ErrThreadNotFound
	}
	c.activeID = id
	return nil
}

// CreateThread creates a thread through the store and makes it active. The
// controller lock is held across both steps so the new thread cannot be
// deleted before it becomes active.
func (c *Controller) CreateThread(initialTitle string) *model.Thread {
	c.mu.Lock()
	t := c.store.Create(initialTitle)
	c.activeID = t.ID
	c.mu.Unlock()

	c.logger.Info("thread created", zap.String("thread_id", t.ID))
	return t
}

// DeleteThread deletes a thread and re-resolves the active reference in the
// same logical transaction. If the deleted thread was active, the newest
// remaining thread (or the freshly recreated default) becomes active. The
// controller lock is held across both steps, so no caller observes an
// active id that references a missing thread.
func (c *Controller) DeleteThread(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(id); err != nil {
		return err
	}

	delete(c.menuOpen, id)

	if c.activeID == id {
		c.activeID = c.store.Newest()
	}

	c.logger.Info("thread deleted",
		zap.String("thread_id", id),
		zap.String("active_thread", c.activeID))
	return nil
}

// =============================================================================
// MENU STATE
// =============================================================================

// ToggleMenu flips the context-menu-open boolean for a thread id and returns
// the new state. Unknown ids start closed, so the first toggle opens them.
func (c *Controller) ToggleMenu(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.menuOpen[id] = !c.menuOpen[id]
	return c.menuOpen[id]
}

// MenuOpen reports whether the context menu for a thread id is open.
func (c *Controller) MenuOpen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuOpen[id]
}

// =============================================================================
// LANGUAGE
// =============================================================================

// Language returns the current UI language code.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// SetLanguage switches the UI language. The code must be present in the
// localization table; otherwise the language is left unchanged.
func (c *Controller) SetLanguage(code string) error {
	if !c.table.Has(code) {
		return ErrInvalidLanguage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = code
	return nil
}

// Strings returns the localization record for the current language.
func (c *Controller) Strings() i18n.Strings {
	c.mu.Lock()
	code := c.language
	c.mu.Unlock()

	s, _ := c.table.Get(code)
	return s
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// Model returns the currently selected model name.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelName
}

// SetModel switches the selected model. The name must be in the supported
// model list; whether the model is installed is resolved by the inference
// engine at request time.
func (c *Controller) SetModel(name string) error {
	if !model.IsSupportedModel(name) {
		return ErrUnknownModel
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelName = name
	return nil
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a consistent read of the session state for the API layer.
type Snapshot struct {
	ActiveThread string          `json:"active_thread"`
	Language     string          `json:"language"`
	Model        string          `json:"model"`
	MenuOpen     map[string]bool `json:"menu_open"`
}

// GetSnapshot returns a copy of the current session state.
func (c *Controller) GetSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	menus := make(map[string]bool, len(c.menuOpen))
	for id, open := range c.menuOpen {
		menus[id] = open
	}

	return Snapshot{
		ActiveThread: c.activeID,
		Language:     c.language,
		Model:        c.modelName,
		MenuOpen:     menus,
	}
}
