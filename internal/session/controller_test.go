// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/jelly/internal/i18n"
	"github.com/jeranaias/jelly/internal/store"
)

func newController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	s := store.New(nil)
	return NewController(s, i18n.Builtin(), nil), s
}

// =============================================================================
// ACTIVE THREAD
// =============================================================================

func TestController_StartsOnNewestThread(t *testing.T) {
	c, _ := newController(t)
	require.Equal(t, store.DefaultThreadID, c.ActiveThread())
}

func TestController_SetActiveThread(t *testing.T) {
	c, s := newController(t)
	th := s.Create("other")

	require.NoError(t, c.SetActiveThread(th.ID))
	require.Equal(t, th.ID, c.ActiveThread())
}

func TestController_SetActiveThreadMissing(t *testing.T) {
	c, _ := newController(t)
	err := c.SetActiveThread("missing")
	require.ErrorIs(t, err, store.ErrThreadNotFound)
	// Failed switch leaves the active reference untouched.
	require.Equal(t, store.DefaultThreadID, c.ActiveThread())
}

func TestController_CreateThreadActivates(t *testing.T) {
	c, s := newController(t)
	th := c.CreateThread("fresh")

	require.Equal(t, th.ID, c.ActiveThread())
	require.True(t, s.Exists(th.ID))
}

// =============================================================================
// DELETE AND RE-RESOLUTION
// =============================================================================

func TestController_DeleteActiveThreadReResolves(t *testing.T) {
	c, s := newController(t)
	a := c.CreateThread("A")
	b := c.CreateThread("B")
	require.Equal(t, b.ID, c.ActiveThread())

	require.NoError(t, c.DeleteThread(b.ID))

	// Newest remaining thread becomes active.
	require.Equal(t, a.ID, c.ActiveThread())
	require.True(t, s.Exists(c.ActiveThread()))
}

func TestController_DeleteInactiveThreadKeepsActive(t *testing.T) {
	c, _ := newController(t)
	a := c.CreateThread("A")
	b := c.CreateThread("B")

	require.NoError(t, c.DeleteThread(a.ID))
	require.Equal(t, b.ID, c.ActiveThread())
}

func TestController_DeleteLastThreadActivatesDefault(t *testing.T) {
	c, s := newController(t)

	require.NoError(t, c.DeleteThread(store.DefaultThreadID))

	// The store recreated the default; the controller must point at it.
	require.Equal(t, 1, s.Count())
	require.Equal(t, store.DefaultThreadID, c.ActiveThread())
}

func TestController_DeleteMissingThread(t *testing.T) {
	c, _ := newController(t)
	require.ErrorIs(t, c.DeleteThread("missing"), store.ErrThreadNotFound)
}

func TestController_DeleteClearsMenuState(t *testing.T) {
	c, _ := newController(t)
	th := c.CreateThread("A")

	require.True(t, c.ToggleMenu(th.ID))
	require.NoError(t, c.DeleteThread(th.ID))
	require.False(t, c.MenuOpen(th.ID))
}

func TestController_SetActiveThreadDeleteRace(t *testing.T) {
	c, s := newController(t)

	// Racing a switch against a delete of the same thread must never leave
	// the active reference pointing at a missing thread, whichever wins.
	for i := 0; i < 500; i++ {
		target := c.CreateThread("target")
		require.NoError(t, c.SetActiveThread(store.DefaultThreadID))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.SetActiveThread(target.ID)
		}()
		go func() {
			defer wg.Done()
			_ = c.DeleteThread(target.ID)
		}()
		wg.Wait()

		if active := c.ActiveThread(); !s.Exists(active) {
			t.Fatalf("iteration %d: active thread %q does not exist in store", i, active)
		}
		_ = c.DeleteThread(target.ID)
	}
}

func TestController_CreateThreadDeleteRace(t *testing.T) {
	c, s := newController(t)

	// A freshly created thread must be active before any delete can observe
	// it, so deleting the newest thread mid-create cannot strand the active
	// reference.
	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.CreateThread("fresh")
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_ = c.DeleteThread(s.Newest())
			}
		}()
		wg.Wait()

		if active := c.ActiveThread(); !s.Exists(active) {
			t.Fatalf("iteration %d: active thread %q does not exist in store", i, active)
		}
	}
}

// =============================================================================
// MENU STATE
// =============================================================================

func TestController_ToggleMenu(t *testing.T) {
	c, _ := newController(t)

	// Unknown ids start closed; first toggle opens.
	require.False(t, c.MenuOpen("x"))
	require.True(t, c.ToggleMenu("x"))
	require.True(t, c.MenuOpen("x"))
	require.False(t, c.ToggleMenu("x"))
	require.False(t, c.MenuOpen("x"))
}

func TestController_MenuStateIndependentPerThread(t *testing.T) {
	c, _ := newController(t)

	c.ToggleMenu("a")
	require.True(t, c.MenuOpen("a"))
	require.False(t, c.MenuOpen("b"))
}

// =============================================================================
// LANGUAGE
// =============================================================================

func TestController_DefaultLanguage(t *testing.T) {
	c, _ := newController(t)
	require.Equal(t, i18n.DefaultLanguage, c.Language())
}

func TestController_SetLanguage(t *testing.T) {
	c, _ := newController(t)

	require.NoError(t, c.SetLanguage("es"))
	require.Equal(t, "es", c.Language())

	strs := c.Strings()
	require.Equal(t, "Español", strs.Name)
}

func TestController_SetLanguageInvalid(t *testing.T) {
	c, _ := newController(t)

	err := c.SetLanguage("xx")
	require.ErrorIs(t, err, ErrInvalidLanguage)
	// Language unchanged after a rejected switch.
	require.Equal(t, i18n.DefaultLanguage, c.Language())
}

// =============================================================================
// MODEL
// =============================================================================

func TestController_SetModel(t *testing.T) {
	c, _ := newController(t)

	require.NoError(t, c.SetModel("mistral"))
	require.Equal(t, "mistral", c.Model())
}

func TestController_SetModelUnknown(t *testing.T) {
	c, _ := newController(t)

	err := c.SetModel("gpt-9000")
	require.ErrorIs(t, err, ErrUnknownModel)
	require.Equal(t, "llama3.1", c.Model())
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestController_Snapshot(t *testing.T) {
	c, _ := newController(t)
	th := c.CreateThread("A")
	c.ToggleMenu(th.ID)
	require.NoError(t, c.SetLanguage("fr"))

	snap := c.GetSnapshot()
	require.Equal(t, th.ID, snap.ActiveThread)
	require.Equal(t, "fr", snap.Language)
	require.Equal(t, "llama3.1", snap.Model)
	require.True(t, snap.MenuOpen[th.ID])

	// The snapshot map is a copy, not a live view.
	snap.MenuOpen["other"] = true
	require.False(t, c.MenuOpen("other"))
}
