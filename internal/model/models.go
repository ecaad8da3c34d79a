// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads and messages.
package model

// =============================================================================
// SUPPORTED MODELS
// =============================================================================

// SupportedModels is the closed list of model names the selector may choose
// from. Membership is the only local validation; whether the model is
// actually installed is the inference engine's problem and surfaces as a
// model-resolution error from Ollama itself.
var SupportedModels = []string{
	"llama3.1",
	"llama3",
	"mistral",
}

// DefaultModel is the model selected when none has been chosen yet.
const DefaultModel = "llama3.1"

// IsSupportedModel reports whether name is in the supported model list.
func IsSupportedModel(name string) bool {
	for _, m := range SupportedModels {
		if m == name {
			return true
		}
	}
	return false
}
