// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

// DefaultModel is used when no model has been selected.
const DefaultModel = "gpt-3.5-turbo"

// Models lists the selectable models in display order.
var Models = []string{"gpt-3.5-turbo", "gpt-4"}

// ValidModel reports whether name is one of Models.
func ValidModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
