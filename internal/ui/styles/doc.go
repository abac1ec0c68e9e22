// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the dersingpt TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

	Purple  - Assistant messages, selections
	Cyan    - Brand color, user messages, focus
	Emerald - Success states ("Key saved")
	Amber   - Notices
	Rose    - Errors

# Theme (theme.go)

	theme := styles.NewTheme()
	header := theme.Header.Render("DersinGPT")
*/
package styles
