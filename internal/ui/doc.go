// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package ui implements the full-screen terminal interface for dersingpt.

# Architecture

The TUI follows the Elm architecture via Bubble Tea:

	Model  -> application state (model.go)
	Update -> key, stream and store events (update.go)
	View   -> header, chat pane, sidebar, input, status bar (view.go)

# Layout

	+----------------------------------------------------------+
	| DersinGPT                      conversation label | model |
	+---------------+------------------------------------------+
	| Conversations |                                          |
	|  Settings     |            chat viewport                 |
	|               |                                          |
	|  sidebar      +------------------------------------------+
	|               |            input                         |
	+---------------+------------------------------------------+
	| status                                                   |
	+----------------------------------------------------------+

# Turns

A turn runs in its own goroutine and reports back through a channel that
the program drains one message at a time. The session is not touched by
the UI until the turn has reported completion.
*/
package ui
