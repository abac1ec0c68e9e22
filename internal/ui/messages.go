// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dersingpt/internal/chat"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamPartialMsg carries the reply accumulated so far.
type streamPartialMsg struct {
	text string
}

// streamDoneMsg ends a turn. The session may be read again once it arrives.
type streamDoneMsg struct {
	reply string
	err   error
}

// =============================================================================
// STORE MESSAGES
// =============================================================================

type conversationItem struct {
	key   string
	label string
}

// conversationsMsg delivers a fresh conversation list.
type conversationsMsg struct {
	items []conversationItem
	err   error
}

// storeChangedMsg signals that the conversations directory changed.
type storeChangedMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// runTurn sends prompt through session and reports on events. Partial
// updates are dropped when the UI falls behind; each one carries the whole
// reply so far and the final text arrives with streamDoneMsg.
func runTurn(ctx context.Context, session *chat.Session, prompt string, events chan<- tea.Msg) {
	reply, err := session.Send(ctx, prompt, func(partial string) {
		select {
		case events <- streamPartialMsg{text: partial}:
		default:
		}
	})
	events <- streamDoneMsg{reply: reply, err: err}
}

// waitForEvent reads the next turn event.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}

// waitForStoreChange blocks until the store watcher signals.
func waitForStoreChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
