// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamPartialMsg:
		if !m.streaming {
			return m, nil
		}
		m.partial = msg.text
		m.refreshViewport()
		return m, waitForEvent(m.events)

	case streamDoneMsg:
		return m.handleStreamDone(msg)

	case conversationsMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("conversation list failed")
			return m, nil
		}
		m.conversations = msg.items
		m.clampConversationCursor()
		return m, nil

	case storeChangedMsg:
		return m, tea.Batch(m.loadConversations(), waitForStoreChange(m.changes))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	chatWidth := m.chatWidth()
	m.viewport.Width = chatWidth
	m.viewport.Height = max(1, m.bodyHeight()-inputHeight-2)
	m.input.SetWidth(max(10, chatWidth-2))
	m.keyInput.Width = max(8, sidebarWidth-8)

	if m.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.glamourName),
			glamour.WithWordWrap(max(20, chatWidth-4)),
		)
		if err != nil {
			m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
			m.renderer = nil
		} else {
			m.renderer = r
		}
	}

	m.ready = true
	m.refreshViewport()
	return m, nil
}

// chatWidth is the width of the chat pane right of the sidebar.
func (m Model) chatWidth() int {
	return max(20, m.width-sidebarWidth)
}

// bodyHeight excludes the header and status lines.
func (m Model) bodyHeight() int {
	return max(inputHeight+3, m.height-2)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	// The notice blocks everything until dismissed.
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}

	if m.editingKey {
		return m.handleKeyEdit(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.streaming {
			m.cancelled = true
			m.cancel()
			return m, nil
		}
		if m.focus == focusSidebar {
			return m.focusOn(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			return m.focusOn(focusSidebar)
		}
		return m.focusOn(focusInput)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) focusOn(area focusArea) (tea.Model, tea.Cmd) {
	m.focus = area
	if area == focusInput {
		return m, m.input.Focus()
	}
	m.input.Blur()
	return m, nil
}

// =============================================================================
// TURNS
// =============================================================================

// submit starts a turn with the input text.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.streaming {
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}
	if m.session.APIKey() == "" {
		m.notice = noticeMissingKey
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan tea.Msg, 16)
	m.streaming = true
	m.cancelled = false
	m.pending = prompt
	m.partial = ""
	m.status = ""
	m.err = nil
	m.input.Reset()
	m.refreshViewport()

	go runTurn(ctx, m.session, prompt, m.events)
	return m, waitForEvent(m.events)
}

func (m Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}
	if m.cancel != nil {
		m.cancel()
	}

	switch {
	case msg.err == nil:
	case m.cancelled:
		m.status = statusCancelled
	default:
		m.err = msg.err
	}
	if msg.err != nil && msg.reply == "" {
		m.input.SetValue(m.pending)
	}

	m.streaming = false
	m.cancelled = false
	m.cancel = nil
	m.events = nil
	m.pending = ""
	m.partial = ""
	m.syncSession()
	m.refreshViewport()
	return m, m.loadConversations()
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = tabConversations
	case key.Matches(msg, m.keys.NextTab):
		m.tab = tabSettings
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Submit):
		if m.tab == tabConversations {
			return m.selectConversation()
		}
		return m.selectSetting()
	}
	return m, nil
}

// conversationRows is the number of rows in the Conversations tab.
func (m Model) conversationRows() int {
	return len(m.conversations) + 1
}

// selectable reports whether row i of the Conversations tab can be chosen.
// Row 0 is the new-conversation entry; the open conversation is not
// selectable.
func (m Model) selectable(i int) bool {
	if i == 0 {
		return true
	}
	return m.conversations[i-1].key != m.currentID
}

func (m *Model) moveCursor(delta int) {
	if m.tab == tabSettings {
		m.settingsCursor = clamp(m.settingsCursor+delta, 0, settingsRows()-1)
		return
	}
	for i := m.convCursor + delta; i >= 0 && i < m.conversationRows(); i += delta {
		if m.selectable(i) {
			m.convCursor = i
			return
		}
	}
}

func (m *Model) clampConversationCursor() {
	m.convCursor = clamp(m.convCursor, 0, m.conversationRows()-1)
	if !m.selectable(m.convCursor) {
		m.convCursor = 0
	}
}

func (m Model) selectConversation() (tea.Model, tea.Cmd) {
	if m.streaming || !m.selectable(m.convCursor) {
		return m, nil
	}
	m.err = nil
	m.status = ""

	if m.convCursor == 0 {
		m.session.New()
	} else {
		key := m.conversations[m.convCursor-1].key
		if err := m.session.Open(key); err != nil {
			m.err = err
			return m, m.loadConversations()
		}
		m.convCursor = 0
	}
	m.syncSession()
	m.refreshViewport()
	return m.focusOn(focusInput)
}

func (m Model) selectSetting() (tea.Model, tea.Cmd) {
	if m.streaming {
		return m, nil
	}
	m.err = nil
	m.status = ""

	if m.settingsCursor == keyRow() {
		m.editingKey = true
		m.keyInput.Reset()
		return m, m.keyInput.Focus()
	}
	name := settingsModels()[m.settingsCursor]
	if err := m.session.SetModel(name); err != nil {
		m.err = err
		return m, nil
	}
	m.status = "Model: " + name
	return m, nil
}

func (m Model) handleKeyEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editingKey = false
		m.keyInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.editingKey = false
		m.keyInput.Blur()
		value := strings.TrimSpace(m.keyInput.Value())
		m.keyInput.Reset()
		if value == "" {
			return m, nil
		}
		if err := m.session.SetAPIKey(value); err != nil {
			m.err = err
			return m, nil
		}
		m.status = statusKeySaved
		return m, nil
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
