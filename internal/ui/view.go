// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dersingpt/internal/util"
)

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.notice != "" {
		box := m.theme.NoticeBox.Render(m.notice + "\n\n" + m.theme.Hint.Render("press any key"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(m.bodyHeight()),
		lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			m.renderInput(),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatus())
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("DersinGPT")

	label := "New conversation"
	for _, item := range m.conversations {
		if item.key == m.currentID {
			label = item.label
			break
		}
	}
	info := m.theme.HeaderInfo.Render(label + " | " + m.session.Model())

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(info) - 2
	if gap < 1 {
		info = ""
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + info
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) renderInput() string {
	style := m.theme.Input
	if m.focus == focusInput {
		style = m.theme.InputFocused
	}
	return style.Width(m.chatWidth() - 2).Render(m.input.View())
}

func (m Model) renderStatus() string {
	width := max(1, m.width-4)
	fit := func(s string) string { return util.TruncateWidth(s, width) }

	var text string
	switch {
	case m.streaming:
		text = m.spinner.View() + " " + fit("Streaming... esc to cancel")
	case m.err != nil:
		text = m.theme.Error.Render(fit("Error: " + util.SingleLine(m.err.Error())))
	case m.status != "":
		text = m.theme.Success.Render(fit(m.status))
	case m.focus == focusSidebar:
		text = m.theme.Hint.Render(fit("↑/↓ move • ←/→ tabs • enter select • tab back"))
	default:
		text = m.theme.Hint.Render(fit("enter send • ctrl+j newline • tab sidebar • ctrl+c quit"))
	}
	return m.theme.StatusBar.Width(m.width).Render(text)
}
