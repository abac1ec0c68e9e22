// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/util"
)

// The Settings tab lists the models followed by the API key row.
func settingsModels() []string { return llm.Models }

func keyRow() int { return len(llm.Models) }

func settingsRows() int { return len(llm.Models) + 1 }

// renderSidebar renders the tab bar and the active tab's rows.
func (m Model) renderSidebar(height int) string {
	inner := sidebarWidth - 4

	var tabs []string
	for _, t := range []struct {
		tab  sidebarTab
		name string
	}{
		{tabConversations, "Conversations"},
		{tabSettings, "Settings"},
	} {
		if t.tab == m.tab {
			tabs = append(tabs, m.theme.TabActive.Render(t.name))
		} else {
			tabs = append(tabs, m.theme.TabInactive.Render(t.name))
		}
	}

	rowsHeight := max(1, height-4)
	var rows []string
	if m.tab == tabConversations {
		rows = m.conversationLines(inner, rowsHeight)
	} else {
		rows = m.settingsLines(inner)
	}

	body := strings.Join(tabs, " ") + "\n\n" + strings.Join(rows, "\n")

	style := m.theme.Sidebar
	if m.focus == focusSidebar {
		style = m.theme.SidebarFocused
	}
	return style.Width(sidebarWidth - 2).Height(max(1, height-2)).Render(body)
}

func (m Model) conversationLines(width, height int) []string {
	focused := m.focus == focusSidebar
	start, end := visibleWindow(m.convCursor, m.conversationRows(), height)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		var text string
		current := false
		if i == 0 {
			text = newConversationLabel
		} else {
			item := m.conversations[i-1]
			text = item.label
			current = item.key == m.currentID
		}

		prefix := "  "
		if current {
			prefix = "● "
		}
		text = util.TruncateWidth(prefix+text, width)

		switch {
		case focused && i == m.convCursor:
			lines = append(lines, m.theme.ListSelected.Render(text))
		case current:
			lines = append(lines, m.theme.ListCurrent.Render(text))
		default:
			lines = append(lines, m.theme.ListItem.Render(text))
		}
	}
	return lines
}

func (m Model) settingsLines(width int) []string {
	focused := m.focus == focusSidebar
	lines := []string{m.theme.FieldLabel.Render("Model")}

	for i, name := range settingsModels() {
		mark := "○ "
		if name == m.session.Model() {
			mark = "◉ "
		}
		text := util.TruncateWidth(mark+name, width)
		if focused && i == m.settingsCursor {
			lines = append(lines, m.theme.ListSelected.Render(text))
		} else {
			lines = append(lines, m.theme.ListItem.Render(text))
		}
	}

	lines = append(lines, "", m.theme.FieldLabel.Render("API key"))
	switch {
	case m.editingKey:
		lines = append(lines, m.keyInput.View(), m.theme.Hint.Render("enter save • esc cancel"))
	case focused && m.settingsCursor == keyRow():
		lines = append(lines, m.theme.ListSelected.Render(util.TruncateWidth(credential.Mask(m.session.APIKey()), width)))
	default:
		lines = append(lines, m.theme.ListItem.Render(util.TruncateWidth(credential.Mask(m.session.APIKey()), width)))
	}
	return lines
}

// visibleWindow returns the [start, end) range of rows to draw so that
// cursor stays on screen.
func visibleWindow(cursor, total, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := cursor - height + 1
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}
