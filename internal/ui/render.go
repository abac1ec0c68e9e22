// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/jeranaias/dersingpt/internal/storage"
)

// refreshViewport re-renders the chat pane and keeps it scrolled to the end.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

// renderChat renders the conversation, including the turn in flight.
func (m Model) renderChat() string {
	width := max(10, m.chatWidth()-2)

	if len(m.history) == 0 && !m.streaming {
		return m.theme.Hint.Render("Start a conversation by typing below.")
	}

	var b strings.Builder
	for _, msg := range m.history {
		if msg.Role == storage.RoleUser {
			b.WriteString(m.renderUser(msg.Content, width))
		} else {
			b.WriteString(m.renderAssistant(m.renderMarkdown(msg.Content), width))
		}
		b.WriteString("\n\n")
	}

	if m.streaming {
		b.WriteString(m.renderUser(m.pending, width))
		b.WriteString("\n\n")
		b.WriteString(m.renderAssistant(m.partial+streamCursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderUser(content string, width int) string {
	label := m.theme.UserLabel.Render("You")
	return label + "\n" + m.theme.UserBubble.Width(width).Render(content)
}

func (m Model) renderAssistant(content string, width int) string {
	label := m.theme.AssistantLabel.Render("Assistant")
	return label + "\n" + m.theme.AssistantBubble.Width(width).Render(content)
}

// renderMarkdown renders finished replies. The raw text is used when
// markdown is off or rendering fails.
func (m Model) renderMarkdown(content string) string {
	if !m.markdown || m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		m.logger.Debug().Err(err).Msg("markdown render failed")
		return content
	}
	return strings.Trim(out, "\n")
}
