// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
)

// newMarkdownRenderer returns a glamour renderer for the given theme, or
// nil when one cannot be built.
func newMarkdownRenderer(theme string, width int) *glamour.TermRenderer {
	style := glamour.WithAutoStyle()
	switch theme {
	case "dark", "light":
		style = glamour.WithStandardStyle(theme)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders content when w is a terminal and markdown is
// enabled, and returns it unchanged otherwise.
func renderMarkdown(w io.Writer, content string, enabled bool, theme string) string {
	if !enabled || w != io.Writer(os.Stdout) || !IsStdoutTTY() {
		return content
	}
	r := newMarkdownRenderer(theme, min(GetTerminalWidth()-4, 100))
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
