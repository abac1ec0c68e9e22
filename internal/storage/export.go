// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// ExportFormats lists the formats accepted by Export.
var ExportFormats = []string{FormatMarkdown, FormatJSON, FormatYAML}

// Export renders the record in the named format.
func (r *Record) Export(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return []byte(r.ExportMarkdown()), nil
	case FormatJSON:
		return r.ExportJSON()
	case FormatYAML, "yml":
		return r.ExportYAML()
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)",
			format, strings.Join(ExportFormats, ", "))
	}
}

// ExportMarkdown renders the conversation as a markdown transcript.
func (r *Record) ExportMarkdown() string {
	var sb strings.Builder

	title := r.DisplayName
	if title == "" {
		title = r.FileKey
	}
	sb.WriteString("# ")
	sb.WriteString(Label(title))
	sb.WriteString("\n\n")

	for _, msg := range r.Messages {
		switch msg.Role {
		case RoleUser:
			sb.WriteString("## You\n\n")
		case RoleAssistant:
			sb.WriteString("## Assistant\n\n")
		default:
			sb.WriteString("## " + msg.Role + "\n\n")
		}
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ExportJSON renders the record exactly as it is stored.
func (r *Record) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ExportYAML renders the record as YAML.
func (r *Record) ExportYAML() ([]byte, error) {
	return yaml.Marshal(r)
}
