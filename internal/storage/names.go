// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jeranaias/dersingpt/internal/util"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DisplayNameLength is the number of characters of the first user message
// kept as a conversation's display name.
const DisplayNameLength = 30

// nonWord matches every run of characters that may not appear in a key.
var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Slug derives a file key from a display name.
//
// Diacritics are stripped, remaining non-ASCII characters are transliterated,
// everything outside [A-Za-z0-9_] is dropped and the result is lower-cased.
// The mapping is deterministic but not invertible and not unique.
func Slug(name string) string {
	// transform.Chain keeps state, so build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	ascii := unidecode.Unidecode(stripped)
	return strings.ToLower(nonWord.ReplaceAllString(ascii, ""))
}

// DisplayName returns the first DisplayNameLength characters of the first
// user message, or "" when the conversation has none.
func DisplayName(messages []Message) string {
	for _, msg := range messages {
		if msg.Role == RoleUser {
			return util.TruncateRunesNoEllipsis(msg.Content, DisplayNameLength)
		}
	}
	return ""
}

// Label formats a display name for a conversation list. A name that is
// exactly DisplayNameLength characters was probably cut, so it gets "...".
func Label(displayName string) string {
	label := util.Capitalize(util.SingleLine(displayName))
	if util.RuneLen(displayName) == DisplayNameLength {
		label += "..."
	}
	return label
}
