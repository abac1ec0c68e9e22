// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/config"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNotFoundError = 7
)

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validation config.ValidateErrors
	var usage *UsageError
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &validation):
		return ExitConfigError
	case errors.Is(err, llm.ErrAuthFailed),
		errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, chat.ErrMissingAPIKey):
		return ExitAuthError
	case errors.Is(err, storage.ErrConversationNotFound):
		return ExitNotFoundError
	}
	return ExitGeneralError
}

// UsageError reports invalid arguments.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// DisplayError prints err with a hint for the common cases.
func DisplayError(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(w, DimStyle.Render(hint))
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, chat.ErrMissingAPIKey), errors.Is(err, llm.ErrNotConfigured):
		return "Store a key with: dersingpt key set <value>"
	case errors.Is(err, llm.ErrAuthFailed):
		return "The API rejected the key. Replace it with: dersingpt key set <value>"
	case errors.Is(err, llm.ErrRateLimited):
		return "The API is rate limiting requests. Wait a moment and try again."
	case errors.Is(err, storage.ErrConversationNotFound):
		return "List stored conversations with: dersingpt list"
	}
	return ""
}
