// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Error variables for common API failures.
var (
	// ErrNotConfigured is returned when the request carries no API key.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed is returned for HTTP 401 and 403 responses.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited is returned for HTTP 429 responses.
	ErrRateLimited = errors.New("rate limited")
)

// StreamError represents an error that occurred during streaming,
// carrying whatever content arrived before the failure.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// mapError translates go-openai errors into the package sentinels.
func mapError(err error, action string) error {
	if err == nil {
		return nil
	}

	status, message := 0, err.Error()
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, message = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(ErrAuthFailed, "%s: HTTP %d: %s", action, status, message)
	case http.StatusTooManyRequests:
		return errors.Wrapf(ErrRateLimited, "%s: %s", action, message)
	}
	return errors.Wrap(err, action)
}
