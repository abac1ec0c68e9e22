// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"io"
	"strings"

	"github.com/jeranaias/dersingpt/internal/storage"
)

// Request is one chat-completion call.
type Request struct {
	APIKey   string
	Model    string
	Messages []storage.Message
}

// Fragment is one increment of a streamed reply.
type Fragment struct {
	Content string
}

// HasContent reports whether the fragment carries text. Role-only deltas
// and finish events do not.
func (f Fragment) HasContent() bool {
	return f.Content != ""
}

// Stream yields fragments until Recv returns io.EOF.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// Completer opens completion streams.
type Completer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Collect drains stream and returns the full reply. onPartial, if non-nil,
// receives the accumulated text after each content fragment. A failure
// midway is returned as a *StreamError holding the text received so far.
// The stream is closed before Collect returns.
func Collect(stream Stream, onPartial func(partial string)) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", &StreamError{Partial: sb.String(), Err: err}
		}
		if !frag.HasContent() {
			continue
		}

		sb.WriteString(frag.Content)
		if onPartial != nil {
			onPartial(sb.String())
		}
	}
}
