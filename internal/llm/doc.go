// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm streams chat completions from an OpenAI-compatible API.
//
// A Completer turns a Request into a Stream of text Fragments. Client is
// the go-openai backed implementation; Collect drains a Stream while
// reporting the accumulated reply after every fragment.
//
// # Usage
//
//	client := llm.NewClient(llm.WithBaseURL(cfg.API.BaseURL))
//	stream, err := client.Stream(ctx, llm.Request{APIKey: key, Model: model, Messages: msgs})
//	if err != nil {
//		return err
//	}
//	reply, err := llm.Collect(stream, func(partial string) { fmt.Print("\r", partial) })
//
// Retries and backoff are left to the caller.
package llm
