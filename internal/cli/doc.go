// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the dersingpt command line.
//
// Commands:
//
//	dersingpt                     Start the full-screen chat (default)
//	dersingpt chat                Start the line-based chat REPL
//	dersingpt list [--search q]   List stored conversations
//	dersingpt show <key>          Print a conversation
//	dersingpt export <key>        Export a conversation (markdown, json, yaml)
//	dersingpt key set <value>     Store the API key
//	dersingpt key show            Show the stored key, masked
//	dersingpt models              List selectable models
//	dersingpt config ...          Show, get or set configuration
//	dersingpt version             Print version information
//
// Global flags:
//
//	--config PATH      Config file (default ~/.dersingpt/config.toml)
//	--data-dir DIR     Data directory
//	--model NAME       Model for new turns
//	--log-level LEVEL  trace, debug, info, warn, error
//	--log-file PATH    Write logs to PATH
package cli
