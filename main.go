// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// dersingpt - a terminal chat client for OpenAI models.
package main

import (
	"os"

	"github.com/jeranaias/dersingpt/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
