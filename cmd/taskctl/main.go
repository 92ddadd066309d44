// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Command taskctl supervises an external command with the taskctl
// combinators.
package main

import (
	"context"
	"os"

	"vawter.tech/taskctl/cmd/taskctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
