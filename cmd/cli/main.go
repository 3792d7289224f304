// Package main is the entry point for the workplane CLI.
// The CLI is the operator terminal tool for triggering and inspecting
// scheduler runs.
package main

import (
	"os"

	"workplane/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
