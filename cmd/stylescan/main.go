// Package main is the entry point for the stylescan CLI.
//
// This file is intentionally minimal - all logic lives in the commands package.
// The main function only initializes and executes the root command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/stylescan/stylescan/cmd/stylescan/commands"
)

func main() {
	// Load .env if present. Missing files are fine; real settings come
	// from the config file and STYLESCAN_* environment variables.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		// Findings are not a failure: the report was already written,
		// the exit code just tells CI something was flagged.
		if errors.Is(err, commands.ErrFindings) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
