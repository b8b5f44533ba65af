// Package main is the entry point for the clawsentry CLI.
package main

import (
	"os"

	"github.com/ClawSentry/ClawSentry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
