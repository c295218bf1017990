// Package main provides the contractlint command.
package main

import (
	"os"

	"github.com/leapstack-labs/contractlint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
