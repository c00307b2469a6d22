// Package main provides the olistdw CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/olistdw/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
