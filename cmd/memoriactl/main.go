// Package main provides the entry point for the memoriactl CLI.
package main

import (
	"os"

	"github.com/solace-labs/memoria/cmd/memoriactl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
