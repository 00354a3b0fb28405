// Package main is the entry point for the rfmseg CLI.
package main

import (
	"os"

	"github.com/runger/rfmseg/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
