// Package main is the entry point for the skillsync CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aidanlsb/skillsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
