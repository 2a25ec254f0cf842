// Package main is the entry point for the pricescout server.
package main

import (
	"os"

	"github.com/pricescout/pricescout/cmd/pricescout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
