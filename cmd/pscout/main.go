// Package main is the entry point for the pscout CLI client.
package main

import "github.com/pricescout/pricescout/cmd/pscout/cmd"

func main() {
	cmd.Execute()
}
