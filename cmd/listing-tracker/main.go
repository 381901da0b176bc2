// Package main is the entry point for listing-tracker.
package main

import (
	"os"

	"github.com/donaldgifford/listing-tracker/cmd/listing-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
