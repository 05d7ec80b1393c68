package main

import (
	"os"

	"github.com/wonny/ecorank/backend/cmd/ecorank/commands"
)

// main is the entry point for the ecorank CLI
// ⭐ single CLI entry point: go run ./cmd/ecorank [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
