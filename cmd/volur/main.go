package main

import (
	"os"

	"github.com/wonny/volur/cmd/volur/commands"
)

// main is the entry point for the volur CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/volur [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
