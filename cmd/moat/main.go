package main

import (
	"os"

	"github.com/wonny/moat/cmd/moat/commands"
)

// main is the entry point for the moat CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/moat [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
