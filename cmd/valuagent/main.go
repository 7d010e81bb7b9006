package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/valuagent/valuagent/internal/commands"
)

func main() {
	// A missing .env is fine; the environment and valuagent.yaml still apply.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		if errors.Is(err, commands.ErrInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
