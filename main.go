package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/pr-poehali-dev/image-description-webapp/cmd"
)

const version = "0.1.0"

func main() {
	rootCmd := cmd.NewRootCmd()

	// Use fang for beautiful CLI with automatic completions, manpages, --version, etc.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
