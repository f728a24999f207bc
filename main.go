package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sadopc/daytick/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := cli.NewRootCmd(&cli.App{})
	return rootCmd.ExecuteContext(context.Background())
}
