package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aide-dev/aide/pkg/cli"
	"github.com/subosito/gotenv"
)

func main() {
	// A missing .env file is fine; real environment variables still apply
	_ = gotenv.Load()

	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)
		os.Exit(err.Code)
	}
}
