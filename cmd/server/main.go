package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	cfg := config.LoadOrDefault()

	app := newCLIApp(cfg, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
