package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ellemouton/lnaddress"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()

	app.Name = "lnaddressd"
	app.Usage = "Lightning address server backed by phoenixd or lnd"
	app.Flags = flags
	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[lnaddressd] %v\n", err)
	os.Exit(1)
}

func run(ctx *cli.Context) error {
	closeLog, err := setupLogging(ctx)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	defer closeLog()

	cfg, err := serverConfig(ctx)
	if err != nil {
		return err
	}

	backend, cleanup, err := newBackend(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := lnaddress.NewServer(cfg, backend)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(
		ctx.Context, os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	return server.Run(sigCtx)
}
