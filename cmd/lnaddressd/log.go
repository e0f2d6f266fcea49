package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/ellemouton/lnaddress"
	"github.com/ellemouton/lnaddress/phoenixd"
	"github.com/jrick/logrotate/rotator"
	"github.com/urfave/cli/v2"
)

// setupLogging points every subsystem logger at stdout and, if requested, at
// a rotating log file. The returned function flushes and closes the file.
func setupLogging(ctx *cli.Context) (func(), error) {
	level := ctx.String("debuglevel")
	if ctx.Bool("debug") {
		level = "debug"
	}

	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var (
		writer  io.Writer = os.Stdout
		closeFn           = func() {}
	)

	if logFile := ctx.String("logfile"); logFile != "" {
		err := os.MkdirAll(filepath.Dir(logFile), 0700)
		if err != nil {
			return nil, err
		}

		r, err := rotator.New(
			logFile, int64(ctx.Int("maxlogfilesize")*1024), false,
			ctx.Int("maxlogfiles"),
		)
		if err != nil {
			return nil, err
		}

		pr, pw := io.Pipe()
		go func() {
			_ = r.Run(pr)
		}()

		writer = io.MultiWriter(os.Stdout, pw)
		closeFn = func() {
			_ = pw.Close()
			_ = r.Close()
		}
	}

	backend := btclog.NewBackend(writer)
	useLogger := func(subsystem string, use func(btclog.Logger)) {
		logger := backend.Logger(subsystem)
		logger.SetLevel(lvl)
		use(logger)
	}

	useLogger(lnaddress.Subsystem, lnaddress.UseLogger)
	useLogger(phoenixd.Subsystem, phoenixd.UseLogger)

	return closeFn, nil
}
