package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ellemouton/lnaddress"
	"github.com/ellemouton/lnaddress/phoenixd"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// withContext runs action against a cli context parsed from args.
func withContext(t *testing.T, args []string,
	action func(*cli.Context) error) error {

	t.Helper()

	app := cli.NewApp()
	app.Flags = flags
	app.Action = action

	return app.Run(append([]string{"lnaddressd"}, args...))
}

// clearEnv makes sure the environment of the test runner does not leak into
// the parsed flags.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"HOST", "PORT", "DOMAIN", "USERNAMES", "BACKEND", "NETWORK",
		"PHOENIXD_PASSWORD", "PHOENIXD_CONFIG", "DEBUG",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestServerConfigDefaults(t *testing.T) {
	clearEnv(t)

	err := withContext(t, nil, func(ctx *cli.Context) error {
		cfg, err := serverConfig(ctx)
		require.NoError(t, err)

		require.Equal(t, &lnaddress.Config{
			ListenAddr:          "127.0.0.1:3000",
			Usernames:           []string{lnaddress.Wildcard},
			Name:                "Satoshi",
			Description:         "Hello World",
			MinSendable:         lnwire.MilliSatoshi(1000),
			MaxSendable:         lnwire.MilliSatoshi(2100000000),
			EnforceAmountBounds: true,
			ShutdownTimeout:     lnaddress.DefaultShutdownTimeout,
		}, cfg)

		require.Equal(t, &phoenixd.Config{
			URL:     "http://127.0.0.1",
			Port:    9740,
			Timeout: 10 * time.Second,
		}, phoenixdConfig(ctx))

		return nil
	})
	require.NoError(t, err)
}

func TestServerConfigFlags(t *testing.T) {
	args := []string{
		"--listen", "::1", "--port", "8080",
		"--domain", "pay.example.org",
		"--usernames", "alice  bob",
		"--lnurl-allow-note", "120",
		"--lnurl-greeting", "Thanks!",
		"--lnurl-minimum-sendable-milisats", "5000",
		"--enforce-amount-bounds=false",
		"--verify-invoices",
		"--network", "testnet",
		"--phoenixd-password", "secret",
		"--phoenixd-config", "/tmp/phoenix.conf",
	}

	err := withContext(t, args, func(ctx *cli.Context) error {
		cfg, err := serverConfig(ctx)
		require.NoError(t, err)

		require.Equal(t, "[::1]:8080", cfg.ListenAddr)
		require.Equal(t, "pay.example.org", cfg.Domain)
		require.Equal(t, []string{"alice", "bob"}, cfg.Usernames)
		require.Equal(t, uint8(120), cfg.CommentAllowed)
		require.Equal(t, "Thanks!", cfg.Greeting)
		require.Equal(t, lnwire.MilliSatoshi(5000), cfg.MinSendable)
		require.False(t, cfg.EnforceAmountBounds)
		require.True(t, cfg.VerifyInvoices)
		require.Equal(
			t, chaincfg.TestNet3Params.Name, cfg.ChainParams.Name,
		)

		phx := phoenixdConfig(ctx)
		require.Equal(t, "secret", phx.Password)
		require.Equal(t, "/tmp/phoenix.conf", phx.ConfigPath)

		return nil
	})
	require.NoError(t, err)
}

func TestServerConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("USERNAMES", "carol dave")
	t.Setenv("PORT", "4000")
	t.Setenv("LNURL_PAYMENT_DESCRIPTION", "Tips")

	err := withContext(t, nil, func(ctx *cli.Context) error {
		cfg, err := serverConfig(ctx)
		require.NoError(t, err)

		require.Equal(t, []string{"carol", "dave"}, cfg.Usernames)
		require.Equal(t, "127.0.0.1:4000", cfg.ListenAddr)
		require.Equal(t, "Tips", cfg.Description)

		return nil
	})
	require.NoError(t, err)
}

func TestServerConfigInvalid(t *testing.T) {
	tests := [][]string{
		{"--lnurl-allow-note", "256"},
		{"--port", "70000"},
		{"--verify-invoices", "--network", "moonnet"},
	}

	for _, args := range tests {
		err := withContext(t, args, func(ctx *cli.Context) error {
			_, err := serverConfig(ctx)
			return err
		})
		require.Error(t, err, args)
	}
}

func TestNewBackend(t *testing.T) {
	err := withContext(t, nil, func(ctx *cli.Context) error {
		backend, cleanup, err := newBackend(ctx)
		require.NoError(t, err)
		defer cleanup()

		require.IsType(t, &lnaddress.PhoenixdBackend{}, backend)
		return nil
	})
	require.NoError(t, err)

	err = withContext(t, []string{"--backend", "cln"},
		func(ctx *cli.Context) error {
			_, _, err := newBackend(ctx)
			return err
		},
	)
	require.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "lnaddressd.log")

	err := withContext(t, []string{"--logfile", logFile, "--debug"},
		func(ctx *cli.Context) error {
			closeLog, err := setupLogging(ctx)
			require.NoError(t, err)
			closeLog()

			return nil
		},
	)
	require.NoError(t, err)
	require.DirExists(t, filepath.Dir(logFile))

	err = withContext(t, []string{"--debuglevel", "loud"},
		func(ctx *cli.Context) error {
			_, err := setupLogging(ctx)
			return err
		},
	)
	require.Error(t, err)

	lnaddress.DisableLog()
	phoenixd.DisableLog()
}
