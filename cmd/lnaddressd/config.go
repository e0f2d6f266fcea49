package main

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ellemouton/lnaddress"
	"github.com/ellemouton/lnaddress/phoenixd"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/urfave/cli/v2"
)

const (
	backendPhoenixd = "phoenixd"
	backendLnd      = "lnd"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen",
		Aliases: []string{"l"},
		Value:   "127.0.0.1",
		Usage:   "IPv4 or IPv6 host the server listens on",
		EnvVars: []string{"HOST"},
	},
	&cli.UintFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Value:   3000,
		Usage:   "port the server listens on",
		EnvVars: []string{"PORT"},
	},
	&cli.StringFlag{
		Name: "domain",
		Usage: "domain used in callbacks, taken from each request " +
			"if not set",
		EnvVars: []string{"DOMAIN"},
	},
	&cli.StringFlag{
		Name:    "usernames",
		Aliases: []string{"a"},
		Value:   lnaddress.Wildcard,
		Usage: "space separated usernames accepting payments, " +
			"'*' accepts any",
		EnvVars: []string{"USERNAMES"},
	},
	&cli.StringFlag{
		Name:    "backend",
		Value:   backendPhoenixd,
		Usage:   "node minting the invoices: phoenixd or lnd",
		EnvVars: []string{"BACKEND"},
	},
	&cli.StringFlag{
		Name:    "network",
		Value:   string(lndclient.NetworkMainnet),
		Usage:   "chain the node runs on",
		EnvVars: []string{"NETWORK"},
	},
	&cli.StringFlag{
		Name: "phoenixd-config",
		Usage: "path to the phoenixd config file, default is " +
			"$HOME/.phoenix/phoenix.conf",
		EnvVars: []string{"PHOENIXD_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "phoenixd-url",
		Value:   phoenixd.DefaultURL,
		Usage:   "scheme and host of the phoenixd API",
		EnvVars: []string{"PHOENIXD_URL"},
	},
	&cli.IntFlag{
		Name:    "phoenixd-port",
		Value:   phoenixd.DefaultPort,
		Usage:   "port of the phoenixd API",
		EnvVars: []string{"PHOENIXD_PORT"},
	},
	&cli.StringFlag{
		Name:    "phoenixd-username",
		Usage:   "username for the phoenixd API",
		EnvVars: []string{"PHOENIXD_USERNAME"},
	},
	&cli.StringFlag{
		Name: "phoenixd-password",
		Usage: "password for the phoenixd API, read from the " +
			"phoenixd config file if not set",
		EnvVars: []string{"PHOENIXD_PASSWORD"},
	},
	&cli.StringFlag{
		Name:    "lnd.host",
		Value:   "localhost:10009",
		Usage:   "lnd instance rpc address",
		EnvVars: []string{"LND_HOST"},
	},
	&cli.StringFlag{
		Name:    "lnd.macaroondir",
		Usage:   "path to lnd's macaroon dir",
		EnvVars: []string{"LND_MACAROONDIR"},
	},
	&cli.StringFlag{
		Name:    "lnd.tlspath",
		Usage:   "path to lnd's tls cert",
		EnvVars: []string{"LND_TLSPATH"},
	},
	&cli.StringFlag{
		Name:    "lnurl-payment-identify",
		Value:   lnaddress.DefaultName,
		Usage:   "identifying name displayed when paying",
		EnvVars: []string{"LNURL_PAYMENT_IDENTIFY"},
	},
	&cli.StringFlag{
		Name:    "lnurl-payment-description",
		Value:   lnaddress.DefaultDescription,
		Usage:   "message displayed when paying",
		EnvVars: []string{"LNURL_PAYMENT_DESCRIPTION"},
	},
	&cli.UintFlag{
		Name:    "lnurl-allow-note",
		Usage:   "max length of a comment the payer may add",
		EnvVars: []string{"LNURL_ALLOW_NOTE"},
	},
	&cli.StringFlag{
		Name:    "lnurl-greeting",
		Usage:   "message shown once the payment is done",
		EnvVars: []string{"LNURL_GREETING"},
	},
	&cli.Uint64Flag{
		Name:    "lnurl-minimum-sendable-milisats",
		Value:   uint64(lnaddress.DefaultMinSendable),
		Usage:   "minimum amount in millisatoshis to send",
		EnvVars: []string{"LNURL_MINIMUM_SENDABLE_MILISATS"},
	},
	&cli.Uint64Flag{
		Name:    "lnurl-maximum-sendable-milisats",
		Value:   uint64(lnaddress.DefaultMaxSendable),
		Usage:   "maximum amount in millisatoshis to send",
		EnvVars: []string{"LNURL_MAXIMUM_SENDABLE_MILISATS"},
	},
	&cli.BoolFlag{
		Name:    "enforce-amount-bounds",
		Value:   true,
		Usage:   "reject callbacks outside the advertised amounts",
		EnvVars: []string{"ENFORCE_AMOUNT_BOUNDS"},
	},
	&cli.BoolFlag{
		Name: "verify-invoices",
		Usage: "decode every invoice and check it against the " +
			"request before handing it out",
		EnvVars: []string{"VERIFY_INVOICES"},
	},
	&cli.DurationFlag{
		Name:    "request-timeout",
		Value:   phoenixd.DefaultTimeout,
		Usage:   "timeout of each request to phoenixd",
		EnvVars: []string{"REQUEST_TIMEOUT"},
	},
	&cli.DurationFlag{
		Name:    "shutdown-timeout",
		Value:   lnaddress.DefaultShutdownTimeout,
		Usage:   "time in-flight requests get on shutdown",
		EnvVars: []string{"SHUTDOWN_TIMEOUT"},
	},
	&cli.BoolFlag{
		Name:    "debug",
		Usage:   "turn debugging information on",
		EnvVars: []string{"DEBUG"},
	},
	&cli.StringFlag{
		Name:    "debuglevel",
		Value:   "info",
		Usage:   "log level: trace, debug, info, warn, error, critical",
		EnvVars: []string{"DEBUGLEVEL"},
	},
	&cli.StringFlag{
		Name:    "logfile",
		Usage:   "also write logs to this file, rotating it",
		EnvVars: []string{"LOGFILE"},
	},
	&cli.IntFlag{
		Name:  "maxlogfilesize",
		Value: 10,
		Usage: "maximum log file size in MB before rotating",
	},
	&cli.IntFlag{
		Name:  "maxlogfiles",
		Value: 3,
		Usage: "maximum number of rotated log files to keep",
	},
}

// serverConfig builds the server config from the command line.
func serverConfig(ctx *cli.Context) (*lnaddress.Config, error) {
	port := ctx.Uint("port")
	if port > math.MaxUint16 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	note := ctx.Uint("lnurl-allow-note")
	if note > math.MaxUint8 {
		return nil, fmt.Errorf("lnurl-allow-note must be at most %d, "+
			"got %d", math.MaxUint8, note)
	}

	cfg := &lnaddress.Config{
		ListenAddr: net.JoinHostPort(
			ctx.String("listen"), strconv.FormatUint(
				uint64(port), 10,
			),
		),
		Domain:         ctx.String("domain"),
		Usernames:      strings.Fields(ctx.String("usernames")),
		Name:           ctx.String("lnurl-payment-identify"),
		Description:    ctx.String("lnurl-payment-description"),
		CommentAllowed: uint8(note),
		Greeting:       ctx.String("lnurl-greeting"),
		MinSendable: lnwire.MilliSatoshi(
			ctx.Uint64("lnurl-minimum-sendable-milisats"),
		),
		MaxSendable: lnwire.MilliSatoshi(
			ctx.Uint64("lnurl-maximum-sendable-milisats"),
		),
		EnforceAmountBounds: ctx.Bool("enforce-amount-bounds"),
		VerifyInvoices:      ctx.Bool("verify-invoices"),
		ShutdownTimeout:     ctx.Duration("shutdown-timeout"),
	}

	if cfg.VerifyInvoices {
		params, err := chainParams(ctx)
		if err != nil {
			return nil, err
		}
		cfg.ChainParams = params
	}

	return cfg, nil
}

// chainParams returns the params of the configured network.
func chainParams(ctx *cli.Context) (*chaincfg.Params, error) {
	params, err := lndclient.Network(ctx.String("network")).ChainParams()
	if err != nil {
		return nil, fmt.Errorf("unknown network %q: %w",
			ctx.String("network"), err)
	}

	return params, nil
}

// phoenixdConfig builds the phoenixd client config from the command line.
func phoenixdConfig(ctx *cli.Context) *phoenixd.Config {
	return &phoenixd.Config{
		URL:        ctx.String("phoenixd-url"),
		Port:       ctx.Int("phoenixd-port"),
		Username:   ctx.String("phoenixd-username"),
		Password:   ctx.String("phoenixd-password"),
		ConfigPath: ctx.String("phoenixd-config"),
		Timeout:    ctx.Duration("request-timeout"),
	}
}

// newBackend connects to the configured invoice backend. The returned
// function releases it.
func newBackend(ctx *cli.Context) (lnaddress.InvoiceBackend, func(),
	error) {

	switch ctx.String("backend") {
	case backendPhoenixd:
		client := phoenixd.NewClient(phoenixdConfig(ctx))
		return lnaddress.NewPhoenixdBackend(client), func() {}, nil

	case backendLnd:
		lnd, err := lnaddress.NewLndBackend(&lnaddress.LndConfig{
			Host:        ctx.String("lnd.host"),
			Network:     lndclient.Network(ctx.String("network")),
			MacaroonDir: ctx.String("lnd.macaroondir"),
			TLSPath:     ctx.String("lnd.tlspath"),
		})
		if err != nil {
			return nil, nil, err
		}

		return lnd, lnd.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q",
			ctx.String("backend"))
	}
}
