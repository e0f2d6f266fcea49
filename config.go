package lnaddress

import (
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// Wildcard is the username entry that authorizes any username.
	Wildcard = "*"

	// DefaultName is the default payee name shown by wallets.
	DefaultName = "Satoshi"

	// DefaultDescription is the default payment description.
	DefaultDescription = "Hello World"

	// DefaultMinSendable is the default minimum amount we accept.
	DefaultMinSendable = lnwire.MilliSatoshi(1000)

	// DefaultMaxSendable is the default maximum amount we accept.
	DefaultMaxSendable = lnwire.MilliSatoshi(2100000000)

	// DefaultShutdownTimeout is how long in-flight requests get to finish
	// once the server is asked to stop.
	DefaultShutdownTimeout = 15 * time.Second
)

var (
	// ErrNoUsernames is returned when a config accepts no usernames.
	ErrNoUsernames = errors.New("no usernames configured")

	// ErrNoChainParams is returned when invoice verification is enabled
	// without a chain to decode invoices for.
	ErrNoChainParams = errors.New("invoice verification requires " +
		"chain params")
)

// Config holds the lightning address server configuration. It is built once
// at startup and never modified afterwards.
type Config struct {
	// ListenAddr is the host:port the http server listens on.
	ListenAddr string

	// Domain overrides the callback host. If empty the host of each
	// request is used.
	Domain string

	// Usernames are the usernames we mint invoices for. A Wildcard entry
	// accepts any username.
	Usernames []string

	// Name is the payee name shown by wallets.
	Name string

	// Description is the payment description shown by wallets.
	Description string

	// CommentAllowed is the maximum comment length a payer may attach.
	CommentAllowed uint8

	// Greeting is shown to the payer once the payment is done. Empty means
	// no success action.
	Greeting string

	// MinSendable and MaxSendable bound the amount a payer may send.
	MinSendable lnwire.MilliSatoshi
	MaxSendable lnwire.MilliSatoshi

	// EnforceAmountBounds rejects callbacks outside the advertised
	// [MinSendable, MaxSendable] range.
	EnforceAmountBounds bool

	// VerifyInvoices decodes every invoice returned by the backend and
	// checks it against the request before handing it out.
	VerifyInvoices bool

	// ChainParams are used to decode invoices when VerifyInvoices is set.
	ChainParams *chaincfg.Params

	// ShutdownTimeout bounds graceful shutdown. Zero means
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Validate checks the config for obvious mistakes.
func (c *Config) Validate() error {
	if len(c.Usernames) == 0 {
		return ErrNoUsernames
	}

	if c.VerifyInvoices && c.ChainParams == nil {
		return ErrNoChainParams
	}

	// Wallets are expected to notice this themselves, so it's only worth
	// a warning.
	if c.MinSendable > c.MaxSendable {
		log.Warnf("Minimum sendable %v is above maximum sendable %v",
			c.MinSendable, c.MaxSendable)
	}

	return nil
}

// Authorized returns true if we mint invoices for username. Matching is exact,
// without any case folding.
func (c *Config) Authorized(username string) bool {
	for _, u := range c.Usernames {
		if u == username || u == Wildcard {
			return true
		}
	}

	return false
}
