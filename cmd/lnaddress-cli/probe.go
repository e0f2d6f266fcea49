package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ellemouton/lnaddress"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/urfave/cli/v2"
)

var probeCommand = &cli.Command{
	Name:  "probe",
	Usage: "Request an invoice from a lightning address",
	Description: `Resolve a lightning address or LNURL, request an invoice
	for the given amount and check it. Nothing is paid.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "lnurl",
			Usage: "the lightning address or LNURL to probe",
		},
		&cli.Uint64Flag{
			Name:  "amt",
			Usage: "the amt of millisats to request",
		},
		&cli.StringFlag{
			Name:  "comment",
			Usage: "comment to attach to the request",
		},
		&cli.BoolFlag{
			Name:  "notls",
			Usage: "set to true to use http instead of https",
		},
	},
	Action: probeLNURL,
}

// probeResult is what we learnt about a lightning address.
type probeResult struct {
	payResp     *lnaddress.PayResponse
	invoice     *zpay32.Invoice
	payRequest  string
	hashMatches bool
}

func probeLNURL(ctx *cli.Context) error {
	lnurl := ctx.String("lnurl")
	if lnurl == "" {
		return fmt.Errorf("missing '--lnurl' flag")
	}

	params, err := lndclient.Network(ctx.String("network")).ChainParams()
	if err != nil {
		return err
	}

	target, err := resolveURL(lnurl, ctx.Bool("notls"))
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: ctx.Duration("timeout")}
	res, err := probe(
		client, target, lnwire.MilliSatoshi(ctx.Uint64("amt")),
		ctx.String("comment"), params,
	)
	if err != nil {
		return err
	}

	fmt.Printf("Callback:      %s\n", res.payResp.Callback)
	fmt.Printf("Sendable:      %d - %d msat\n", res.payResp.MinSendable,
		res.payResp.MaxSendable)
	fmt.Printf("Invoice:       %s\n", res.payRequest)
	fmt.Printf("Amount:        %v\n", *res.invoice.MilliSat)
	fmt.Printf("Payment hash:  %x\n", res.invoice.PaymentHash[:])
	if !res.hashMatches {
		fmt.Println("Warning: invoice does not commit to the " +
			"metadata description hash")
	}

	return nil
}

// resolveURL turns a lightning address, bech32 LNURL or lnurlp:// url into
// the url of the pay request.
func resolveURL(lnurl string, notls bool) (string, error) {
	protocol := "https"
	if notls {
		protocol = "http"
	}

	var (
		target string
		err    error
	)

	// lnurlp:// also starts with LNURL, so it has to be matched first.
	switch {
	case strings.HasPrefix(lnurl, "lnurlp://"):
		target = strings.Replace(lnurl, "lnurlp", protocol, 1)

	case strings.HasPrefix(strings.ToUpper(lnurl), "LNURL1"):
		target, err = lnaddress.DecodeURL(lnurl)
		if err != nil {
			return "", fmt.Errorf("error decoding LNURL: %w", err)
		}

	case strings.HasPrefix(lnurl, "lightning:"):
		target, err = lnaddress.DecodeURL(
			strings.TrimPrefix(lnurl, "lightning:"),
		)
		if err != nil {
			return "", fmt.Errorf("error decoding LNURL: %w", err)
		}

	case strings.Contains(lnurl, "@"):
		// This is an LN Address:
		parts := strings.Split(lnurl, "@")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("invalid LN address. Expected " +
				"the form <username>@<domain>")
		}

		username, domain := parts[0], parts[1]
		target = fmt.Sprintf("%s://%s/.well-known/lnurlp/%s",
			protocol, domain, url.PathEscape(username))

	default:
		return "", fmt.Errorf("unsupported scheme")
	}

	// Ensure that the url uses the tls if we have not set --notls
	if !notls && !strings.HasPrefix(target, "https") {
		return "", fmt.Errorf("url is not https")
	}

	return target, nil
}

// probe fetches the pay request at target, asks its callback for an invoice
// over amt and decodes the result.
func probe(client *http.Client, target string, amt lnwire.MilliSatoshi,
	comment string, params *chaincfg.Params) (*probeResult, error) {

	var payResp lnaddress.PayResponse
	if err := get(client, target, &payResp); err != nil {
		return nil, err
	}

	if payResp.Tag != lnaddress.TypePayRequest {
		return nil, fmt.Errorf("unexpected tag %q", payResp.Tag)
	}

	// Ensure that the response contains the necessary metadata field.
	var metadata [][]string
	err := json.Unmarshal([]byte(payResp.Metadata), &metadata)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	var hasText bool
	for _, entry := range metadata {
		if len(entry) == 2 && entry[0] == "text/plain" {
			hasText = true
		}
	}
	if !hasText {
		return nil, fmt.Errorf("response metadata does not contain " +
			"the required 'text/plain' field")
	}

	if uint64(amt) < payResp.MinSendable ||
		uint64(amt) > payResp.MaxSendable {

		return nil, fmt.Errorf("invalid amount. Expected an amount "+
			"between %d and %d, got %d", payResp.MinSendable,
			payResp.MaxSendable, uint64(amt))
	}

	if utf8.RuneCountInString(comment) > int(payResp.CommentAllowed) {
		return nil, fmt.Errorf("comment longer than the %d "+
			"characters allowed", payResp.CommentAllowed)
	}

	callback, err := url.Parse(payResp.Callback)
	if err != nil {
		return nil, fmt.Errorf("invalid callback: %w", err)
	}
	query := callback.Query()
	query.Set("amount", fmt.Sprintf("%d", uint64(amt)))
	if comment != "" {
		query.Set("comment", comment)
	}
	callback.RawQuery = query.Encode()

	var invoiceResp lnaddress.InvoiceResponse
	if err := get(client, callback.String(), &invoiceResp); err != nil {
		return nil, err
	}

	inv, err := zpay32.Decode(invoiceResp.PayRequest, params)
	if err != nil {
		return nil, err
	}

	// Backends invoice whole satoshis, so sub-satoshi amounts are
	// truncated.
	expected := lnwire.NewMSatFromSatoshis(amt.ToSatoshis())
	if inv.MilliSat == nil || *inv.MilliSat != expected {
		return nil, fmt.Errorf("invoice amount does not match "+
			"the requested %v", expected)
	}

	// LUD-06 wants the invoice to commit to the metadata. Nodes that use
	// the payer's comment as description can't, so only report it.
	hash := sha256.Sum256([]byte(payResp.Metadata))
	hashMatches := inv.DescriptionHash != nil &&
		*inv.DescriptionHash == hash

	return &probeResult{
		payResp:     &payResp,
		invoice:     inv,
		payRequest:  invoiceResp.PayRequest,
		hashMatches: hashMatches,
	}, nil
}
