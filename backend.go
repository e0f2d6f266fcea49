package lnaddress

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnaddress/phoenixd"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// InvoiceRequest describes the invoice a callback asks for.
type InvoiceRequest struct {
	// Amount is the invoice amount in whole satoshis.
	Amount btcutil.Amount

	// Description is the payer's comment, possibly empty.
	Description string

	// ExternalID correlates the invoice with the request that created it.
	ExternalID string
}

// Invoice is an invoice minted by a backend.
type Invoice struct {
	Amount         btcutil.Amount
	PaymentHash    lntypes.Hash
	PaymentRequest string
}

// InvoiceBackend is a lightning node able to mint invoices.
type InvoiceBackend interface {
	// CreateInvoice mints a new invoice.
	CreateInvoice(ctx context.Context, req *InvoiceRequest) (*Invoice,
		error)

	// Info returns a short human readable description of the node.
	Info(ctx context.Context) (string, error)
}

// PhoenixdBackend mints invoices through phoenixd's http API.
type PhoenixdBackend struct {
	client *phoenixd.Client
}

// NewPhoenixdBackend returns a backend using client.
func NewPhoenixdBackend(client *phoenixd.Client) *PhoenixdBackend {
	return &PhoenixdBackend{client: client}
}

// CreateInvoice mints a new invoice.
func (p *PhoenixdBackend) CreateInvoice(ctx context.Context,
	req *InvoiceRequest) (*Invoice, error) {

	invoice, err := p.client.CreateInvoice(
		ctx, uint64(req.Amount), req.Description, req.ExternalID,
	)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		Amount:         btcutil.Amount(invoice.AmountSat),
		PaymentHash:    invoice.PaymentHash,
		PaymentRequest: invoice.Serialized,
	}, nil
}

// Info returns a short human readable description of the node.
func (p *PhoenixdBackend) Info(ctx context.Context) (string, error) {
	info, err := p.client.GetInfo(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("phoenixd %s (%s) node %s", info.Version,
		info.Chain, info.NodeID), nil
}

// LndConfig holds the connection details of an lnd node.
type LndConfig struct {
	Host        string
	Network     lndclient.Network
	MacaroonDir string
	TLSPath     string
}

// LndBackend mints invoices on an lnd node.
type LndBackend struct {
	client   lndclient.LightningClient
	services *lndclient.GrpcLndServices
}

// NewLndBackend connects to the lnd node described by cfg.
func NewLndBackend(cfg *LndConfig) (*LndBackend, error) {
	lnd, err := lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:  cfg.Host,
		Network:     cfg.Network,
		MacaroonDir: cfg.MacaroonDir,
		TLSPath:     cfg.TLSPath,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to lnd: %w", err)
	}

	return &LndBackend{
		client:   lnd.Client,
		services: lnd,
	}, nil
}

// CreateInvoice mints a new invoice. lnd has no notion of an external id, so
// it is only logged.
func (l *LndBackend) CreateInvoice(ctx context.Context,
	req *InvoiceRequest) (*Invoice, error) {

	hash, pr, err := l.client.AddInvoice(ctx, &invoicesrpc.AddInvoiceData{
		Memo:  req.Description,
		Value: lnwire.NewMSatFromSatoshis(req.Amount),
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Created lnd invoice %v for request %s", hash,
		req.ExternalID)

	return &Invoice{
		Amount:         req.Amount,
		PaymentHash:    hash,
		PaymentRequest: pr,
	}, nil
}

// Info returns a short human readable description of the node.
func (l *LndBackend) Info(ctx context.Context) (string, error) {
	info, err := l.client.GetInfo(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("lnd node %s (%x)", info.Alias,
		info.IdentityPubkey[:]), nil
}

// Close closes the connection to lnd.
func (l *LndBackend) Close() {
	if l.services != nil {
		l.services.Close()
	}
}
