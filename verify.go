package lnaddress

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
)

// ErrInvoiceMismatch is returned when a backend hands out an invoice that
// does not match what was asked for.
var ErrInvoiceMismatch = errors.New("invoice does not match request")

// verifyInvoice decodes the invoice's payment request and makes sure it pays
// the requested amount to the payment hash the backend reported.
func verifyInvoice(req *InvoiceRequest, invoice *Invoice,
	params *chaincfg.Params) error {

	if invoice.Amount != req.Amount {
		return fmt.Errorf("%w: backend reported %v, requested %v",
			ErrInvoiceMismatch, invoice.Amount, req.Amount)
	}

	decoded, err := zpay32.Decode(invoice.PaymentRequest, params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceMismatch, err)
	}

	want := lnwire.NewMSatFromSatoshis(req.Amount)
	switch {
	case decoded.MilliSat == nil:
		return fmt.Errorf("%w: invoice has no amount",
			ErrInvoiceMismatch)

	case *decoded.MilliSat != want:
		return fmt.Errorf("%w: invoice amount %v, requested %v",
			ErrInvoiceMismatch, *decoded.MilliSat, want)

	case decoded.PaymentHash == nil:
		return fmt.Errorf("%w: invoice has no payment hash",
			ErrInvoiceMismatch)

	case lntypes.Hash(*decoded.PaymentHash) != invoice.PaymentHash:
		return fmt.Errorf("%w: payment hash %x, backend reported %v",
			ErrInvoiceMismatch, decoded.PaymentHash[:],
			invoice.PaymentHash)
	}

	return nil
}
