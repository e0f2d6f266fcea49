package lnaddress

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lightningnetwork/lnd/lnwire"
)

// Status is the outcome carried by a metadata or callback document.
type Status string

const (
	// StatusOK means the request can be served.
	StatusOK Status = "ok"

	// StatusError means the request was rejected. The reason is in the
	// document's ErrorMessage.
	StatusError Status = "error"
)

const (
	// defaultProto is the callback scheme used when no proxy tells us
	// otherwise.
	defaultProto = "http"

	msgUserNotFound   = "User not found"
	msgMissingAmount  = "Missing amount"
	msgInvalidAmount  = "Invalid amount"
	msgCommentTooLong = "Comment too long"
)

// MetadataDocument is the answer to the first step of LNURL-pay: what can be
// paid to the requested username and where to ask for the invoice.
type MetadataDocument struct {
	Status        Status
	Username      string
	Name          string
	MinSendable   lnwire.MilliSatoshi
	MaxSendable   lnwire.MilliSatoshi
	Description   string
	CommentLength uint8
	CallbackHost  string
	CallbackProto string
	ErrorMessage  string
}

// NewMetadataDocument builds the metadata document for username. requestHost
// is the Host of the incoming request and forwardedProto the value of its
// X-Forwarded-Proto header, if any.
func NewMetadataDocument(cfg *Config, username, requestHost,
	forwardedProto string) *MetadataDocument {

	if !cfg.Authorized(username) {
		return &MetadataDocument{
			Status:       StatusError,
			ErrorMessage: msgUserNotFound,
		}
	}

	callbackHost := requestHost
	if cfg.Domain != "" {
		callbackHost = cfg.Domain
	}

	callbackProto := forwardedProto
	if callbackProto == "" {
		callbackProto = defaultProto
	}

	return &MetadataDocument{
		Status:        StatusOK,
		Username:      username,
		Name:          cfg.Name,
		MinSendable:   cfg.MinSendable,
		MaxSendable:   cfg.MaxSendable,
		Description:   cfg.Description,
		CommentLength: cfg.CommentAllowed,
		CallbackHost:  callbackHost,
		CallbackProto: callbackProto,
	}
}

// CallbackURL is where the wallet requests the invoice. The username is
// path escaped since any username may be served under the wildcard.
func (d *MetadataDocument) CallbackURL() string {
	return fmt.Sprintf("%s://%s/.well-known/lnurlp/%s/callback",
		d.CallbackProto, d.CallbackHost, url.PathEscape(d.Username))
}

// Metadata returns the LUD-06 metadata string. The identifier is the
// requested lightning address, the payee name goes in the long description.
func (d *MetadataDocument) Metadata() string {
	metadata := [][2]string{
		{"text/plain", d.Description},
		{"text/identifier", d.Username + "@" + d.CallbackHost},
	}
	if d.Name != "" {
		metadata = append(metadata, [2]string{
			"text/long-desc", "Payment to " + d.Name,
		})
	}

	b, _ := json.Marshal(metadata)
	return string(b)
}

// Render returns the wire representation of the document.
func (d *MetadataDocument) Render() interface{} {
	if d.Status != StatusOK {
		return &Error{
			Status: ErrorStatus,
			Reason: d.ErrorMessage,
		}
	}

	return &PayResponse{
		Callback:       d.CallbackURL(),
		MaxSendable:    uint64(d.MaxSendable),
		MinSendable:    uint64(d.MinSendable),
		Metadata:       d.Metadata(),
		CommentAllowed: d.CommentLength,
		Tag:            TypePayRequest,
	}
}

// CallbackDocument is the answer to the second step of LNURL-pay: the invoice
// to pay, or why there is none.
type CallbackDocument struct {
	Status         Status
	LNData         string
	SuccessMessage string
	ErrorMessage   string
}

// callbackError returns a rejected callback document.
func callbackError(format string, args ...interface{}) *CallbackDocument {
	return &CallbackDocument{
		Status:       StatusError,
		ErrorMessage: fmt.Sprintf(format, args...),
	}
}

// Render returns the wire representation of the document.
func (d *CallbackDocument) Render() interface{} {
	if d.Status != StatusOK {
		return &Error{
			Status: ErrorStatus,
			Reason: d.ErrorMessage,
		}
	}

	disposable := false
	resp := &InvoiceResponse{
		PayRequest: d.LNData,
		Routes:     []string{},
		Disposable: &disposable,
	}
	if d.SuccessMessage != "" {
		resp.SuccessAction = &SuccessAction{
			Tag:     SuccessActionMessage,
			Message: d.SuccessMessage,
		}
	}

	return resp
}
