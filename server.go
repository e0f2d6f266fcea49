package lnaddress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ellemouton/lnaddress/phoenixd"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// forwardedProtoHeader is set by reverse proxies terminating TLS.
	forwardedProtoHeader = "X-Forwarded-Proto"

	// readHeaderTimeout bounds how long a client may take to send its
	// request headers.
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	cfg     *Config
	backend InvoiceBackend
	router  http.Handler
}

func NewServer(cfg *Config, backend InvoiceBackend) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := Server{
		cfg:     cfg,
		backend: backend,
	}

	r := chi.NewRouter()
	r.Use(requestID, requestLogger, recoverer)

	r.Get("/.well-known/lnurlp/{username}", s.pay)
	r.Get("/.well-known/lnurlp/{username}/callback", s.invoice)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	s.router = r

	return &s, nil
}

// Handler returns the http handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves requests until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.printHello(); err != nil {
		return err
	}

	info, err := s.backend.Info(ctx)
	if err != nil {
		// The node may simply not be up yet, requests will tell.
		log.Warnf("Unable to query invoice backend: %v", err)
	} else {
		log.Infof("Connected to %s", info)
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	log.Infof("Listening on %v", listener.Addr())

	select {
	case err := <-serveErr:
		return err

	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}

	log.Infof("Shutting down, waiting up to %v for requests to finish",
		timeout)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), timeout,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) printHello() error {
	if s.cfg.Domain == "" {
		log.Infof("No domain configured, callbacks will use the " +
			"host of each request")

		return nil
	}

	var addresses []string
	for _, username := range s.cfg.Usernames {
		if username == Wildcard {
			addresses = append(addresses, fmt.Sprintf(
				"- any username @%s", s.cfg.Domain,
			))

			continue
		}

		payCode := fmt.Sprintf("https://%s/.well-known/lnurlp/%s",
			s.cfg.Domain, url.PathEscape(username))

		payLNURL, err := EncodeURL(payCode)
		if err != nil {
			return err
		}

		addresses = append(addresses, fmt.Sprintf(
			"- %s@%s\n  lightning:%s", username, s.cfg.Domain,
			payLNURL,
		))
	}

	fmt.Printf(
		""+
			"=======================================\n"+
			"Welcome to lnaddress!\n"+
			"Accepting payments for:\n"+
			"%s\n"+
			"=======================================\n",
		strings.Join(addresses, "\n"),
	)

	return nil
}

// pay serves the metadata document of a lightning address.
func (s *Server) pay(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)

	doc := NewMetadataDocument(
		s.cfg, username, r.Host, r.Header.Get(forwardedProtoHeader),
	)
	if doc.Status != StatusOK {
		log.Debugf("Metadata requested for unknown user %q", username)
	}

	writeJSON(w, http.StatusOK, doc.Render())
}

// invoice serves the callback of a lightning address, minting an invoice for
// the requested amount.
func (s *Server) invoice(w http.ResponseWriter, r *http.Request) {
	username := usernameParam(r)

	doc, err := s.handleCallback(r.Context(), username, r.URL.Query())
	if err != nil {
		log.Errorf("[%s] Unable to create invoice for %q: %v",
			RequestID(r.Context()), username, err)

		writeJSON(w, errorStatusCode(err), &Error{
			Status: ErrorStatus,
			Reason: "unable to create invoice",
		})

		return
	}

	writeJSON(w, http.StatusOK, doc.Render())
}

// handleCallback validates a callback and mints its invoice. Rejected
// requests are reported through the returned document, a non-nil error means
// the invoice could not be created.
func (s *Server) handleCallback(ctx context.Context, username string,
	query url.Values) (*CallbackDocument, error) {

	// Check the user before anything is minted on the node.
	if !s.cfg.Authorized(username) {
		return callbackError(msgUserNotFound), nil
	}

	if !query.Has("amount") {
		return callbackError(msgMissingAmount), nil
	}
	msat, err := strconv.ParseUint(query.Get("amount"), 10, 64)
	if err != nil {
		return callbackError(msgInvalidAmount), nil
	}
	amount := lnwire.MilliSatoshi(msat)

	if s.cfg.EnforceAmountBounds &&
		(amount < s.cfg.MinSendable || amount > s.cfg.MaxSendable) {

		return callbackError("Amount must be between %d and %d "+
			"millisatoshis", uint64(s.cfg.MinSendable),
			uint64(s.cfg.MaxSendable)), nil
	}

	comment := query.Get("comment")
	if utf8.RuneCountInString(comment) > int(s.cfg.CommentAllowed) {
		return callbackError(msgCommentTooLong), nil
	}

	externalID := RequestID(ctx)
	if externalID == "" {
		externalID = uuid.New().String()
	}

	req := &InvoiceRequest{
		Amount:      amount.ToSatoshis(),
		Description: comment,
		ExternalID:  externalID,
	}
	invoice, err := s.backend.CreateInvoice(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cfg.VerifyInvoices {
		err := verifyInvoice(req, invoice, s.cfg.ChainParams)
		if err != nil {
			return nil, err
		}
	}

	return &CallbackDocument{
		Status:         StatusOK,
		LNData:         invoice.PaymentRequest,
		SuccessMessage: s.cfg.Greeting,
	}, nil
}

// errorStatusCode maps an invoice creation failure to an http status code.
// Problems with our own configuration are a 500, anything the node got wrong
// is a 502.
func errorStatusCode(err error) int {
	switch {
	case errors.Is(err, phoenixd.ErrMissingHomeDir),
		errors.Is(err, phoenixd.ErrConfigFile),
		errors.Is(err, phoenixd.ErrMissingPassword):

		return http.StatusInternalServerError

	default:
		return http.StatusBadGateway
	}
}

// usernameParam returns the unescaped username of a lightning address route.
// chi matches on the raw path when the request escapes a reserved character,
// in which case the parameter is still escaped.
func usernameParam(r *http.Request) string {
	username := chi.URLParam(r, "username")
	if r.URL.RawPath == "" {
		return username
	}

	unescaped, err := url.PathUnescape(username)
	if err != nil {
		return username
	}

	return unescaped
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "404")
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("Unable to write response: %v", err)
	}
}

