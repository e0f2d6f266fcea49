package phoenixd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

const (
	// DefaultURL is the scheme and host phoenixd listens on by default.
	DefaultURL = "http://127.0.0.1"

	// DefaultPort is phoenixd's default http API port.
	DefaultPort = 9740

	// DefaultTimeout bounds every request made to phoenixd.
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response is kept for the
	// returned error.
	maxErrorBody = 512
)

// Config holds everything needed to talk to a phoenixd node.
type Config struct {
	// URL is the scheme and host of the phoenixd API, without port.
	URL string

	// Port is the port of the phoenixd API.
	Port int

	// Username and Password, if Password is set, are used for basic auth
	// instead of the credentials found in the phoenix config file.
	Username string
	Password string

	// ConfigPath overrides the default $HOME/.phoenix/phoenix.conf.
	ConfigPath string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Invoice is a freshly minted phoenixd invoice.
type Invoice struct {
	AmountSat   uint64
	PaymentHash lntypes.Hash
	Serialized  string
}

// NodeInfo is the subset of phoenixd's getinfo response we care about.
type NodeInfo struct {
	NodeID  string `json:"nodeId"`
	Chain   string `json:"chain"`
	Version string `json:"version"`
}

// invoiceResponse mirrors phoenixd's createinvoice response. Pointers let us
// tell missing fields apart from zero values.
type invoiceResponse struct {
	AmountSat   *uint64 `json:"amountSat"`
	PaymentHash *string `json:"paymentHash"`
	Serialized  *string `json:"serialized"`
}

// Client is a phoenixd http API client. It is safe for concurrent use.
type Client struct {
	cfg        *Config
	httpClient *http.Client

	credsMu sync.Mutex
	creds   *Credentials
}

// NewClient creates a phoenixd client. Credentials are resolved on first use
// and reused after that.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateInvoice asks phoenixd to mint an invoice over amountSat satoshis.
func (c *Client) CreateInvoice(ctx context.Context, amountSat uint64,
	description, externalID string) (*Invoice, error) {

	form := url.Values{}
	form.Set("description", description)
	form.Set("amountSat", strconv.FormatUint(amountSat, 10))
	form.Set("externalId", externalID)

	var resp invoiceResponse
	err := c.do(ctx, http.MethodPost, "/createinvoice", form, &resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.AmountSat == nil:
		return nil, fmt.Errorf("%w: missing amountSat",
			ErrMalformedResponse)

	case resp.PaymentHash == nil:
		return nil, fmt.Errorf("%w: missing paymentHash",
			ErrMalformedResponse)

	case resp.Serialized == nil:
		return nil, fmt.Errorf("%w: missing serialized",
			ErrMalformedResponse)
	}

	hash, err := lntypes.MakeHashFromStr(*resp.PaymentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid paymentHash: %v",
			ErrMalformedResponse, err)
	}

	log.Debugf("Created invoice %v over %d sat (external id %s)", hash,
		*resp.AmountSat, externalID)

	return &Invoice{
		AmountSat:   *resp.AmountSat,
		PaymentHash: hash,
		Serialized:  *resp.Serialized,
	}, nil
}

// GetInfo queries basic information about the phoenixd node.
func (c *Client) GetInfo(ctx context.Context) (*NodeInfo, error) {
	var info NodeInfo
	if err := c.do(ctx, http.MethodGet, "/getinfo", nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// credentials returns the cached credentials, resolving them if this is the
// first successful call.
func (c *Client) credentials() (*Credentials, error) {
	c.credsMu.Lock()
	defer c.credsMu.Unlock()

	if c.creds != nil {
		return c.creds, nil
	}

	creds, err := ResolveCredentials(c.cfg)
	if err != nil {
		return nil, err
	}
	c.creds = creds

	return creds, nil
}

// forgetCredentials drops the cached credentials if they are still creds, so
// that a rotated password is picked up on the next request.
func (c *Client) forgetCredentials(creds *Credentials) {
	c.credsMu.Lock()
	defer c.credsMu.Unlock()

	if c.creds == creds {
		log.Infof("phoenixd rejected our credentials, resolving them " +
			"again on the next request")

		c.creds = nil
	}
}

// do performs an authenticated request against the phoenixd API and decodes
// the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string,
	form url.Values, out interface{}) error {

	creds, err := c.credentials()
	if err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	target := fmt.Sprintf("%s:%d%s", c.cfg.URL, c.cfg.Port, path)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	if form != nil {
		req.Header.Set(
			"Content-Type", "application/x-www-form-urlencoded",
		)
	}
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.forgetCredentials(creds)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrBackendStatus,
			method, path, resp.StatusCode,
			strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}
