package lnaddress

type PayResponse struct {
	// Callback is the URL from LN SERVICE which will accept the pay request
	// parameters
	Callback string `json:"callback"`

	// MaxSendable is the max amount LN SERVICE is willing to receive
	MaxSendable uint64 `json:"maxSendable"`

	// MinSendable is the min amount LN SERVICE is willing to receive, can
	// not be less than 1 or more than `maxSendable`
	MinSendable uint64 `json:"minSendable"`

	// Metadata json which must be presented as raw string here, this is
	// required to pass signature verification at a later step.
	Metadata string `json:"metadata"`

	// CommentAllowed is the max length of a comment the payer may add.
	CommentAllowed uint8 `json:"commentAllowed"`

	// Type of LNURL
	Tag Type `json:"tag"`
}

type InvoiceResponse struct {
	// PayRequest is a bech32-serialized lightning invoice.
	PayRequest string `json:"pr"`

	// Routes an empty array.
	Routes []string `json:"routes"`

	// Disposable tells the wallet whether it may store the LNURL.
	Disposable *bool `json:"disposable,omitempty"`

	// SuccessAction is shown by the wallet once the invoice is paid.
	SuccessAction *SuccessAction `json:"successAction,omitempty"`
}

type SuccessAction struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type Type string

const (
	TypePayRequest Type = "payRequest"

	// SuccessActionMessage is the tag of a plain text success action.
	SuccessActionMessage = "message"

	// ErrorStatus is the status of every LNURL error response.
	ErrorStatus = "ERROR"
)

type Error struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}
