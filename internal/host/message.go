package host

import "github.com/dmitrijs2005/acqbridge/internal/order"

// RequestType is the closed set of message kinds the extension can send.
// Dispatch over this set is total; anything else is answered "unsupported".
type RequestType string

const (
	TypeHealth              RequestType = "HEALTH"
	TypeSetPassword         RequestType = "SET_PASSWORD"
	TypeUnlock              RequestType = "UNLOCK"
	TypeSaveCredential      RequestType = "SAVE_CREDENTIAL"
	TypeRevealCredential    RequestType = "REVEAL_CREDENTIAL"
	TypeHasUsableCredential RequestType = "HAS_USABLE_CREDENTIAL"
	TypeHasStoredCredential RequestType = "HAS_STORED_CREDENTIAL"
	TypeClearCredential     RequestType = "CLEAR_CREDENTIAL"
	TypeLock                RequestType = "LOCK"
	TypeGetRegion           RequestType = "GET_REGION"
	TypeListFunds           RequestType = "LIST_FUNDS"
	TypeGetCodeTable        RequestType = "GET_CODE_TABLE"
	TypeSearchUsers         RequestType = "SEARCH_USERS"
	TypeCreatePOLine        RequestType = "CREATE_PO_LINE"
)

// Request is the inbound message envelope. Only the fields relevant to the
// given Type are populated by the extension.
type Request struct {
	Type RequestType `json:"type"`

	// credential operations
	Password string `json:"password,omitempty"`
	Value    string `json:"value,omitempty"`
	Region   string `json:"region,omitempty"`

	// API passthroughs
	Query  string `json:"query,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Table  string `json:"table,omitempty"`

	// order submission
	Item  *order.ScrapedItem `json:"item,omitempty"`
	Order *order.Options     `json:"order,omitempty"`
}

// Response is the outbound message shape. Exactly one response is produced
// for every inbound frame; Error carries a stable machine-readable code and
// Message a human-readable diagnostic.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	Value        string `json:"value,omitempty"`
	MaskedLength int    `json:"maskedLength,omitempty"`
	HasKey       *bool  `json:"hasKey,omitempty"`
	HasEncrypted *bool  `json:"hasEncrypted,omitempty"`
	Region       string `json:"region,omitempty"`
	Version      string `json:"version,omitempty"`

	Result         any  `json:"result,omitempty"`
	RemainingQuota *int `json:"remainingQuota,omitempty"`
}

// Stable error codes reported in Response.Error.
const (
	CodeBadRequest    = "bad_request"
	CodeUnsupported   = "unsupported"
	CodeAlreadySet    = "already_set"
	CodeNoPasswordSet = "no_password_set"
	CodeIncomplete    = "incomplete_setup"
	CodeWrongPassword = "wrong_password"
	CodeAuthFailed    = "authentication_failed"
	CodeLocked        = "locked"
	CodeNoCredential  = "no_credential"
	CodeAPIError      = "api_error"
	CodeInternal      = "internal"
)
