package acq

import "context"

// API is the acquisitions surface consumers depend on; *Client implements
// it. Kept as an interface so the message handler can be tested without a
// live endpoint.
type API interface {
	ListFunds(ctx context.Context, query string, offset, limit int) (*FundList, error)
	GetCodeTable(ctx context.Context, name string) (*CodeTable, error)
	SearchUsers(ctx context.Context, query string, offset, limit int) (*UserList, error)
	CreatePOLine(ctx context.Context, line *POLine) (*POLine, error)
	RemainingQuota() int
}

var _ API = (*Client)(nil)
