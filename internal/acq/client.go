// Package acq is the client for the library system's acquisitions REST API:
// funds listing, code-table lookup, user search and purchase-order-line
// creation. Requests authenticate with the API key the vault protects.
package acq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Region selects one of the two fixed API endpoint hosts.
type Region string

const (
	RegionNA Region = "na"
	RegionEU Region = "eu"
)

var endpointHosts = map[Region]string{
	RegionNA: "https://api-na.hosted.exlibrisgroup.com",
	RegionEU: "https://api-eu.hosted.exlibrisgroup.com",
}

const basePath = "/almaws/v1"

// ParseRegion validates a stored region value. An empty value defaults to
// RegionNA.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionNA, RegionEU:
		return Region(s), nil
	case "":
		return RegionNA, nil
	default:
		return "", fmt.Errorf("unknown region %q", s)
	}
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	mu        sync.Mutex
	remaining int
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpc = c }
}

// WithBaseURL overrides the region-derived base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

func NewClient(region Region, apiKey string, opts ...Option) (*Client, error) {
	host, ok := endpointHosts[region]
	if !ok {
		return nil, fmt.Errorf("unknown region %q", region)
	}

	c := &Client{
		baseURL:   host + basePath,
		apiKey:    apiKey,
		httpc:     &http.Client{Timeout: 30 * time.Second},
		remaining: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RemainingQuota returns the remaining daily request quota as reported by
// the last response, or -1 before the first request.
func (c *Client) RemainingQuota() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// ListFunds returns active funds, optionally filtered by a name query,
// paginated via offset/limit.
func (c *Client) ListFunds(ctx context.Context, query string, offset, limit int) (*FundList, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", "name~"+query)
	}
	setPaging(q, offset, limit)

	var out FundList
	if err := c.get(ctx, "/acq/funds", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCodeTable fetches a configuration code table by name.
func (c *Client) GetCodeTable(ctx context.Context, name string) (*CodeTable, error) {
	var out CodeTable
	if err := c.get(ctx, "/conf/code-tables/"+url.PathEscape(name), url.Values{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchUsers searches user records by a free-text query, paginated via
// offset/limit.
func (c *Client) SearchUsers(ctx context.Context, query string, offset, limit int) (*UserList, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", "ALL~"+query)
	}
	setPaging(q, offset, limit)

	var out UserList
	if err := c.get(ctx, "/users", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePOLine submits a purchase-order line and returns the created line,
// including the API-assigned number.
func (c *Client) CreatePOLine(ctx context.Context, line *POLine) (*POLine, error) {
	body, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}

	var out POLine
	if err := c.do(ctx, http.MethodPost, "/acq/po-lines", url.Values{}, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func setPaging(q url.Values, offset, limit int) {
	if limit <= 0 {
		limit = 10
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}
