package acq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/acqbridge/internal/common"
	"github.com/dmitrijs2005/acqbridge/internal/netx"
)

// remainingQuotaHeader is the response header carrying the remaining daily
// API request quota.
const remainingQuotaHeader = "X-Exl-Api-Remaining"

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	header := http.Header{}
	header.Set(common.APIKeyHeaderName, "apikey "+c.apiKey)

	respHeader, respBody, err := netx.Do(ctx, c.httpc, method, u, header, body)
	c.captureQuota(respHeader)
	if err != nil {
		var statusErr *netx.StatusError
		if errors.As(err, &statusErr) {
			return decodeRequestError(statusErr)
		}
		return err
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) captureQuota(header http.Header) {
	if header == nil {
		return
	}
	raw := header.Get(remainingQuotaHeader)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.remaining = n
	c.mu.Unlock()
}

func decodeRequestError(statusErr *netx.StatusError) error {
	reqErr := &RequestError{Status: statusErr.Code}

	var parsed errorResponse
	if err := json.Unmarshal(statusErr.Body, &parsed); err == nil {
		reqErr.Errors = parsed.ErrorList.Errors
	}
	return reqErr
}
