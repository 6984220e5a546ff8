// Package netx contains a small JSON-over-HTTP request helper shared by API
// clients.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned for non-2xx responses. The response body is
// preserved so callers can decode vendor error payloads.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Do sends an HTTP request with an optional JSON body and returns the
// response header and body. A non-2xx status is reported as *StatusError
// with the body attached.
func Do(ctx context.Context, client *http.Client, method, url string, header http.Header, body []byte) (http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, err
	}

	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, nil, &StatusError{Code: resp.StatusCode, Body: respBody}
	}

	return resp.Header, respBody, nil
}
