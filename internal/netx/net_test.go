package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "apikey k", r.Header.Get("Authorization"))
		w.Header().Set("X-Test", "yes")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "apikey k")

	respHeader, body, err := Do(context.Background(), srv.Client(), http.MethodGet, srv.URL, header, nil)
	require.NoError(t, err)
	assert.Equal(t, "yes", respHeader.Get("X-Test"))
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDo_StatusErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorList":{}}`))
	}))
	defer srv.Close()

	_, _, err := Do(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.JSONEq(t, `{"errorList":{}}`, string(statusErr.Body))
}

func TestDo_SetsContentTypeForBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, _, err := Do(context.Background(), srv.Client(), http.MethodPost, srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
}
