package host

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
	"github.com/dmitrijs2005/acqbridge/internal/logging"
	"github.com/dmitrijs2005/acqbridge/internal/order"
	"github.com/dmitrijs2005/acqbridge/internal/session"
	"github.com/dmitrijs2005/acqbridge/internal/settings"
	"github.com/dmitrijs2005/acqbridge/internal/store"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

// fakeAPI implements acq.API for dispatch tests.
type fakeAPI struct {
	apiKey  string
	region  acq.Region
	created *acq.POLine
	fail    error
}

func (f *fakeAPI) ListFunds(ctx context.Context, query string, offset, limit int) (*acq.FundList, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &acq.FundList{TotalRecordCount: 1, Funds: []acq.Fund{{Code: "HIST", Name: "History"}}}, nil
}

func (f *fakeAPI) GetCodeTable(ctx context.Context, name string) (*acq.CodeTable, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &acq.CodeTable{Name: name}, nil
}

func (f *fakeAPI) SearchUsers(ctx context.Context, query string, offset, limit int) (*acq.UserList, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &acq.UserList{TotalRecordCount: 0}, nil
}

func (f *fakeAPI) CreatePOLine(ctx context.Context, line *acq.POLine) (*acq.POLine, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	created := *line
	created.Number = "POL-1"
	f.created = &created
	return &created, nil
}

func (f *fakeAPI) RemainingQuota() int { return 99 }

func setupHandler(t *testing.T) (*Handler, *fakeAPI) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	v := vault.New(db)
	s := session.NewManager(v)
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	api := &fakeAPI{}
	newClient := func(region acq.Region, apiKey string) (acq.API, error) {
		api.region = region
		api.apiKey = apiKey
		return api, nil
	}

	return NewHandler(v, s, db, log, newClient), api
}

func handle(t *testing.T, h *Handler, req Request) Response {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return h.Handle(context.Background(), payload)
}

func TestHandle_Health(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeHealth})
	assert.True(t, resp.OK)
	assert.Equal(t, Version, resp.Version)
}

func TestHandle_BadJSON(t *testing.T) {
	h, _ := setupHandler(t)

	resp := h.Handle(context.Background(), []byte("{not json"))
	assert.False(t, resp.OK)
	assert.Equal(t, CodeBadRequest, resp.Error)
}

func TestHandle_UnsupportedType(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: RequestType("SELF_DESTRUCT")})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeUnsupported, resp.Error)
}

func TestHandle_SetPasswordTwice(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"})
	assert.True(t, resp.OK)

	resp = handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeAlreadySet, resp.Error)
}

func TestHandle_CredentialLifecycle(t *testing.T) {
	h, _ := setupHandler(t)

	// nothing stored yet
	resp := handle(t, h, Request{Type: TypeHasStoredCredential})
	require.True(t, resp.OK)
	assert.False(t, *resp.HasEncrypted)

	resp = handle(t, h, Request{Type: TypeHasUsableCredential})
	require.True(t, resp.OK)
	assert.False(t, *resp.HasKey)

	// setup
	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)
	resp = handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk-test-12345", Password: "Sesame1", Region: "eu",
	})
	require.True(t, resp.OK)

	// stored and immediately usable
	resp = handle(t, h, Request{Type: TypeHasStoredCredential})
	require.True(t, resp.OK)
	assert.True(t, *resp.HasEncrypted)

	resp = handle(t, h, Request{Type: TypeHasUsableCredential})
	require.True(t, resp.OK)
	assert.True(t, *resp.HasKey)

	resp = handle(t, h, Request{Type: TypeGetRegion})
	require.True(t, resp.OK)
	assert.Equal(t, "eu", resp.Region)

	resp = handle(t, h, Request{Type: TypeRevealCredential})
	require.True(t, resp.OK)
	assert.Equal(t, "sk-test-12345", resp.Value)
	assert.Equal(t, len("sk-test-12345"), resp.MaskedLength)

	// lock drops the session credential, but auto-unlock restores it
	require.True(t, handle(t, h, Request{Type: TypeLock}).OK)
	resp = handle(t, h, Request{Type: TypeHasUsableCredential})
	require.True(t, resp.OK)
	assert.True(t, *resp.HasKey)

	// clear removes everything
	require.True(t, handle(t, h, Request{Type: TypeClearCredential}).OK)
	resp = handle(t, h, Request{Type: TypeHasStoredCredential})
	require.True(t, resp.OK)
	assert.False(t, *resp.HasEncrypted)
	resp = handle(t, h, Request{Type: TypeHasUsableCredential})
	require.True(t, resp.OK)
	assert.False(t, *resp.HasKey)

	// clear is idempotent
	assert.True(t, handle(t, h, Request{Type: TypeClearCredential}).OK)
}

func TestHandle_SaveCredentialWrongPassword(t *testing.T) {
	h, _ := setupHandler(t)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)

	resp := handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk", Password: "NotSesame", Region: "na",
	})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeWrongPassword, resp.Error)

	resp = handle(t, h, Request{Type: TypeHasStoredCredential})
	require.True(t, resp.OK)
	assert.False(t, *resp.HasEncrypted)
}

func TestHandle_SaveCredentialBadRegion(t *testing.T) {
	h, _ := setupHandler(t)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)

	resp := handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk", Password: "Sesame1", Region: "apac",
	})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeBadRequest, resp.Error)
}

func TestHandle_UnlockErrors(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeUnlock, Password: "x"})
	assert.Equal(t, CodeNoPasswordSet, resp.Error)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)

	resp = handle(t, h, Request{Type: TypeUnlock, Password: "wrong"})
	assert.Equal(t, CodeWrongPassword, resp.Error)

	resp = handle(t, h, Request{Type: TypeUnlock, Password: "Sesame1"})
	assert.True(t, resp.OK)
}

func TestHandle_IncompleteSetup(t *testing.T) {
	h, _ := setupHandler(t)
	ctx := context.Background()

	repo := settings.NewSQLiteRepository(h.db)
	require.NoError(t, repo.Set(ctx, vault.KeyPasswordSalt, []byte("c2FsdA")))

	resp := handle(t, h, Request{Type: TypeUnlock, Password: "Sesame1"})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeIncomplete, resp.Error)
}

func TestHandle_RevealLocked(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeRevealCredential})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeLocked, resp.Error)
}

func TestHandle_APIPassthroughRequiresCredential(t *testing.T) {
	h, _ := setupHandler(t)

	for _, reqType := range []RequestType{TypeListFunds, TypeSearchUsers} {
		resp := handle(t, h, Request{Type: reqType})
		assert.False(t, resp.OK, "type %s", reqType)
		assert.Equal(t, CodeLocked, resp.Error, "type %s", reqType)
	}
}

func TestHandle_ListFunds(t *testing.T) {
	h, api := setupHandler(t)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)
	require.True(t, handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk-test-12345", Password: "Sesame1", Region: "eu",
	}).OK)

	resp := handle(t, h, Request{Type: TypeListFunds, Query: "hist"})
	require.True(t, resp.OK)
	assert.NotNil(t, resp.Result)
	require.NotNil(t, resp.RemainingQuota)
	assert.Equal(t, 99, *resp.RemainingQuota)

	// the client was built from the stored region and session credential
	assert.Equal(t, acq.RegionEU, api.region)
	assert.Equal(t, "sk-test-12345", api.apiKey)
}

func TestHandle_ListFunds_APIError(t *testing.T) {
	h, api := setupHandler(t)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)
	require.True(t, handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk", Password: "Sesame1", Region: "na",
	}).OK)

	api.fail = &acq.RequestError{Status: 400, Errors: []acq.APIError{{Code: "402880", Message: "bad fund"}}}

	resp := handle(t, h, Request{Type: TypeListFunds})
	assert.False(t, resp.OK)
	assert.Equal(t, CodeAPIError, resp.Error)
	assert.Contains(t, resp.Message, "bad fund")
}

func TestHandle_GetCodeTableRequiresName(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeGetCodeTable})
	assert.Equal(t, CodeBadRequest, resp.Error)
}

func TestHandle_CreatePOLine(t *testing.T) {
	h, api := setupHandler(t)

	require.True(t, handle(t, h, Request{Type: TypeSetPassword, Password: "Sesame1"}).OK)
	require.True(t, handle(t, h, Request{
		Type: TypeSaveCredential, Value: "sk", Password: "Sesame1", Region: "na",
	}).OK)

	resp := handle(t, h, Request{
		Type: TypeCreatePOLine,
		Item: &order.ScrapedItem{
			Title: "The Go Programming Language", Price: "$31.99", Currency: "USD", Vendor: "AMZ",
		},
		Order: &order.Options{OwnerCode: "MAIN", FundCode: "HIST"},
	})
	require.True(t, resp.OK, "message: %s", resp.Message)
	require.NotNil(t, api.created)
	assert.Equal(t, "POL-1", api.created.Number)
	assert.Equal(t, "31.99", api.created.Price.Sum)
}

func TestHandle_CreatePOLine_MissingFields(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeCreatePOLine})
	assert.Equal(t, CodeBadRequest, resp.Error)

	resp = handle(t, h, Request{
		Type:  TypeCreatePOLine,
		Item:  &order.ScrapedItem{},
		Order: &order.Options{OwnerCode: "MAIN", FundCode: "HIST"},
	})
	assert.Equal(t, CodeBadRequest, resp.Error)
}

func TestHandle_GetRegionDefault(t *testing.T) {
	h, _ := setupHandler(t)

	resp := handle(t, h, Request{Type: TypeGetRegion})
	require.True(t, resp.OK)
	assert.Equal(t, "na", resp.Region)
}

func TestServe_AnswersEveryFrame(t *testing.T) {
	h, _ := setupHandler(t)

	var in bytes.Buffer
	w := bufio.NewWriter(&in)
	for _, req := range []Request{
		{Type: TypeHealth},
		{Type: RequestType("BOGUS")},
	} {
		payload, err := json.Marshal(req)
		require.NoError(t, err)
		require.NoError(t, writeRaw(w, payload))
	}

	var out bytes.Buffer
	require.NoError(t, h.Serve(context.Background(), &in, &out))

	reader := bufio.NewReader(&out)

	payload, err := ReadFrame(reader)
	require.NoError(t, err)
	var first Response
	require.NoError(t, json.Unmarshal(payload, &first))
	assert.True(t, first.OK)

	payload, err = ReadFrame(reader)
	require.NoError(t, err)
	var second Response
	require.NoError(t, json.Unmarshal(payload, &second))
	assert.False(t, second.OK)
	assert.Equal(t, CodeUnsupported, second.Error)

	// no further frames
	_, err = ReadFrame(reader)
	assert.ErrorIs(t, err, io.EOF)
}

func writeRaw(w *bufio.Writer, payload []byte) error {
	lenBuf := make([]byte, 4)
	lenBuf[0] = byte(len(payload))
	lenBuf[1] = byte(len(payload) >> 8)
	lenBuf[2] = byte(len(payload) >> 16)
	lenBuf[3] = byte(len(payload) >> 24)
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}
