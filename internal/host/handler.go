// Package host implements the native messaging side of AcqBridge: Chrome
// framing, the typed request/response contract and the dispatch handler
// gluing the vault, session and acquisitions client together.
package host

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
	"github.com/dmitrijs2005/acqbridge/internal/common"
	"github.com/dmitrijs2005/acqbridge/internal/logging"
	"github.com/dmitrijs2005/acqbridge/internal/order"
	"github.com/dmitrijs2005/acqbridge/internal/session"
	"github.com/dmitrijs2005/acqbridge/internal/settings"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

// Version is reported in HEALTH responses.
const Version = "0.2.0"

// NewAPIClientFunc constructs an acquisitions client for the given region
// and credential. Swapped out in tests.
type NewAPIClientFunc func(region acq.Region, apiKey string) (acq.API, error)

type Handler struct {
	vault     *vault.Vault
	session   *session.Manager
	db        *sql.DB
	log       logging.Logger
	newClient NewAPIClientFunc
}

func NewHandler(v *vault.Vault, s *session.Manager, db *sql.DB, log logging.Logger, newClient NewAPIClientFunc) *Handler {
	if newClient == nil {
		newClient = func(region acq.Region, apiKey string) (acq.API, error) {
			return acq.NewClient(region, apiKey)
		}
	}
	return &Handler{vault: v, session: s, db: db, log: log, newClient: newClient}
}

// Handle processes one inbound payload and always produces a response: JSON
// errors, unknown request types and even handler panics are converted into
// error responses so the extension is never left waiting.
func (h *Handler) Handle(ctx context.Context, payload []byte) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Error(ctx, "handler panic", "panic", p)
			resp = errResponse(CodeInternal, fmt.Sprintf("panic: %v", p))
		}
	}()

	req, err := decodeRequest(payload)
	if err != nil {
		return errResponse(CodeBadRequest, "invalid json")
	}

	switch req.Type {
	case TypeHealth:
		return Response{OK: true, Version: Version}
	case TypeSetPassword:
		return h.setPassword(ctx, req)
	case TypeUnlock:
		return h.unlock(ctx, req)
	case TypeSaveCredential:
		return h.saveCredential(ctx, req)
	case TypeRevealCredential:
		return h.revealCredential(ctx)
	case TypeHasUsableCredential:
		return h.hasUsableCredential(ctx)
	case TypeHasStoredCredential:
		return h.hasStoredCredential(ctx)
	case TypeClearCredential:
		return h.clearCredential(ctx)
	case TypeLock:
		h.session.Lock()
		return Response{OK: true}
	case TypeGetRegion:
		return h.getRegion(ctx)
	case TypeListFunds:
		return h.listFunds(ctx, req)
	case TypeGetCodeTable:
		return h.getCodeTable(ctx, req)
	case TypeSearchUsers:
		return h.searchUsers(ctx, req)
	case TypeCreatePOLine:
		return h.createPOLine(ctx, req)
	default:
		return errResponse(CodeUnsupported, fmt.Sprintf("unsupported request type %q", req.Type))
	}
}

func (h *Handler) setPassword(ctx context.Context, req *Request) Response {
	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	if err := h.vault.SetPassword(ctx, password); err != nil {
		return h.failure(ctx, "set password", err)
	}
	return Response{OK: true}
}

func (h *Handler) unlock(ctx context.Context, req *Request) Response {
	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	if err := h.session.Unlock(ctx, password); err != nil {
		return h.failure(ctx, "unlock", err)
	}
	return Response{OK: true}
}

func (h *Handler) saveCredential(ctx context.Context, req *Request) Response {
	region, err := acq.ParseRegion(req.Region)
	if err != nil {
		return errResponse(CodeBadRequest, err.Error())
	}

	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	if err := h.vault.SaveCredential(ctx, []byte(req.Value), password); err != nil {
		return h.failure(ctx, "save credential", err)
	}

	if err := h.settingsRepo().Set(ctx, vault.KeyRegion, []byte(region)); err != nil {
		return h.failure(ctx, "save region", err)
	}

	// refresh the session so the new credential is immediately usable
	h.session.Lock()
	h.session.AutoUnlock(ctx)

	return Response{OK: true}
}

func (h *Handler) revealCredential(ctx context.Context) Response {
	value, err := h.session.Reveal(ctx)
	if err != nil {
		return h.failure(ctx, "reveal credential", err)
	}

	n, err := h.vault.CredentialLength(ctx)
	if err != nil {
		n = len(value)
	}
	return Response{OK: true, Value: value, MaskedLength: n}
}

func (h *Handler) hasUsableCredential(ctx context.Context) Response {
	_, ok := h.session.GetUsableCredential(ctx)
	return Response{OK: true, HasKey: &ok}
}

func (h *Handler) hasStoredCredential(ctx context.Context) Response {
	has, err := h.vault.HasEncryptedCredential(ctx)
	if err != nil {
		return h.failure(ctx, "check stored credential", err)
	}
	return Response{OK: true, HasEncrypted: &has}
}

func (h *Handler) clearCredential(ctx context.Context) Response {
	h.session.Lock()
	if err := h.vault.Clear(ctx); err != nil {
		return h.failure(ctx, "clear credential", err)
	}
	return Response{OK: true}
}

func (h *Handler) getRegion(ctx context.Context) Response {
	region, err := h.loadRegion(ctx)
	if err != nil {
		return h.failure(ctx, "load region", err)
	}
	return Response{OK: true, Region: string(region)}
}

func (h *Handler) listFunds(ctx context.Context, req *Request) Response {
	client, resp, ok := h.apiClient(ctx)
	if !ok {
		return resp
	}

	funds, err := client.ListFunds(ctx, req.Query, req.Offset, req.Limit)
	if err != nil {
		return h.failure(ctx, "list funds", err)
	}
	return apiResponse(client, funds)
}

func (h *Handler) getCodeTable(ctx context.Context, req *Request) Response {
	if req.Table == "" {
		return errResponse(CodeBadRequest, "code table name is required")
	}

	client, resp, ok := h.apiClient(ctx)
	if !ok {
		return resp
	}

	table, err := client.GetCodeTable(ctx, req.Table)
	if err != nil {
		return h.failure(ctx, "get code table", err)
	}
	return apiResponse(client, table)
}

func (h *Handler) searchUsers(ctx context.Context, req *Request) Response {
	client, resp, ok := h.apiClient(ctx)
	if !ok {
		return resp
	}

	users, err := client.SearchUsers(ctx, req.Query, req.Offset, req.Limit)
	if err != nil {
		return h.failure(ctx, "search users", err)
	}
	return apiResponse(client, users)
}

func (h *Handler) createPOLine(ctx context.Context, req *Request) Response {
	if req.Item == nil || req.Order == nil {
		return errResponse(CodeBadRequest, "item and order fields are required")
	}

	line, err := order.BuildPOLine(*req.Item, *req.Order)
	if err != nil {
		return errResponse(CodeBadRequest, err.Error())
	}

	client, resp, ok := h.apiClient(ctx)
	if !ok {
		return resp
	}

	created, err := client.CreatePOLine(ctx, line)
	if err != nil {
		return h.failure(ctx, "create po line", err)
	}

	h.log.Info(ctx, "po line created", "number", created.Number, "title", created.ResourceMetadata.Title)
	return apiResponse(client, created)
}

// apiClient materializes an acquisitions client from the session credential
// and stored region. When no usable credential exists the returned Response
// carries the locked error and ok is false.
func (h *Handler) apiClient(ctx context.Context) (acq.API, Response, bool) {
	apiKey, ok := h.session.GetUsableCredential(ctx)
	if !ok {
		return nil, errResponse(CodeLocked, "no usable credential"), false
	}

	region, err := h.loadRegion(ctx)
	if err != nil {
		return nil, h.failure(ctx, "load region", err), false
	}

	client, err := h.newClient(region, apiKey)
	if err != nil {
		return nil, h.failure(ctx, "create api client", err), false
	}
	return client, Response{}, true
}

// loadRegion reads the region setting on every call rather than caching it,
// so a change written by another surface takes effect immediately.
func (h *Handler) loadRegion(ctx context.Context) (acq.Region, error) {
	raw, err := h.settingsRepo().Get(ctx, vault.KeyRegion)
	if err != nil {
		return "", err
	}
	return acq.ParseRegion(string(raw))
}

func (h *Handler) settingsRepo() settings.Repository {
	return settings.NewSQLiteRepository(h.db)
}

// failure converts an error into a response, mapping the known sentinel
// kinds to stable codes; anything unexpected becomes a generic internal
// failure with a diagnostic message. Nothing here is fatal to the process.
func (h *Handler) failure(ctx context.Context, op string, err error) Response {
	code := errorCode(err)
	if code == CodeInternal {
		h.log.Error(ctx, "operation failed", "op", op, "error", err)
	} else {
		h.log.Warn(ctx, "operation rejected", "op", op, "code", code)
	}
	return errResponse(code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrAlreadySet):
		return CodeAlreadySet
	case errors.Is(err, common.ErrNoPasswordSet):
		return CodeNoPasswordSet
	case errors.Is(err, common.ErrIncompleteSetup):
		return CodeIncomplete
	case errors.Is(err, common.ErrWrongPassword):
		return CodeWrongPassword
	case errors.Is(err, common.ErrAuthenticationFailed):
		return CodeAuthFailed
	case errors.Is(err, common.ErrLocked):
		return CodeLocked
	case errors.Is(err, common.ErrNoCredential):
		return CodeNoCredential
	}

	var reqErr *acq.RequestError
	if errors.As(err, &reqErr) {
		return CodeAPIError
	}
	return CodeInternal
}

func errResponse(code, message string) Response {
	return Response{OK: false, Error: code, Message: message}
}

func apiResponse(client acq.API, result any) Response {
	quota := client.RemainingQuota()
	return Response{OK: true, Result: result, RemainingQuota: &quota}
}

func decodeRequest(payload []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
