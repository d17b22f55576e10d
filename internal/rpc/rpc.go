// Package rpc implements the daemon-side JSON-RPC 2.0 method table:
// health, db introspection, the five upsert methods, and log.write.
package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/clankers-dev/clankers/internal/logging"
	"github.com/clankers-dev/clankers/internal/paths"
	"github.com/clankers-dev/clankers/internal/storage"
	"github.com/sourcegraph/jsonrpc2"
)

const version = "0.1.0"

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type RequestEnvelope struct {
	SchemaVersion string     `json:"schemaVersion"`
	Client        ClientInfo `json:"client"`
}

type HealthResult struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

type EnsureDbResult struct {
	DbPath  string `json:"dbPath"`
	Created bool   `json:"created"`
}

type GetDbPathResult struct {
	DbPath string `json:"dbPath"`
}

type OkResult struct {
	OK bool `json:"ok"`
}

type UpsertSessionParams struct {
	RequestEnvelope
	Session storage.Session `json:"session"`
}

type UpsertMessageParams struct {
	RequestEnvelope
	Message storage.Message `json:"message"`
}

type UpsertToolParams struct {
	RequestEnvelope
	Tool storage.Tool `json:"tool"`
}

type UpsertSessionErrorParams struct {
	RequestEnvelope
	SessionError storage.SessionError `json:"sessionError"`
}

type UpsertCompactionEventParams struct {
	RequestEnvelope
	CompactionEvent storage.CompactionEvent `json:"compactionEvent"`
}

type LogWriteParams struct {
	RequestEnvelope
	Entry logging.LogEntry `json:"entry"`
}

// Handler dispatches JSON-RPC requests against a Store and a Logger.
type Handler struct {
	store  *storage.Store
	logger *logging.Logger
}

// NewHandler wires the method table to its backing store and logger.
func NewHandler(store *storage.Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// errMissingParams is the standard response when a method that requires
// params receives none.
func errMissingParams() error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
}

// errInvalidParams wraps a JSON-unmarshal failure as InvalidParams.
func errInvalidParams(err error) error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "invalid params: " + err.Error()}
}

// errMissingField is the application-level 4001 error for a required
// entity field that was left blank.
func errMissingField(payloadKind, field string) error {
	data := json.RawMessage(`{"field": "` + field + `"}`)
	return &jsonrpc2.Error{
		Code:    4001,
		Message: "invalid " + payloadKind + " payload",
		Data:    &data,
	}
}

// Handle is the jsonrpc2.Handler entry point: one request in, one reply
// (result or error) out.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var result any
	var err error

	switch req.Method {
	case "health":
		result = h.health()
	case "ensureDb":
		result, err = h.ensureDb()
	case "getDbPath":
		result = h.getDbPath()
	case "upsertSession":
		result, err = h.upsertSession(req.Params)
	case "upsertMessage":
		result, err = h.upsertMessage(req.Params)
	case "upsertTool":
		result, err = h.upsertTool(req.Params)
	case "upsertSessionError":
		result, err = h.upsertSessionError(req.Params)
	case "upsertCompactionEvent":
		result, err = h.upsertCompactionEvent(req.Params)
	case "log.write":
		result, err = h.logWrite(req.Params)
	default:
		err = &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not found: " + req.Method,
		}
	}

	if err != nil {
		var rpcErr *jsonrpc2.Error
		if errors.As(err, &rpcErr) {
			conn.ReplyWithError(ctx, req.ID, rpcErr)
		} else {
			conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInternalError,
				Message: err.Error(),
			})
		}
		return
	}

	conn.Reply(ctx, req.ID, result)
}

func (h *Handler) health() *HealthResult {
	return &HealthResult{OK: true, Version: version}
}

func (h *Handler) ensureDb() (*EnsureDbResult, error) {
	dbPath := paths.GetDbPath()
	created, err := storage.EnsureDb(dbPath)
	if err != nil {
		return nil, err
	}
	return &EnsureDbResult{DbPath: dbPath, Created: created}, nil
}

func (h *Handler) getDbPath() *GetDbPathResult {
	return &GetDbPathResult{DbPath: paths.GetDbPath()}
}

func (h *Handler) upsertSession(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p UpsertSessionParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.Session.ID == "" {
		return nil, errMissingField("session", "id")
	}

	if err := h.store.UpsertSession(&p.Session); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}

func (h *Handler) upsertMessage(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p UpsertMessageParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.Message.ID == "" {
		return nil, errMissingField("message", "id")
	}
	if p.Message.SessionID == "" {
		return nil, errMissingField("message", "sessionId")
	}

	if err := h.store.UpsertMessage(&p.Message); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}

func (h *Handler) upsertTool(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p UpsertToolParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.Tool.ID == "" {
		return nil, errMissingField("tool", "id")
	}
	if p.Tool.SessionID == "" {
		return nil, errMissingField("tool", "sessionId")
	}
	if p.Tool.ToolName == "" {
		return nil, errMissingField("tool", "toolName")
	}

	if err := h.store.UpsertTool(&p.Tool); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}

func (h *Handler) upsertSessionError(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p UpsertSessionErrorParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.SessionError.ID == "" {
		return nil, errMissingField("session error", "id")
	}
	if p.SessionError.SessionID == "" {
		return nil, errMissingField("session error", "sessionId")
	}

	if err := h.store.UpsertSessionError(&p.SessionError); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}

func (h *Handler) upsertCompactionEvent(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p UpsertCompactionEventParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.CompactionEvent.ID == "" {
		return nil, errMissingField("compaction event", "id")
	}
	if p.CompactionEvent.SessionID == "" {
		return nil, errMissingField("compaction event", "sessionId")
	}

	if err := h.store.UpsertCompactionEvent(&p.CompactionEvent); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}

func (h *Handler) logWrite(params *json.RawMessage) (*OkResult, error) {
	if params == nil {
		return nil, errMissingParams()
	}

	var p LogWriteParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, errInvalidParams(err)
	}

	if p.Entry.Component == "" {
		p.Entry.Component = p.Client.Name
	}

	if h.logger == nil {
		return &OkResult{OK: true}, nil
	}

	if err := h.logger.Write(p.Entry); err != nil {
		return nil, err
	}

	return &OkResult{OK: true}, nil
}
