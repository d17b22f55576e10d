package rpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/clankers-dev/clankers/internal/logging"
	"github.com/clankers-dev/clankers/internal/storage"
	"github.com/sourcegraph/jsonrpc2"
)

// newTestConn wires a Handler to one end of an in-memory pipe and returns
// a jsonrpc2 client connection bound to the other end.
func newTestConn(t *testing.T) (*jsonrpc2.Conn, *storage.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "clankers.db")
	if _, err := storage.EnsureDb(dbPath); err != nil {
		t.Fatalf("EnsureDb: %v", err)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger, err := logging.New("debug", t.TempDir())
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	handler := NewHandler(store, logger)

	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close() })
	t.Cleanup(func() { clientSide.Close() })

	jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}), jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		handler.Handle(ctx, conn, req)
		return nil, nil
	}))

	clientConn := jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), nil)
	t.Cleanup(func() { clientConn.Close() })

	return clientConn, store
}

func envelope() RequestEnvelope {
	return RequestEnvelope{
		SchemaVersion: "1",
		Client:        ClientInfo{Name: "test-adapter", Version: "0.0.1"},
	}
}

func TestHealth(t *testing.T) {
	conn, _ := newTestConn(t)

	var result HealthResult
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := conn.Call(ctx, "health", map[string]any{}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !result.OK || result.Version == "" {
		t.Errorf("unexpected health result: %+v", result)
	}
}

func TestUpsertSessionMissingID(t *testing.T) {
	conn, _ := newTestConn(t)

	params := UpsertSessionParams{RequestEnvelope: envelope()}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result OkResult
	err := conn.Call(ctx, "upsertSession", params, &result)
	if err == nil {
		t.Fatal("expected an error for a session with no id")
	}
}

func TestUpsertSessionThenMessageRoundTrip(t *testing.T) {
	conn, store := newTestConn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	title := "My Session"
	sessionParams := UpsertSessionParams{
		RequestEnvelope: envelope(),
		Session:         storage.Session{ID: "s1", Title: &title},
	}
	var okResult OkResult
	if err := conn.Call(ctx, "upsertSession", sessionParams, &okResult); err != nil {
		t.Fatalf("upsertSession Call: %v", err)
	}
	if !okResult.OK {
		t.Fatal("expected ok:true from upsertSession")
	}

	messageParams := UpsertMessageParams{
		RequestEnvelope: envelope(),
		Message:         storage.Message{ID: "m1", SessionID: "s1", Role: "user", TextContent: "hi"},
	}
	if err := conn.Call(ctx, "upsertMessage", messageParams, &okResult); err != nil {
		t.Fatalf("upsertMessage Call: %v", err)
	}

	_, messages, err := store.GetSessionByID("s1")
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Errorf("expected 1 message 'm1', got %v", messages)
	}
}

func TestMethodNotFound(t *testing.T) {
	conn, _ := newTestConn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result OkResult
	err := conn.Call(ctx, "bogusMethod", map[string]any{}, &result)
	if err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestLogWriteWithoutComponentReturnsOK(t *testing.T) {
	conn, _ := newTestConn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	params := LogWriteParams{
		RequestEnvelope: envelope(),
		Entry:           logging.LogEntry{Level: logging.Info, Message: "hello from adapter"},
	}
	var result OkResult
	if err := conn.Call(ctx, "log.write", params, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !result.OK {
		t.Error("expected ok:true from log.write")
	}
}
