// Package rpcclient is the adapter-facing RPC client: one dial per
// call, typed wrappers for every daemon method, and a fire-and-forget
// Notify flavor for the client-side logger.
package rpcclient

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/clankers-dev/clankers/internal/logging"
	"github.com/clankers-dev/clankers/internal/rpc"
	"github.com/clankers-dev/clankers/internal/storage"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"
)

const schemaVersion = "1"

// BackendUnreachable is returned by Call (and swallowed by Notify) each
// time the daemon's socket or pipe cannot be dialed. Adapters are expected
// to report it a single time and then suppress further noise for the
// process lifetime.
var BackendUnreachable = errors.New("clankers daemon is unreachable")

// Client dials a fresh connection per call; it holds no persistent
// socket and no mutable state beyond its own identity.
type Client struct {
	SocketPath    string
	ClientName    string
	ClientVersion string
	DialTimeout   time.Duration
}

// New returns a Client identified to the daemon as clientName/clientVersion.
func New(socketPath, clientName, clientVersion string) *Client {
	return &Client{
		SocketPath:    socketPath,
		ClientName:    clientName,
		ClientVersion: clientVersion,
		DialTimeout:   2 * time.Second,
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	conn, err := dialEndpoint(ctx, c.SocketPath, c.DialTimeout)
	if err != nil {
		return nil, BackendUnreachable
	}
	return conn, nil
}

func (c *Client) envelope() rpc.RequestEnvelope {
	return rpc.RequestEnvelope{
		SchemaVersion: schemaVersion,
		Client:        rpc.ClientInfo{Name: c.ClientName, Version: c.ClientVersion},
	}
}

// Call dials, issues a single request/response round-trip, and closes.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rpcConn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{}), nil)
	defer rpcConn.Close()

	return rpcConn.Call(ctx, method, params, result)
}

// Notify dials, writes the request, and returns immediately without
// waiting on or reading a response. Any dial/write error is swallowed —
// this flavor never surfaces an error to the caller, per the logger's
// fire-and-forget contract.
func (c *Client) Notify(ctx context.Context, method string, params any) {
	conn, err := c.dial(ctx)
	if err != nil {
		return
	}
	defer conn.Close()

	rpcConn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{}), nil)
	defer rpcConn.Close()

	rpcConn.Notify(ctx, method, params)
}

// Health calls the daemon's health method.
func (c *Client) Health(ctx context.Context) (*rpc.HealthResult, error) {
	var result rpc.HealthResult
	if err := c.Call(ctx, "health", c.envelope(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EnsureDb calls the daemon's ensureDb method.
func (c *Client) EnsureDb(ctx context.Context) (*rpc.EnsureDbResult, error) {
	var result rpc.EnsureDbResult
	if err := c.Call(ctx, "ensureDb", c.envelope(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDbPath calls the daemon's getDbPath method.
func (c *Client) GetDbPath(ctx context.Context) (*rpc.GetDbPathResult, error) {
	var result rpc.GetDbPathResult
	if err := c.Call(ctx, "getDbPath", c.envelope(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpsertSession calls the daemon's upsertSession method.
func (c *Client) UpsertSession(ctx context.Context, session storage.Session) error {
	params := rpc.UpsertSessionParams{RequestEnvelope: c.envelope(), Session: session}
	var result rpc.OkResult
	return c.Call(ctx, "upsertSession", params, &result)
}

// UpsertMessage calls the daemon's upsertMessage method.
func (c *Client) UpsertMessage(ctx context.Context, message storage.Message) error {
	params := rpc.UpsertMessageParams{RequestEnvelope: c.envelope(), Message: message}
	var result rpc.OkResult
	return c.Call(ctx, "upsertMessage", params, &result)
}

// UpsertTool calls the daemon's upsertTool method.
func (c *Client) UpsertTool(ctx context.Context, tool storage.Tool) error {
	params := rpc.UpsertToolParams{RequestEnvelope: c.envelope(), Tool: tool}
	var result rpc.OkResult
	return c.Call(ctx, "upsertTool", params, &result)
}

// UpsertSessionError calls the daemon's upsertSessionError method.
func (c *Client) UpsertSessionError(ctx context.Context, sessionError storage.SessionError) error {
	params := rpc.UpsertSessionErrorParams{RequestEnvelope: c.envelope(), SessionError: sessionError}
	var result rpc.OkResult
	return c.Call(ctx, "upsertSessionError", params, &result)
}

// UpsertCompactionEvent calls the daemon's upsertCompactionEvent method.
func (c *Client) UpsertCompactionEvent(ctx context.Context, event storage.CompactionEvent) error {
	params := rpc.UpsertCompactionEventParams{RequestEnvelope: c.envelope(), CompactionEvent: event}
	var result rpc.OkResult
	return c.Call(ctx, "upsertCompactionEvent", params, &result)
}

// LogWriteNotify fires a log.write notification and ignores the result.
// A correlation id is stamped onto the entry when the caller left
// RequestID blank, so a burst of log lines from one adapter operation can
// be grepped together.
func (c *Client) LogWriteNotify(ctx context.Context, entry logging.LogEntry) {
	if entry.RequestID == "" {
		entry.RequestID = uuid.NewString()
	}
	params := rpc.LogWriteParams{RequestEnvelope: c.envelope(), Entry: entry}
	c.Notify(ctx, "log.write", params)
}
