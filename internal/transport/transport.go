// Package transport binds the RPC dispatcher to the platform-appropriate
// local endpoint: a Unix domain socket on POSIX, a named pipe on Windows.
package transport

import (
	"context"
	"net"
	"sync"

	"github.com/clankers-dev/clankers/internal/rpc"
	"github.com/sourcegraph/jsonrpc2"
)

// Serve accepts connections from listener until ctx is canceled, handing
// each one to a fresh jsonrpc2 connection wrapping handler. It blocks
// until the accept loop exits and in-flight handlers have drained.
func Serve(ctx context.Context, listener net.Listener, handler *rpc.Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
				continue
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler *rpc.Handler) {
	defer conn.Close()

	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
	rpcConn := jsonrpc2.NewConn(
		ctx,
		stream,
		jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
			handler.Handle(ctx, conn, req)
			return nil, nil
		}),
	)

	<-rpcConn.DisconnectNotify()
}
