//go:build windows

package rpcclient

import (
	"context"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

func dialEndpoint(ctx context.Context, path string, timeout time.Duration) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return winio.DialPipeContext(dialCtx, path)
}
