//go:build !windows

package rpcclient

import (
	"context"
	"net"
	"time"
)

func dialEndpoint(ctx context.Context, path string, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "unix", path)
}
