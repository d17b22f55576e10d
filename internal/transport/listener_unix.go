//go:build !windows

package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen removes any stale socket file at path and binds a Unix domain
// socket, chmod'd 0600 so other local users cannot connect.
func Listen(path string) (net.Listener, error) {
	os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	if err := unix.Chmod(path, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	return listener, nil
}
