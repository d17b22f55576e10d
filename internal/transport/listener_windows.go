//go:build windows

package transport

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

// Listen binds a named pipe at path, restricted to the pipe's owner by an
// explicit security descriptor that grants access to the owner only.
func Listen(path string) (net.Listener, error) {
	listener, err := winio.ListenPipe(path, &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;OW)",
		MessageMode:        false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on pipe %s: %w", path, err)
	}
	return listener, nil
}
