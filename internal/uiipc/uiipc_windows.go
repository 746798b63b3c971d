//go:build windows

package uiipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// SDDL: SYSTEM gets full control, Interactive Users get read/write. This
// restricts the pipe to the interactive user's own overlay process.
const pipeSecurity = "D:P(A;;GA;;;SY)(A;;GRGW;;;IU)"

func newPlatformListener(pipeName string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurity,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}

	l, err := winio.ListenPipe(pipeName, cfg)
	if err != nil {
		return nil, fmt.Errorf("listen pipe %s: %w", pipeName, err)
	}
	return l, nil
}

func newPlatformDialer(pipeName string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := winio.DialPipeContext(ctx, pipeName)
	if err != nil {
		return nil, fmt.Errorf("dial pipe %s: %w", pipeName, err)
	}
	return conn, nil
}
