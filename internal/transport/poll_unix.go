//go:build !windows

package transport

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dev-console/dap-proxy/internal/proxyerr"
)

// pollReadable waits for fd to become readable or for timeout to elapse,
// retrying on EINTR.
func pollReadable(fd uintptr, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(remaining.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("transport: poll: %w", err)
		}
		if n == 0 {
			return proxyerr.ErrTimeout
		}
		return nil
	}
}
