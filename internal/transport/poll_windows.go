//go:build windows

package transport

import "time"

// pollReadable has no portable non-consuming readiness check for pipes and
// sockets on Windows. It reports immediate readiness; the subsequent Read
// call blocks without a deadline on this platform.
func pollReadable(fd uintptr, timeout time.Duration) error {
	return nil
}
