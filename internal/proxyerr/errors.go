// Package proxyerr defines the sentinel errors returned across the DAP
// proxy's public surface. Callers classify failures with errors.Is rather
// than string matching.
package proxyerr

import "errors"

var (
	// ErrNotInitialized is returned when an operation that requires a live,
	// initialized session is called before launch/attach has completed.
	ErrNotInitialized = errors.New("dap proxy: session not initialized")

	// ErrNotSupported is returned synchronously, without any wire traffic,
	// when an operation requires a capability the adapter did not advertise.
	ErrNotSupported = errors.New("dap proxy: operation not supported by adapter")

	// ErrTimeout is returned when a poll-with-timeout on the transport fd
	// elapses before a complete message arrives. The session remains usable;
	// a late response will be dropped by the stale-sequence filter.
	ErrTimeout = errors.New("dap proxy: timed out waiting for adapter")

	// ErrConnectionClosed is returned when a read on the transport returns
	// zero bytes. The caller must tear down the session.
	ErrConnectionClosed = errors.New("dap proxy: adapter connection closed")

	// ErrReadFailed wraps a low-level transport read failure.
	ErrReadFailed = errors.New("dap proxy: read from adapter failed")

	// ErrWriteFailed wraps a low-level transport write failure.
	ErrWriteFailed = errors.New("dap proxy: write to adapter failed")

	// ErrInvalidResponse is returned when a response body cannot be parsed
	// into the expected typed shape.
	ErrInvalidResponse = errors.New("dap proxy: invalid response from adapter")

	// ErrPortParseFailed is returned when a TCP adapter's port-announcement
	// line doesn't contain a parseable port.
	ErrPortParseFailed = errors.New("dap proxy: failed to parse adapter port")

	// ErrConnectionFailed is returned when dialing a TCP adapter fails.
	ErrConnectionFailed = errors.New("dap proxy: failed to connect to adapter")

	// ErrDependencyCheckFailed is returned when an external dependency check
	// (see internal/adapter) reports a failure before launch.
	ErrDependencyCheckFailed = errors.New("dap proxy: dependency check failed")

	// ErrUnsupportedLanguage is returned when no adapter configuration is
	// registered for the requested language.
	ErrUnsupportedLanguage = errors.New("dap proxy: unsupported language")

	// ErrInvalidAddress is returned when a memory reference or address
	// string cannot be parsed.
	ErrInvalidAddress = errors.New("dap proxy: invalid memory address")

	// ErrAddressUnavailable distinguishes a transient, adapter-reported
	// memory-read failure (capability present, this particular address
	// unreadable) from ErrNotSupported (capability absent). See spec open
	// question 1 / DESIGN.md.
	ErrAddressUnavailable = errors.New("dap proxy: address unavailable")

	// ErrInstallFailed wraps a failure from the adapter-install collaborator.
	ErrInstallFailed = errors.New("dap proxy: adapter install failed")
)
