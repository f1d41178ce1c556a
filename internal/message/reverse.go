package message

import "encoding/json"

// StartDebuggingRequestArguments mirrors the DAP startDebugging reverse
// request's arguments object. go-dap does not vendor a typed
// startDebuggingRequest (it is an adapter-to-client reverse request, not one
// of the client-to-adapter requests the library is built around), so the
// correlator decodes it from the generic reverse-request envelope's raw
// body using this package-local type.
type StartDebuggingRequestArguments struct {
	// Configuration is the launch/attach configuration the child session
	// should be started with, passed through verbatim.
	Configuration json.RawMessage `json:"configuration"`
	// Request is either "launch" or "attach".
	Request string `json:"request"`
}
