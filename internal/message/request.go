// Package message builds every outgoing DAP request as a structured
// go-dap value. Inbound frame bodies are decoded in internal/correlator.
package message

import "github.com/google/go-dap"

// newRequest stamps seq and command onto a fresh request envelope. Every
// builder in this package embeds the result as its Request field.
func newRequest(seq int, command string) dap.Request {
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  seq,
			Type: "request",
		},
		Command: command,
	}
}

// SuccessResponse builds a bare success response for a reverse request,
// preserving requestSeq and stamping a freshly allocated seq.
func SuccessResponse(seq, requestSeq int, command string) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  seq,
			Type: "response",
		},
		RequestSeq: requestSeq,
		Success:    true,
		Command:    command,
	}
}
