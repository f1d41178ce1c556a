package correlator

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-dap"
)

type frameKind int

const (
	frameResponse frameKind = iota
	frameEvent
	frameRequest
	frameUnknown
)

// envelope is the minimal generic shape every DAP message carries, parsed
// before any attempt at a fully typed decode. It lets the correlator
// classify a message (response vs. event vs. reverse request) and extract
// request_seq even for commands go-dap doesn't know how to fully type
// (notably the startDebugging reverse request, §4.7).
type envelope struct {
	Seq        int    `json:"seq"`
	Type       string `json:"type"`
	Command    string `json:"command,omitempty"`
	Event      string `json:"event,omitempty"`
	RequestSeq int    `json:"request_seq,omitempty"`
}

// frame is one decoded inbound DAP message, classified and, where go-dap
// recognizes the command/event, fully typed.
type frame struct {
	kind     frameKind
	envelope envelope
	raw      json.RawMessage
	// typed is nil when go-dap doesn't recognize this command/event (e.g.
	// the startDebugging reverse request, which is not a go-dap type).
	typed dap.Message
}

func decodeFrame(body []byte) (frame, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return frame{}, fmt.Errorf("correlator: decode envelope: %w", err)
	}

	f := frame{envelope: env, raw: json.RawMessage(body)}
	switch env.Type {
	case "response":
		f.kind = frameResponse
	case "event":
		f.kind = frameEvent
	case "request":
		f.kind = frameRequest
	default:
		f.kind = frameUnknown
	}

	if typed, err := dap.DecodeProtocolMessage(body); err == nil {
		f.typed = typed
	}
	return f, nil
}
