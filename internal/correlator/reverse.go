package correlator

import (
	"encoding/json"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/message"
)

// handleReverseRequest answers an inbound adapter-to-client request
// (spec.md §4.7) inline, without returning control to whichever of
// SendRequest/WaitForEvent is currently waiting.
func (c *Correlator) handleReverseRequest(f frame) {
	seq := c.sess.NextSeq()
	switch f.envelope.Command {
	case "startDebugging":
		var body struct {
			Arguments message.StartDebuggingRequestArguments `json:"arguments"`
		}
		if err := json.Unmarshal(f.raw, &body); err != nil {
			c.logger.WithError(err).Warn("correlator: malformed startDebugging reverse request")
			return
		}
		c.sess.ChildConfig.Pending = body.Arguments.Configuration
		if err := c.writeMessage(message.SuccessResponse(seq, f.envelope.Seq, "startDebugging")); err != nil {
			c.logger.WithError(err).Warn("correlator: failed to ack startDebugging")
		}
		c.notify("debug/start_debugging", body.Arguments)

	case "runInTerminal":
		if err := c.writeMessage(message.SuccessResponse(seq, f.envelope.Seq, "runInTerminal")); err != nil {
			c.logger.WithError(err).Warn("correlator: failed to ack runInTerminal")
		}
		var args json.RawMessage
		if rt, ok := f.typed.(*dap.RunInTerminalRequest); ok {
			if raw, err := json.Marshal(rt.Arguments); err == nil {
				args = raw
			}
		}
		c.notify("debug/run_in_terminal", args)

	default:
		c.logger.WithField("command", f.envelope.Command).Debug("correlator: ignoring unrecognized reverse request")
	}
}
