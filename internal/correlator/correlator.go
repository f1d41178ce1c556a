// Package correlator implements the request/response correlation engine
// (spec.md §4.5), the event classifier and notification queue (§4.6), and
// the reverse-request handler (§4.7). These three are one component because
// they share a single read loop: every inbound message, whether consumed by
// sendRequest's wait or waitForEvent's wait, passes through the same
// frame decoder and the same classify-or-answer-inline dispatch.
package correlator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// DefaultRequestTimeout matches spec.md §4.5/§5's documented default.
const DefaultRequestTimeout = 30 * time.Second

// Correlator drives a single Session's read loop: it is the only thing
// that calls Session.Transport.Read, so every byte the adapter sends
// passes through exactly one classification point.
type Correlator struct {
	sess    *session.Session
	logger  logrus.FieldLogger
	Timeout time.Duration
}

// New returns a Correlator bound to sess, using timeout for every read-side
// wait (poll-with-timeout and waitForEvent/sendRequest loops alike).
func New(sess *session.Session, timeout time.Duration) *Correlator {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Correlator{sess: sess, logger: sess.Logger, Timeout: timeout}
}

func (c *Correlator) writeMessage(msg dap.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("correlator: marshal outbound message: %w", err)
	}
	if _, err := c.sess.Transport.Write(transport.Encode(body)); err != nil {
		return fmt.Errorf("%w: %v", proxyerr.ErrWriteFailed, err)
	}
	return nil
}

// nextFrame decodes one complete message from the session's read buffer,
// polling and reading more bytes as needed. The Timeout deadline is enforced
// through the transport's readiness poll; where that poll is a no-op
// (Windows, or a connection without a pollable descriptor) the Read itself
// can block past Timeout.
func (c *Correlator) nextFrame() (frame, error) {
	deadline := time.Now().Add(c.Timeout)
	readChunk := make([]byte, 64*1024)
	for {
		status, body, consumed := transport.Decode(c.sess.ReadBuf)
		if status == transport.OK {
			c.sess.ReadBuf = c.sess.ReadBuf[consumed:]
			return decodeFrame(body)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return frame{}, proxyerr.ErrTimeout
		}
		if err := c.sess.Transport.PollReadable(remaining); err != nil {
			return frame{}, err
		}

		n, err := c.sess.Transport.Read(readChunk)
		if err != nil {
			return frame{}, fmt.Errorf("%w: %v", proxyerr.ErrReadFailed, err)
		}
		if n == 0 {
			return frame{}, proxyerr.ErrConnectionClosed
		}
		c.sess.ReadBuf = append(c.sess.ReadBuf, readChunk[:n]...)
	}
}

// SendRequest writes req, stamped with its own Seq, then reads inbound
// messages until the response whose request_seq matches arrives. Responses
// with a non-matching request_seq are stale (a prior, timed-out or
// abandoned request) and are dropped; events are classified and dispatched
// inline; reverse requests are answered inline. All three happen before
// the matching response is ever returned, per spec.md §5's ordering
// guarantee.
func (c *Correlator) SendRequest(req dap.Message) (dap.Message, error) {
	rm, ok := req.(dap.RequestMessage)
	if !ok {
		return nil, fmt.Errorf("correlator: %T does not implement dap.RequestMessage", req)
	}
	seq := rm.GetRequest().Seq

	if err := c.writeMessage(req); err != nil {
		return nil, err
	}

	for {
		f, err := c.nextFrame()
		if err != nil {
			return nil, err
		}
		switch f.kind {
		case frameResponse:
			if f.envelope.RequestSeq != seq {
				c.logger.WithFields(logrus.Fields{
					"want": seq, "got": f.envelope.RequestSeq, "command": f.envelope.Command,
				}).Debug("correlator: dropping stale response")
				continue
			}
			if f.typed == nil {
				return nil, fmt.Errorf("%w: command %q", proxyerr.ErrInvalidResponse, f.envelope.Command)
			}
			return f.typed, nil
		case frameEvent:
			c.dispatchEvent(f)
		case frameRequest:
			c.handleReverseRequest(f)
		default:
			c.logger.WithField("body", string(f.raw)).Debug("correlator: unrecognized frame")
		}
	}
}

// SendRaw writes req and returns without waiting for a response. Used for
// launch/attach (which per DAP may not respond until after
// configurationDone) and for pause when a concurrent run already owns the
// read half (spec.md §4.5).
func (c *Correlator) SendRaw(req dap.Message) error {
	return c.writeMessage(req)
}

// WaitForEvent drains the buffered-events queue first; on a miss it reads
// inbound messages until the named event arrives, buffering every other
// event it sees along the way (so a later WaitForEvent call for a
// different name can still find it) and answering reverse requests inline.
// A poll timeout surfaces as proxyerr.ErrTimeout without corrupting the
// read buffer or the buffered-events queue.
func (c *Correlator) WaitForEvent(name string) (dap.Message, error) {
	if ev, ok := c.sess.TakeBufferedEvent(name); ok {
		c.classifyTyped(ev)
		return ev, nil
	}

	for {
		f, err := c.nextFrame()
		if err != nil {
			return nil, err
		}
		switch f.kind {
		case frameEvent:
			if f.typed == nil {
				c.logger.WithField("event", f.envelope.Event).Debug("correlator: unrecognized event while waiting")
				continue
			}
			if f.envelope.Event == name {
				c.classifyTyped(f.typed)
				return f.typed, nil
			}
			c.sess.BufferEvent(f.typed)
		case frameRequest:
			c.handleReverseRequest(f)
		case frameResponse:
			c.logger.WithField("command", f.envelope.Command).Debug("correlator: dropping unexpected response while waiting for event")
		default:
		}
	}
}

// PumpUntil reads and dispatches frames (events classified inline, reverse
// requests answered inline) until done reports true or timeout elapses.
// Used by the lifecycle driver's waitForChildConfig (spec.md §4.8.3), which
// needs exactly the correlator's read-loop dispatch but driven by a
// caller-supplied predicate rather than a response seq or event name.
// When timeout elapses first it returns proxyerr.ErrTimeout; callers decide
// whether that is a failure (waitForChildConfig treats it as the ordinary
// no-child-session outcome).
func (c *Correlator) PumpUntil(done func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if done() {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return proxyerr.ErrTimeout
		}
		saved := c.Timeout
		c.Timeout = remaining
		f, err := c.nextFrame()
		c.Timeout = saved
		if err != nil {
			return err
		}
		switch f.kind {
		case frameEvent:
			c.dispatchEvent(f)
		case frameRequest:
			c.handleReverseRequest(f)
		default:
		}
	}
}

func (c *Correlator) dispatchEvent(f frame) {
	if f.typed == nil {
		c.logger.WithField("event", f.envelope.Event).Debug("correlator: unrecognized event")
		return
	}
	c.classifyTyped(f.typed)
}

func (c *Correlator) notify(method string, payload any) {
	if err := c.sess.EnqueueNotification(method, payload); err != nil {
		c.logger.WithError(err).WithField("method", method).Warn("correlator: failed to enqueue notification")
	}
}
