package lifecycle

import (
	"fmt"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
)

// RunAction enumerates the actions the run operation accepts.
type RunAction string

const (
	ActionContinue        RunAction = "continue"
	ActionStepInto        RunAction = "step-into"
	ActionStepOver        RunAction = "step-over"
	ActionStepOut         RunAction = "step-out"
	ActionPause           RunAction = "pause"
	ActionReverseContinue RunAction = "reverse-continue"
	ActionStepBack        RunAction = "step-back"
)

// RunOptions carries the optional parameters run() accepts.
type RunOptions struct {
	ThreadID    int
	Granularity string
	// StepInTargetID selects among ambiguous step-in targets (step-into only).
	StepInTargetID int
}

// StopState is the translated result of a run() call: either a stop, or an
// exited-process outcome.
type StopState struct {
	Exited  bool
	ExitCode int

	Reason            string
	ThreadID          int
	HitBreakpointIDs  []int
	Description       string
	Text              string
	AllThreadsStopped bool

	FrameIDs    []int
	TopFrameID  int
	StackFrames []dap.StackFrame

	Output []session.OutputEntry
}

// Run implements spec.md §4.8.5: issue the requested action (or release a
// deferred configurationDone on the first post-child-launch continue), wait
// for the resulting stop or exit, and synchronously fetch a stack trace.
func (l *Lifecycle) Run(action RunAction, opts RunOptions) (*StopState, error) {
	if l.Session.ChildConfig.DeferredConfigurationDone {
		l.rearmBreakpoints()
		if _, err := l.Corr.SendRequest(message.ConfigurationDone(l.Session.NextSeq())); err != nil {
			return nil, err
		}
		l.Session.ChildConfig.DeferredConfigurationDone = false
		l.Session.State = session.StateRunning
	} else {
		req, err := l.buildRunRequest(action, opts)
		if err != nil {
			return nil, err
		}
		if _, err := l.Corr.SendRequest(req); err != nil {
			return nil, err
		}
	}

	ev, err := l.Corr.WaitForEvent("stopped")
	if err != nil {
		if exitEv, exitErr := l.Corr.WaitForEvent("exited"); exitErr == nil {
			exited, _ := exitEv.(*dap.ExitedEvent)
			state := &StopState{Exited: true, Output: l.Session.TakeOutput()}
			if exited != nil {
				state.ExitCode = exited.Body.ExitCode
			}
			return state, nil
		}
		return nil, err
	}

	stopped, ok := ev.(*dap.StoppedEvent)
	if !ok {
		return nil, fmt.Errorf("%w: stopped event was %T", proxyerr.ErrInvalidResponse, ev)
	}

	state := &StopState{
		Reason:            translateStopReason(stopped.Body.Reason),
		ThreadID:          stopped.Body.ThreadId,
		HitBreakpointIDs:  stopped.Body.HitBreakpointIds,
		Description:       stopped.Body.Description,
		Text:              stopped.Body.Text,
		AllThreadsStopped: stopped.Body.AllThreadsStopped,
	}

	resp, err := l.Corr.SendRequest(message.StackTrace(l.Session.NextSeq(), state.ThreadID, 0, 0))
	if err == nil {
		if st, ok := resp.(*dap.StackTraceResponse); ok {
			ids := make([]int, len(st.Body.StackFrames))
			for i, f := range st.Body.StackFrames {
				ids[i] = f.Id
			}
			l.Session.SetFrames(ids)
			state.FrameIDs = ids
			state.StackFrames = st.Body.StackFrames
			if len(ids) > 0 {
				state.TopFrameID = ids[0]
			}
		}
	} else {
		l.Logger.WithError(err).Debug("lifecycle: stackTrace after stop failed")
	}

	state.Output = l.Session.TakeOutput()
	return state, nil
}

func (l *Lifecycle) buildRunRequest(action RunAction, opts RunOptions) (dap.Message, error) {
	seq := l.Session.NextSeq()
	switch action {
	case ActionContinue:
		return message.Continue(seq, opts.ThreadID), nil
	case ActionStepInto:
		return message.StepIn(seq, opts.ThreadID, opts.StepInTargetID, opts.Granularity), nil
	case ActionStepOver:
		return message.Next(seq, opts.ThreadID, opts.Granularity), nil
	case ActionStepOut:
		return message.StepOut(seq, opts.ThreadID, opts.Granularity), nil
	case ActionPause:
		return message.Pause(seq, opts.ThreadID), nil
	case ActionReverseContinue:
		return message.ReverseContinue(seq, opts.ThreadID), nil
	case ActionStepBack:
		return message.StepBack(seq, opts.ThreadID, opts.Granularity), nil
	default:
		return nil, fmt.Errorf("lifecycle: unrecognized run action %q", action)
	}
}
