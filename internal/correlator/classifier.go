package correlator

import (
	"reflect"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/session"
)

// classifyTyped implements the event dispatch table in spec.md §4.6: each
// recognized event performs a side effect against session state and
// enqueues an outward notification. "loadedSource" has a case that does
// nothing (loaded sources are queried on demand instead); any other event
// type falls to the default case and is ignored.
func (c *Correlator) classifyTyped(ev dap.Message) {
	switch e := ev.(type) {
	case *dap.StoppedEvent:
		c.sess.ThreadID = e.Body.ThreadId
		c.notify("debug/stopped", e.Body)

	case *dap.OutputEvent:
		if e.Body.Category == "telemetry" {
			return
		}
		c.sess.AppendOutput(e.Body.Category, e.Body.Output)
		c.notify("debug/output", e.Body)

	case *dap.BreakpointEvent:
		if e.Body.Breakpoint.Id != 0 {
			c.sess.Registry.ApplyVerification(e.Body.Breakpoint.Id, e.Body.Breakpoint.Verified, e.Body.Breakpoint.Line, e.Body.Breakpoint.Message)
		}
		c.notify("debug/breakpoint_verified", e.Body)

	case *dap.ModuleEvent:
		if e.Body.Reason == "new" || e.Body.Reason == "changed" {
			c.sess.LoadedModules = append(c.sess.LoadedModules, e.Body.Module.Name)
		}
		c.notify("debug/module", e.Body)

	case *dap.ContinuedEvent:
		c.notify("debug/continued", e.Body)

	case *dap.ThreadEvent:
		c.notify("debug/thread", e.Body)

	case *dap.ProcessEvent:
		c.notify("debug/process", e.Body)

	case *dap.CapabilitiesEvent:
		mergeCapabilities(&c.sess.Capabilities, e.Body.Capabilities)
		c.notify("debug/capabilities_changed", e.Body)

	case *dap.MemoryEvent:
		c.sess.MemoryEvents = append(c.sess.MemoryEvents, session.MemoryChangedEvent{
			MemoryReference: e.Body.MemoryReference,
			Offset:          e.Body.Offset,
			Count:           e.Body.Count,
		})
		c.notify("debug/memory_changed", e.Body)

	case *dap.ProgressStartEvent:
		c.sess.Progress[e.Body.ProgressId] = &session.ProgressState{
			Title:      e.Body.Title,
			Message:    e.Body.Message,
			Percentage: optionalPercentage(e.Body.Percentage),
		}
		c.notify("debug/progress", e.Body)

	case *dap.ProgressUpdateEvent:
		if p, ok := c.sess.Progress[e.Body.ProgressId]; ok {
			if e.Body.Message != "" {
				p.Message = e.Body.Message
			}
			if pct := optionalPercentage(e.Body.Percentage); pct != nil {
				p.Percentage = pct
			}
		}
		c.notify("debug/progress", e.Body)

	case *dap.ProgressEndEvent:
		delete(c.sess.Progress, e.Body.ProgressId)
		c.notify("debug/progress", e.Body)

	case *dap.ExitedEvent:
		c.notify("debug/exited", e.Body)

	case *dap.TerminatedEvent:
		c.sess.Initialized = false
		c.sess.State = session.StateTerminated
		c.notify("debug/terminated", e.Body)

	case *dap.InvalidatedEvent:
		var frameID *int
		if e.Body.StackFrameId != 0 {
			id := e.Body.StackFrameId
			frameID = &id
		}
		c.sess.InvalidatedEvents = append(c.sess.InvalidatedEvents, session.InvalidatedEvent{
			Areas:        e.Body.Areas,
			StackFrameID: frameID,
		})
		c.notify("debug/invalidated", e.Body)

	case *dap.LoadedSourceEvent:
		// Suppressed: loaded sources are queried on demand (loadedSources
		// request) rather than tracked incrementally.

	default:
		// Any other event type (including ones go-dap can decode but this
		// table doesn't name) is not classified. Only WaitForEvent puts
		// events on the buffered-events queue (those not matching the name
		// it waits for); such events arriving during SendRequest or
		// PumpUntil reach this case and are dropped.
	}
}

// optionalPercentage returns nil for an absent/zero percentage and a
// pointer to pct otherwise. DAP's Percentage field is a plain float64, so
// zero is indistinguishable from "0% reported" vs "not reported"; this
// proxy treats zero as "not reported" since progress percentages are
// conventionally only sent once work has begun.
func optionalPercentage(pct float64) *float64 {
	if pct == 0 {
		return nil
	}
	return &pct
}

// mergeCapabilities applies a field-level override of a capabilities event
// body onto the session's capability record: boolean fields are OR'd in
// (an incoming true sets the field; an incoming false never clears one
// already true, since the DAP spec only sends capabilities events to
// announce newly gained support) and non-empty slice fields (e.g.
// ExceptionBreakpointFilters) replace the existing value wholesale.
//
// dap.Capabilities is a flat struct of ~30 such fields; reflecting over it
// avoids hand-maintaining a 30-case switch that silently drifts out of sync
// with go-dap's type as new capabilities are added.
func mergeCapabilities(dst *dap.Capabilities, patch dap.Capabilities) {
	dv := reflect.ValueOf(dst).Elem()
	pv := reflect.ValueOf(patch)
	t := dv.Type()
	for i := 0; i < t.NumField(); i++ {
		df, pf := dv.Field(i), pv.Field(i)
		if !df.CanSet() {
			continue
		}
		switch df.Kind() {
		case reflect.Bool:
			if pf.Bool() {
				df.SetBool(true)
			}
		case reflect.Slice:
			if !pf.IsNil() && pf.Len() > 0 {
				df.Set(pf)
			}
		}
	}
}
