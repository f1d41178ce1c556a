package lifecycle

import (
	"path/filepath"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/breakpoint"
	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/session"
)

// inDeferredWindow reports whether breakpoint sends should be withheld in
// favor of a single consolidated rearm right before configurationDone
// (spec.md §4.8.7: "during the deferred-config window only update the
// registry").
func (l *Lifecycle) inDeferredWindow() bool {
	return !l.Session.Initialized || l.Session.State == session.StateChildPendingConfig ||
		l.Session.ChildConfig.DeferredConfigurationDone
}

// SetFileBreakpoint implements "Set file breakpoint" (spec.md §4.8.7): the
// path is resolved through symlinks so it matches what the adapter sees
// internally, then appended to the per-file sequence and, outside the
// deferred-config window, immediately replayed to the adapter in full.
func (l *Lifecycle) SetFileBreakpoint(file string, line int, condition, hitCondition, logMessage string) (*breakpoint.FileBreakpoint, error) {
	resolved, err := filepath.EvalSymlinks(file)
	if err != nil {
		resolved = file
	}
	bp := l.Session.Registry.AddFile(resolved, line, condition, hitCondition, logMessage)

	if l.inDeferredWindow() {
		return bp, nil
	}
	if err := l.sendSetBreakpoints(resolved); err != nil {
		return bp, err
	}
	return bp, nil
}

// RemoveFileBreakpoint implements "Remove file breakpoint by id".
func (l *Lifecycle) RemoveFileBreakpoint(id int) error {
	file, ok := l.Session.Registry.RemoveFile(id)
	if !ok {
		return nil
	}
	if l.inDeferredWindow() {
		return nil
	}
	return l.sendSetBreakpoints(file)
}

// ListBreakpoints materializes every tracked file and function breakpoint.
func (l *Lifecycle) ListBreakpoints() (files map[string][]breakpoint.FileBreakpoint, functions []breakpoint.FunctionBreakpoint) {
	return l.Session.Registry.List()
}

// SetFunctionBreakpoint adds a function breakpoint, gated on the adapter's
// supportsFunctionBreakpoints capability.
func (l *Lifecycle) SetFunctionBreakpoint(name, condition string) (*breakpoint.FunctionBreakpoint, error) {
	if !l.Session.Capabilities.SupportsFunctionBreakpoints {
		return nil, notSupported()
	}
	bp := l.Session.Registry.AddFunction(name, condition)
	if l.inDeferredWindow() {
		return bp, nil
	}
	if err := l.sendSetFunctionBreakpoints(); err != nil {
		return bp, err
	}
	return bp, nil
}

// SetExceptionBreakpoints replaces the active exception filter set, gated on
// the adapter advertising at least one exception breakpoint filter.
func (l *Lifecycle) SetExceptionBreakpoints(filters []string) error {
	if len(l.AvailableExceptionFilters) == 0 {
		return notSupported()
	}
	l.Session.Registry.SetExceptionFilters(filters)
	if l.inDeferredWindow() {
		return nil
	}
	_, err := l.Corr.SendRequest(message.SetExceptionBreakpoints(l.Session.NextSeq(), filters))
	return err
}

// SetInstructionBreakpoints sends the given instruction breakpoints,
// gated on supportsInstructionBreakpoints. Unlike file breakpoints these
// are not tracked in the registry for replay (the DAP spec ties them to a
// disassembly view, which is re-requested fresh after any restart).
func (l *Lifecycle) SetInstructionBreakpoints(entries []dap.InstructionBreakpoint) (*dap.SetInstructionBreakpointsResponse, error) {
	if !l.Session.Capabilities.SupportsInstructionBreakpoints {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.SetInstructionBreakpoints(l.Session.NextSeq(), entries))
	if err != nil {
		return nil, err
	}
	typed, _ := resp.(*dap.SetInstructionBreakpointsResponse)
	return typed, nil
}

// SetDataBreakpoint sends a single-entry setDataBreakpoints request, gated
// on supportsDataBreakpoints.
func (l *Lifecycle) SetDataBreakpoint(dataID, accessType string) (*dap.SetDataBreakpointsResponse, error) {
	if !l.Session.Capabilities.SupportsDataBreakpoints {
		return nil, notSupported()
	}
	entry := dap.DataBreakpoint{DataId: dataID, AccessType: dap.DataBreakpointAccessType(accessType)}
	resp, err := l.Corr.SendRequest(message.SetDataBreakpoints(l.Session.NextSeq(), []dap.DataBreakpoint{entry}))
	if err != nil {
		return nil, err
	}
	typed, _ := resp.(*dap.SetDataBreakpointsResponse)
	return typed, nil
}

// DataBreakpointInfo gates and forwards the dataBreakpointInfo request.
func (l *Lifecycle) DataBreakpointInfo(name string, variablesReference int) (*dap.DataBreakpointInfoResponse, error) {
	if !l.Session.Capabilities.SupportsDataBreakpoints {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.DataBreakpointInfo(l.Session.NextSeq(), name, variablesReference))
	if err != nil {
		return nil, err
	}
	typed, _ := resp.(*dap.DataBreakpointInfoResponse)
	return typed, nil
}

func (l *Lifecycle) sendSetBreakpoints(file string) error {
	entries := l.Session.Registry.FileBreakpoints(file)
	sourceBreakpoints := make([]dap.SourceBreakpoint, len(entries))
	for i, bp := range entries {
		sourceBreakpoints[i] = dap.SourceBreakpoint{
			Line:         bp.Line,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			LogMessage:   bp.LogMessage,
		}
	}
	resp, err := l.Corr.SendRequest(message.SetBreakpoints(l.Session.NextSeq(), file, sourceBreakpoints))
	if err != nil {
		return err
	}
	l.applyBreakpointVerification(entries, resp)
	return nil
}

func (l *Lifecycle) applyBreakpointVerification(entries []*breakpoint.FileBreakpoint, resp dap.Message) {
	sbr, ok := resp.(*dap.SetBreakpointsResponse)
	if !ok {
		return
	}
	for i, rb := range sbr.Body.Breakpoints {
		if i >= len(entries) {
			break
		}
		line := entries[i].Line
		if rb.Line != 0 {
			line = rb.Line
		}
		l.Session.Registry.ApplyVerification(entries[i].ID, rb.Verified, line, rb.Message)
	}
}

func (l *Lifecycle) sendSetFunctionBreakpoints() error {
	functions := l.Session.Registry.FunctionBreakpoints()
	dapEntries := make([]dap.FunctionBreakpoint, len(functions))
	for i, fb := range functions {
		dapEntries[i] = dap.FunctionBreakpoint{Name: fb.Name, Condition: fb.Condition}
	}
	_, err := l.Corr.SendRequest(message.SetFunctionBreakpoints(l.Session.NextSeq(), dapEntries))
	return err
}
