// Package driver exposes the public, capability-gated DAP operation surface
// of spec.md §6: one Driver per debug session, wrapping a lifecycle.Lifecycle
// and the session/correlator pair it drives. Callers outside this module
// (cmd/dap-proxy, or any future host) talk to a Driver and never touch
// internal/lifecycle, internal/correlator, or internal/transport directly.
package driver

import (
	"fmt"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/adapter"
	"github.com/dev-console/dap-proxy/internal/breakpoint"
	"github.com/dev-console/dap-proxy/internal/correlator"
	"github.com/dev-console/dap-proxy/internal/lifecycle"
	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// Driver binds one adapter configuration to one live session for its entire
// lifetime: construct with New, call Launch or Attach once, then drive it
// with the remaining methods until Deinit.
type Driver struct {
	cfg    adapter.Config
	logger logrus.FieldLogger

	sess *session.Session
	corr *correlator.Correlator
	life *lifecycle.Lifecycle
}

// New builds a Driver in StateUnlaunched. installer may be nil when cfg has
// no Install descriptor.
func New(cfg adapter.Config, logger logrus.FieldLogger, installer adapter.Installer) *Driver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sess := session.New(logger)
	corr := correlator.New(sess, correlator.DefaultRequestTimeout)
	return &Driver{
		cfg:    cfg,
		logger: logger,
		sess:   sess,
		corr:   corr,
		life:   lifecycle.New(cfg, sess, corr, installer),
	}
}

// Launch spawns the adapter process and runs it through the full launch
// sequence (spec.md §4.8.1–§4.8.4).
func (d *Driver) Launch(p lifecycle.LaunchParams) error {
	return d.life.Launch(p)
}

// Attach connects to an already-running process by pid. The adapter
// transport is assumed already reachable (stdio adapters can't be attached
// to; this only makes sense for TCP-transport adapters already listening).
func (d *Driver) Attach(pid int, checks []adapter.DependencyCheck) error {
	if err := adapter.RunDependencyChecks(checks); err != nil {
		return fmt.Errorf("%w: %v", proxyerr.ErrDependencyCheckFailed, err)
	}
	seq := d.sess.NextSeq()
	req, err := message.Attach(seq, pid)
	if err != nil {
		return err
	}
	d.sess.State = session.StateInitializing
	if err := d.corr.SendRaw(req); err != nil {
		return err
	}
	return nil
}

// Run issues one of the seven run actions and resolves the resulting
// stopped/exited event (spec.md §4.8.5).
func (d *Driver) Run(action lifecycle.RunAction, opts lifecycle.RunOptions) (*lifecycle.StopState, error) {
	return d.life.Run(action, opts)
}

// Restart implements spec.md §4.8.6 (native if available, emulated
// otherwise).
func (d *Driver) Restart() error {
	return d.life.Restart()
}

// Inspect implements the three-way variables/scope/evaluate operation
// (spec.md §4.8.8).
func (d *Driver) Inspect(req lifecycle.InspectRequest) (*lifecycle.InspectResult, error) {
	return d.life.Inspect(req)
}

// SetFileBreakpoint, RemoveFileBreakpoint, ListBreakpoints,
// SetFunctionBreakpoint, SetExceptionBreakpoints, SetInstructionBreakpoints,
// SetDataBreakpoint, and DataBreakpointInfo delegate straight to
// internal/lifecycle, which owns the breakpoint registry and the
// deferred-config-window gating (spec.md §4.8.7).

func (d *Driver) SetFileBreakpoint(file string, line int, condition, hitCondition, logMessage string) (*breakpoint.FileBreakpoint, error) {
	return d.life.SetFileBreakpoint(file, line, condition, hitCondition, logMessage)
}

func (d *Driver) RemoveFileBreakpoint(id int) error {
	return d.life.RemoveFileBreakpoint(id)
}

func (d *Driver) ListBreakpoints() (map[string][]breakpoint.FileBreakpoint, []breakpoint.FunctionBreakpoint) {
	return d.life.ListBreakpoints()
}

func (d *Driver) SetFunctionBreakpoint(name, condition string) (*breakpoint.FunctionBreakpoint, error) {
	return d.life.SetFunctionBreakpoint(name, condition)
}

func (d *Driver) SetExceptionBreakpoints(filters []string) error {
	return d.life.SetExceptionBreakpoints(filters)
}

func (d *Driver) SetInstructionBreakpoints(entries []dap.InstructionBreakpoint) (*dap.SetInstructionBreakpointsResponse, error) {
	return d.life.SetInstructionBreakpoints(entries)
}

func (d *Driver) SetDataBreakpoint(dataID, accessType string) (*dap.SetDataBreakpointsResponse, error) {
	return d.life.SetDataBreakpoint(dataID, accessType)
}

func (d *Driver) DataBreakpointInfo(name string, variablesReference int) (*dap.DataBreakpointInfoResponse, error) {
	return d.life.DataBreakpointInfo(name, variablesReference)
}

// The remaining single-request transforms (§4.8.10) are likewise thin
// delegations; internal/lifecycle owns the capability gates since it already
// holds Session.Capabilities.

func (d *Driver) Threads() ([]dap.Thread, error)                      { return d.life.Threads() }
func (d *Driver) Scopes(frameIndex int) ([]dap.Scope, error)          { return d.life.Scopes(frameIndex) }
func (d *Driver) StackTrace(threadID, startFrame, levels int) (*dap.StackTraceResponseBody, error) {
	return d.life.StackTrace(threadID, startFrame, levels)
}
func (d *Driver) ReadMemory(memRef string, offset, count int) (*dap.ReadMemoryResponseBody, error) {
	return d.life.ReadMemory(memRef, offset, count)
}
func (d *Driver) WriteMemory(memRef string, offset int, data []byte) (*dap.WriteMemoryResponseBody, error) {
	return d.life.WriteMemory(memRef, offset, data)
}
func (d *Driver) WriteMemoryBase64(memRef string, offset int, dataB64 string) (*dap.WriteMemoryResponseBody, error) {
	return d.life.WriteMemoryBase64(memRef, offset, dataB64)
}
func (d *Driver) Disassemble(memRef string, offset, instructionOffset, instructionCount int) ([]dap.DisassembledInstruction, error) {
	return d.life.Disassemble(memRef, offset, instructionOffset, instructionCount)
}
func (d *Driver) Source(sourceReference int, path string) (string, error) {
	return d.life.Source(sourceReference, path)
}
func (d *Driver) LoadedSources() ([]dap.Source, error) { return d.life.LoadedSources() }
func (d *Driver) Modules(startModule, moduleCount int) ([]dap.Module, error) {
	return d.life.Modules(startModule, moduleCount)
}
func (d *Driver) Completions(text string, column, frameIndex, line int) ([]dap.CompletionItem, error) {
	return d.life.Completions(text, column, frameIndex, line)
}
func (d *Driver) StepInTargets(frameIndex int) ([]dap.StepInTarget, error) {
	return d.life.StepInTargets(frameIndex)
}
func (d *Driver) BreakpointLocations(path string, line, endLine int) ([]dap.BreakpointLocation, error) {
	return d.life.BreakpointLocations(path, line, endLine)
}
func (d *Driver) GotoTargets(path string, line int) ([]dap.GotoTarget, error) {
	return d.life.GotoTargets(path, line)
}
func (d *Driver) Goto(threadID, targetID int) error { return d.life.Goto(threadID, targetID) }
func (d *Driver) RestartFrame(frameIndex int) error { return d.life.RestartFrame(frameIndex) }
func (d *Driver) SetVariable(variablesReference int, name, value string) (*dap.SetVariableResponseBody, error) {
	return d.life.SetVariable(variablesReference, name, value)
}
func (d *Driver) SetExpression(expression, value string, frameIndex int) (*dap.SetExpressionResponseBody, error) {
	return d.life.SetExpression(expression, value, frameIndex)
}
func (d *Driver) ExceptionInfo(threadID int) (*dap.ExceptionInfoResponseBody, error) {
	return d.life.ExceptionInfo(threadID)
}
func (d *Driver) Cancel(requestID int) error                   { return d.life.Cancel(requestID) }
func (d *Driver) TerminateThreads(threadIDs []int) error       { return d.life.TerminateThreads(threadIDs) }
func (d *Driver) RawRequest(command string, argsJSON []byte) ([]byte, error) {
	return d.life.RawRequest(command, argsJSON)
}

// SendPause writes a pause request without waiting for its response: a
// background goroutine observing long-running output may want to interrupt
// the debuggee without racing the foreground caller's own pending
// SendRequest (spec.md §5's write-only path).
func (d *Driver) SendPause(threadID int) error {
	return d.corr.SendRaw(message.Pause(d.sess.NextSeq(), threadID))
}

// Capabilities returns the adapter's advertised capability set, as captured
// by the initialize handshake.
func (d *Driver) Capabilities() dap.Capabilities {
	return d.sess.Capabilities
}

// GetPid returns the pid of the adapter process the transport holds, for
// stdio and TCP launches alike; it reports false only when no process is
// attached (before launch, after teardown, or a TCP transport built without
// one).
func (d *Driver) GetPid() (int, bool) {
	return d.sess.Transport.GetPid()
}

// DrainNotifications empties and returns the session's outward notification
// queue (spec.md §3 (c)).
func (d *Driver) DrainNotifications() []session.Notification {
	return d.sess.DrainNotifications()
}

// State reports the session's current lifecycle state (spec.md §9).
func (d *Driver) State() session.State {
	return d.sess.State
}

// Terminate asks the adapter to end the debug session without restarting,
// tolerating an adapter that never acknowledges (spec.md §5).
func (d *Driver) Terminate() error {
	if d.sess.Capabilities.SupportsTerminateRequest {
		if _, err := d.corr.SendRequest(message.Terminate(d.sess.NextSeq(), false)); err != nil {
			d.logger.WithError(err).Debug("driver: terminate request failed")
		}
		return nil
	}
	return d.Detach(false)
}

// Detach sends disconnect without terminating the debuggee by default.
func (d *Driver) Detach(terminateDebuggee bool) error {
	if _, err := d.corr.SendRequest(message.Disconnect(d.sess.NextSeq(), false, terminateDebuggee)); err != nil {
		d.logger.WithError(err).Debug("driver: disconnect request failed")
	}
	return nil
}

// Stop tears down the local process group without attempting any further
// protocol exchange, for use when the adapter is unresponsive.
func (d *Driver) Stop() {
	d.sess.Transport.Kill()
}

// Deinit releases every resource the Driver owns: best-effort disconnect,
// process-group kill, and transport reset to None (spec.md §5's resource
// cleanup paragraph). Safe to call more than once.
func (d *Driver) Deinit() {
	if d.sess.State != session.StateTerminated && d.sess.State != session.StateUnlaunched {
		_ = d.Detach(true)
	}
	d.sess.Transport.Kill()
	d.sess.Transport = transport.None()
	d.sess.Initialized = false
	d.sess.State = session.StateTerminated
}
