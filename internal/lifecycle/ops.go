package lifecycle

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
)

// Each of these implements spec.md §4.8.10: build the request (gated on the
// relevant capability where one exists), send it, and hand back the typed
// response body. Numeric fields the adapter omits default to Go's zero
// value, matching "0 for counts, None for optionals" per spec.

// Threads has no capability gate; every adapter must support it.
func (l *Lifecycle) Threads() ([]dap.Thread, error) {
	resp, err := l.Corr.SendRequest(message.Threads(l.Session.NextSeq()))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.ThreadsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: threads response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Threads, nil
}

// StackTrace has no capability gate.
func (l *Lifecycle) StackTrace(threadID, startFrame, levels int) (*dap.StackTraceResponseBody, error) {
	resp, err := l.Corr.SendRequest(message.StackTrace(l.Session.NextSeq(), threadID, startFrame, levels))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.StackTraceResponse)
	if !ok {
		return nil, fmt.Errorf("%w: stackTrace response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	ids := make([]int, len(typed.Body.StackFrames))
	for i, f := range typed.Body.StackFrames {
		ids[i] = f.Id
	}
	l.Session.SetFrames(ids)
	return &typed.Body, nil
}

// Scopes has no capability gate.
func (l *Lifecycle) Scopes(frameIndex int) ([]dap.Scope, error) {
	frameID, ok := l.Session.ResolveFrameID(frameIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no stack trace cached", proxyerr.ErrNotInitialized)
	}
	resp, err := l.Corr.SendRequest(message.Scopes(l.Session.NextSeq(), frameID))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.ScopesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: scopes response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Scopes, nil
}

func (l *Lifecycle) ReadMemory(memoryReference string, offset, count int) (*dap.ReadMemoryResponseBody, error) {
	if !l.Session.Capabilities.SupportsReadMemoryRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.ReadMemory(l.Session.NextSeq(), memoryReference, offset, count))
	if err != nil {
		return nil, err
	}
	if _, failed := resp.(*dap.ErrorResponse); failed {
		// go-dap decodes a success=false response as an ErrorResponse.
		return nil, proxyerr.ErrAddressUnavailable
	}
	typed, ok := resp.(*dap.ReadMemoryResponse)
	if !ok {
		return nil, fmt.Errorf("%w: readMemory response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	if !typed.Success {
		// The adapter advertised the capability but failed this particular
		// address: a distinct, possibly-transient outcome from the
		// capability gap above (DESIGN.md open question 1).
		return nil, proxyerr.ErrAddressUnavailable
	}
	return &typed.Body, nil
}

func (l *Lifecycle) WriteMemory(memoryReference string, offset int, data []byte) (*dap.WriteMemoryResponseBody, error) {
	if !l.Session.Capabilities.SupportsWriteMemoryRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.WriteMemory(l.Session.NextSeq(), memoryReference, offset, data))
	if err != nil {
		return nil, err
	}
	if _, failed := resp.(*dap.ErrorResponse); failed {
		return nil, proxyerr.ErrAddressUnavailable
	}
	typed, ok := resp.(*dap.WriteMemoryResponse)
	if !ok {
		return nil, fmt.Errorf("%w: writeMemory response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	if !typed.Success {
		return nil, proxyerr.ErrAddressUnavailable
	}
	return &typed.Body, nil
}

// WriteMemoryBase64 decodes a base64 payload and writes it, for callers
// that receive write data already wire-encoded.
func (l *Lifecycle) WriteMemoryBase64(memoryReference string, offset int, dataB64 string) (*dap.WriteMemoryResponseBody, error) {
	data, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return nil, fmt.Errorf("%w: write memory data: %v", proxyerr.ErrInvalidAddress, err)
	}
	return l.WriteMemory(memoryReference, offset, data)
}

func (l *Lifecycle) Disassemble(memoryReference string, offset, instructionOffset, instructionCount int) ([]dap.DisassembledInstruction, error) {
	if !l.Session.Capabilities.SupportsDisassembleRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.Disassemble(l.Session.NextSeq(), memoryReference, offset, instructionOffset, instructionCount))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.DisassembleResponse)
	if !ok {
		return nil, fmt.Errorf("%w: disassemble response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Instructions, nil
}

// Source has no capability gate.
func (l *Lifecycle) Source(sourceReference int, path string) (string, error) {
	resp, err := l.Corr.SendRequest(message.Source(l.Session.NextSeq(), sourceReference, path))
	if err != nil {
		return "", err
	}
	typed, ok := resp.(*dap.SourceResponse)
	if !ok {
		return "", fmt.Errorf("%w: source response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Content, nil
}

func (l *Lifecycle) LoadedSources() ([]dap.Source, error) {
	if !l.Session.Capabilities.SupportsLoadedSourcesRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.LoadedSources(l.Session.NextSeq()))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.LoadedSourcesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: loadedSources response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Sources, nil
}

func (l *Lifecycle) Modules(startModule, moduleCount int) ([]dap.Module, error) {
	if !l.Session.Capabilities.SupportsModulesRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.Modules(l.Session.NextSeq(), startModule, moduleCount))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.ModulesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: modules response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Modules, nil
}

func (l *Lifecycle) Completions(text string, column, frameIndex, line int) ([]dap.CompletionItem, error) {
	if !l.Session.Capabilities.SupportsCompletionsRequest {
		return nil, notSupported()
	}
	frameID, _ := l.Session.ResolveFrameID(frameIndex)
	resp, err := l.Corr.SendRequest(message.Completions(l.Session.NextSeq(), text, column, frameID, line))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.CompletionsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: completions response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Targets, nil
}

func (l *Lifecycle) StepInTargets(frameIndex int) ([]dap.StepInTarget, error) {
	if !l.Session.Capabilities.SupportsStepInTargetsRequest {
		return nil, notSupported()
	}
	frameID, ok := l.Session.ResolveFrameID(frameIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no stack trace cached", proxyerr.ErrNotInitialized)
	}
	resp, err := l.Corr.SendRequest(message.StepInTargets(l.Session.NextSeq(), frameID))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.StepInTargetsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: stepInTargets response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Targets, nil
}

func (l *Lifecycle) BreakpointLocations(path string, line, endLine int) ([]dap.BreakpointLocation, error) {
	if !l.Session.Capabilities.SupportsBreakpointLocationsRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.BreakpointLocations(l.Session.NextSeq(), path, line, endLine))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.BreakpointLocationsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: breakpointLocations response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Breakpoints, nil
}

func (l *Lifecycle) GotoTargets(path string, line int) ([]dap.GotoTarget, error) {
	if !l.Session.Capabilities.SupportsGotoTargetsRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.GotoTargets(l.Session.NextSeq(), path, line))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.GotoTargetsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: gotoTargets response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return typed.Body.Targets, nil
}

func (l *Lifecycle) Goto(threadID, targetID int) error {
	if !l.Session.Capabilities.SupportsGotoTargetsRequest {
		return notSupported()
	}
	_, err := l.Corr.SendRequest(message.Goto(l.Session.NextSeq(), threadID, targetID))
	return err
}

func (l *Lifecycle) RestartFrame(frameIndex int) error {
	if !l.Session.Capabilities.SupportsRestartFrame {
		return notSupported()
	}
	frameID, ok := l.Session.ResolveFrameID(frameIndex)
	if !ok {
		return fmt.Errorf("%w: no stack trace cached", proxyerr.ErrNotInitialized)
	}
	_, err := l.Corr.SendRequest(message.RestartFrame(l.Session.NextSeq(), frameID))
	return err
}

func (l *Lifecycle) SetVariable(variablesReference int, name, value string) (*dap.SetVariableResponseBody, error) {
	if !l.Session.Capabilities.SupportsSetVariable {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.SetVariable(l.Session.NextSeq(), variablesReference, name, value))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.SetVariableResponse)
	if !ok {
		return nil, fmt.Errorf("%w: setVariable response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return &typed.Body, nil
}

func (l *Lifecycle) SetExpression(expression, value string, frameIndex int) (*dap.SetExpressionResponseBody, error) {
	if !l.Session.Capabilities.SupportsSetExpression {
		return nil, notSupported()
	}
	frameID, ok := l.Session.ResolveFrameID(frameIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no stack trace cached", proxyerr.ErrNotInitialized)
	}
	resp, err := l.Corr.SendRequest(message.SetExpression(l.Session.NextSeq(), expression, value, frameID))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.SetExpressionResponse)
	if !ok {
		return nil, fmt.Errorf("%w: setExpression response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return &typed.Body, nil
}

func (l *Lifecycle) ExceptionInfo(threadID int) (*dap.ExceptionInfoResponseBody, error) {
	if !l.Session.Capabilities.SupportsExceptionInfoRequest {
		return nil, notSupported()
	}
	resp, err := l.Corr.SendRequest(message.ExceptionInfo(l.Session.NextSeq(), threadID))
	if err != nil {
		return nil, err
	}
	typed, ok := resp.(*dap.ExceptionInfoResponse)
	if !ok {
		return nil, fmt.Errorf("%w: exceptionInfo response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	return &typed.Body, nil
}

// Cancel is fire-and-forget: it hints the adapter, it does not abort any
// locally pending call (spec.md §5).
func (l *Lifecycle) Cancel(requestID int) error {
	return l.Corr.SendRaw(message.Cancel(l.Session.NextSeq(), requestID))
}

func (l *Lifecycle) TerminateThreads(threadIDs []int) error {
	if !l.Session.Capabilities.SupportsTerminateThreadsRequest {
		return notSupported()
	}
	_, err := l.Corr.SendRequest(message.TerminateThreads(l.Session.NextSeq(), threadIDs))
	return err
}

// RawRequest builds and sends an arbitrary, untyped request by command
// name, for operations this package doesn't otherwise model. argumentsJSON
// is passed through verbatim as the request's Arguments field.
func (l *Lifecycle) RawRequest(command string, argumentsJSON json.RawMessage) (json.RawMessage, error) {
	resp, err := l.Corr.SendRequest(message.RawCommand(l.Session.NextSeq(), command, argumentsJSON))
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}
