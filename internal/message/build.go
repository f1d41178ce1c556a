package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/go-dap"
)

// Initialize builds the initialize request. The client capability set is
// fixed except for supportsStartDebugging, which an adapter config toggles.
func Initialize(seq int, clientID string, supportsStartDebugging bool) *dap.InitializeRequest {
	return &dap.InitializeRequest{
		Request: newRequest(seq, "initialize"),
		Arguments: dap.InitializeRequestArguments{
			ClientID:                      clientID,
			ClientName:                    clientID,
			AdapterID:                     "debug",
			PathFormat:                    "path",
			LinesStartAt1:                 true,
			ColumnsStartAt1:               true,
			SupportsVariableType:          true,
			SupportsVariablePaging:        true,
			SupportsRunInTerminalRequest:  false,
			SupportsMemoryReferences:      true,
			SupportsProgressReporting:     true,
			SupportsInvalidatedEvent:      true,
			SupportsMemoryEvent:           true,
			SupportsStartDebuggingRequest: supportsStartDebugging,
		},
	}
}

// Attach builds an attach request targeting pid.
func Attach(seq, pid int) (*dap.AttachRequest, error) {
	raw, err := json.Marshal(map[string]any{"pid": pid})
	if err != nil {
		return nil, fmt.Errorf("message: attach: %w", err)
	}
	return &dap.AttachRequest{
		Request:   newRequest(seq, "attach"),
		Arguments: raw,
	}, nil
}

// LaunchRaw sends pre-built launch arguments verbatim. Used both by the
// top-level launch (arguments from LaunchArguments) and by child-session
// enrichment, which builds its own arguments blob from a captured
// startDebugging configuration.
func LaunchRaw(seq int, arguments json.RawMessage) *dap.LaunchRequest {
	return &dap.LaunchRequest{
		Request:   newRequest(seq, "launch"),
		Arguments: arguments,
	}
}

func ConfigurationDone(seq int) *dap.ConfigurationDoneRequest {
	return &dap.ConfigurationDoneRequest{Request: newRequest(seq, "configurationDone")}
}

func SetBreakpoints(seq int, path string, breakpoints []dap.SourceBreakpoint) *dap.SetBreakpointsRequest {
	return &dap.SetBreakpointsRequest{
		Request: newRequest(seq, "setBreakpoints"),
		Arguments: dap.SetBreakpointsArguments{
			Source:      dap.Source{Path: path},
			Breakpoints: breakpoints,
		},
	}
}

func SetFunctionBreakpoints(seq int, breakpoints []dap.FunctionBreakpoint) *dap.SetFunctionBreakpointsRequest {
	return &dap.SetFunctionBreakpointsRequest{
		Request:   newRequest(seq, "setFunctionBreakpoints"),
		Arguments: dap.SetFunctionBreakpointsArguments{Breakpoints: breakpoints},
	}
}

func SetExceptionBreakpoints(seq int, filters []string) *dap.SetExceptionBreakpointsRequest {
	return &dap.SetExceptionBreakpointsRequest{
		Request:   newRequest(seq, "setExceptionBreakpoints"),
		Arguments: dap.SetExceptionBreakpointsArguments{Filters: filters},
	}
}

func SetInstructionBreakpoints(seq int, breakpoints []dap.InstructionBreakpoint) *dap.SetInstructionBreakpointsRequest {
	return &dap.SetInstructionBreakpointsRequest{
		Request:   newRequest(seq, "setInstructionBreakpoints"),
		Arguments: dap.SetInstructionBreakpointsArguments{Breakpoints: breakpoints},
	}
}

func SetDataBreakpoints(seq int, breakpoints []dap.DataBreakpoint) *dap.SetDataBreakpointsRequest {
	return &dap.SetDataBreakpointsRequest{
		Request:   newRequest(seq, "setDataBreakpoints"),
		Arguments: dap.SetDataBreakpointsArguments{Breakpoints: breakpoints},
	}
}

func DataBreakpointInfo(seq int, name string, variablesReference int) *dap.DataBreakpointInfoRequest {
	return &dap.DataBreakpointInfoRequest{
		Request: newRequest(seq, "dataBreakpointInfo"),
		Arguments: dap.DataBreakpointInfoArguments{
			Name:               name,
			VariablesReference: variablesReference,
		},
	}
}

func Continue(seq, threadID int) *dap.ContinueRequest {
	return &dap.ContinueRequest{
		Request:   newRequest(seq, "continue"),
		Arguments: dap.ContinueArguments{ThreadId: threadID},
	}
}

func Next(seq, threadID int, granularity string) *dap.NextRequest {
	return &dap.NextRequest{
		Request:   newRequest(seq, "next"),
		Arguments: dap.NextArguments{ThreadId: threadID, Granularity: granularity},
	}
}

func StepIn(seq, threadID int, targetID int, granularity string) *dap.StepInRequest {
	return &dap.StepInRequest{
		Request: newRequest(seq, "stepIn"),
		Arguments: dap.StepInArguments{
			ThreadId:    threadID,
			TargetId:    targetID,
			Granularity: granularity,
		},
	}
}

func StepOut(seq, threadID int, granularity string) *dap.StepOutRequest {
	return &dap.StepOutRequest{
		Request:   newRequest(seq, "stepOut"),
		Arguments: dap.StepOutArguments{ThreadId: threadID, Granularity: granularity},
	}
}

func StepBack(seq, threadID int, granularity string) *dap.StepBackRequest {
	return &dap.StepBackRequest{
		Request:   newRequest(seq, "stepBack"),
		Arguments: dap.StepBackArguments{ThreadId: threadID, Granularity: granularity},
	}
}

func ReverseContinue(seq, threadID int) *dap.ReverseContinueRequest {
	return &dap.ReverseContinueRequest{
		Request:   newRequest(seq, "reverseContinue"),
		Arguments: dap.ReverseContinueArguments{ThreadId: threadID},
	}
}

func Pause(seq, threadID int) *dap.PauseRequest {
	return &dap.PauseRequest{
		Request:   newRequest(seq, "pause"),
		Arguments: dap.PauseArguments{ThreadId: threadID},
	}
}

func Threads(seq int) *dap.ThreadsRequest {
	return &dap.ThreadsRequest{Request: newRequest(seq, "threads")}
}

func StackTrace(seq, threadID, startFrame, levels int) *dap.StackTraceRequest {
	return &dap.StackTraceRequest{
		Request: newRequest(seq, "stackTrace"),
		Arguments: dap.StackTraceArguments{
			ThreadId:   threadID,
			StartFrame: startFrame,
			Levels:     levels,
		},
	}
}

func Scopes(seq, frameID int) *dap.ScopesRequest {
	return &dap.ScopesRequest{
		Request:   newRequest(seq, "scopes"),
		Arguments: dap.ScopesArguments{FrameId: frameID},
	}
}

func Variables(seq, variablesReference int) *dap.VariablesRequest {
	return &dap.VariablesRequest{
		Request:   newRequest(seq, "variables"),
		Arguments: dap.VariablesArguments{VariablesReference: variablesReference},
	}
}

func SetVariable(seq, variablesReference int, name, value string) *dap.SetVariableRequest {
	return &dap.SetVariableRequest{
		Request: newRequest(seq, "setVariable"),
		Arguments: dap.SetVariableArguments{
			VariablesReference: variablesReference,
			Name:               name,
			Value:              value,
		},
	}
}

func SetExpression(seq int, expression, value string, frameID int) *dap.SetExpressionRequest {
	return &dap.SetExpressionRequest{
		Request: newRequest(seq, "setExpression"),
		Arguments: dap.SetExpressionArguments{
			Expression: expression,
			Value:      value,
			FrameId:    frameID,
		},
	}
}

func Evaluate(seq int, expression string, frameID int, context string) *dap.EvaluateRequest {
	return &dap.EvaluateRequest{
		Request: newRequest(seq, "evaluate"),
		Arguments: dap.EvaluateArguments{
			Expression: expression,
			FrameId:    frameID,
			Context:    context,
		},
	}
}

func Disconnect(seq int, restart, terminateDebuggee bool) *dap.DisconnectRequest {
	return &dap.DisconnectRequest{
		Request: newRequest(seq, "disconnect"),
		Arguments: &dap.DisconnectArguments{
			Restart:           restart,
			TerminateDebuggee: terminateDebuggee,
		},
	}
}

func Terminate(seq int, restart bool) *dap.TerminateRequest {
	return &dap.TerminateRequest{
		Request:   newRequest(seq, "terminate"),
		Arguments: &dap.TerminateArguments{Restart: restart},
	}
}

// Restart builds a native restart request. arguments may be nil.
func Restart(seq int, arguments json.RawMessage) *dap.RestartRequest {
	return &dap.RestartRequest{
		Request:   newRequest(seq, "restart"),
		Arguments: arguments,
	}
}

func Source(seq, sourceReference int, path string) *dap.SourceRequest {
	return &dap.SourceRequest{
		Request: newRequest(seq, "source"),
		Arguments: dap.SourceArguments{
			Source:          &dap.Source{Path: path, SourceReference: sourceReference},
			SourceReference: sourceReference,
		},
	}
}

func LoadedSources(seq int) *dap.LoadedSourcesRequest {
	return &dap.LoadedSourcesRequest{Request: newRequest(seq, "loadedSources")}
}

func Modules(seq, startModule, moduleCount int) *dap.ModulesRequest {
	return &dap.ModulesRequest{
		Request:   newRequest(seq, "modules"),
		Arguments: dap.ModulesArguments{StartModule: startModule, ModuleCount: moduleCount},
	}
}

func Completions(seq int, text string, column, frameID, line int) *dap.CompletionsRequest {
	return &dap.CompletionsRequest{
		Request: newRequest(seq, "completions"),
		Arguments: dap.CompletionsArguments{
			FrameId: frameID,
			Text:    text,
			Column:  column,
			Line:    line,
		},
	}
}

func StepInTargets(seq, frameID int) *dap.StepInTargetsRequest {
	return &dap.StepInTargetsRequest{
		Request:   newRequest(seq, "stepInTargets"),
		Arguments: dap.StepInTargetsArguments{FrameId: frameID},
	}
}

func BreakpointLocations(seq int, path string, line int, endLine int) *dap.BreakpointLocationsRequest {
	return &dap.BreakpointLocationsRequest{
		Request: newRequest(seq, "breakpointLocations"),
		Arguments: dap.BreakpointLocationsArguments{
			Source:  dap.Source{Path: path},
			Line:    line,
			EndLine: endLine,
		},
	}
}

func GotoTargets(seq int, path string, line int) *dap.GotoTargetsRequest {
	return &dap.GotoTargetsRequest{
		Request: newRequest(seq, "gotoTargets"),
		Arguments: dap.GotoTargetsArguments{
			Source: dap.Source{Path: path},
			Line:   line,
		},
	}
}

func Goto(seq, threadID, targetID int) *dap.GotoRequest {
	return &dap.GotoRequest{
		Request:   newRequest(seq, "goto"),
		Arguments: dap.GotoArguments{ThreadId: threadID, TargetId: targetID},
	}
}

func RestartFrame(seq, frameID int) *dap.RestartFrameRequest {
	return &dap.RestartFrameRequest{
		Request:   newRequest(seq, "restartFrame"),
		Arguments: dap.RestartFrameArguments{FrameId: frameID},
	}
}

func ExceptionInfo(seq, threadID int) *dap.ExceptionInfoRequest {
	return &dap.ExceptionInfoRequest{
		Request:   newRequest(seq, "exceptionInfo"),
		Arguments: dap.ExceptionInfoArguments{ThreadId: threadID},
	}
}

func Cancel(seq int, requestID int) *dap.CancelRequest {
	return &dap.CancelRequest{
		Request:   newRequest(seq, "cancel"),
		Arguments: dap.CancelArguments{RequestId: requestID},
	}
}

func TerminateThreads(seq int, threadIDs []int) *dap.TerminateThreadsRequest {
	return &dap.TerminateThreadsRequest{
		Request:   newRequest(seq, "terminateThreads"),
		Arguments: dap.TerminateThreadsArguments{ThreadIds: threadIDs},
	}
}

func ReadMemory(seq int, memoryReference string, offset, count int) *dap.ReadMemoryRequest {
	return &dap.ReadMemoryRequest{
		Request: newRequest(seq, "readMemory"),
		Arguments: dap.ReadMemoryArguments{
			MemoryReference: memoryReference,
			Offset:          offset,
			Count:           count,
		},
	}
}

// WriteMemory builds a writeMemory request; data is base64-encoded per the
// DAP wire format.
func WriteMemory(seq int, memoryReference string, offset int, data []byte) *dap.WriteMemoryRequest {
	return &dap.WriteMemoryRequest{
		Request: newRequest(seq, "writeMemory"),
		Arguments: dap.WriteMemoryArguments{
			MemoryReference: memoryReference,
			Offset:          offset,
			Data:            base64.StdEncoding.EncodeToString(data),
		},
	}
}

// Raw is a generic request envelope for commands this package has no typed
// builder for, used by the raw passthrough operation (spec.md §6).
type Raw struct {
	dap.Request
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// RawCommand builds a Raw request for an arbitrary command name and
// pre-encoded arguments.
func RawCommand(seq int, command string, arguments json.RawMessage) *Raw {
	return &Raw{Request: newRequest(seq, command), Arguments: arguments}
}

func Disassemble(seq int, memoryReference string, offset, instructionOffset, instructionCount int) *dap.DisassembleRequest {
	return &dap.DisassembleRequest{
		Request: newRequest(seq, "disassemble"),
		Arguments: dap.DisassembleArguments{
			MemoryReference:   memoryReference,
			Offset:            offset,
			InstructionOffset: instructionOffset,
			InstructionCount:  instructionCount,
		},
	}
}
