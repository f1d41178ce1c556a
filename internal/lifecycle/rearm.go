package lifecycle

import "github.com/dev-console/dap-proxy/internal/message"

// rearmBreakpoints implements spec.md §4.9: one setBreakpoints per tracked
// file, then setFunctionBreakpoints if any are tracked, then
// setExceptionBreakpoints with the saved filter set if that set is
// non-empty (with no active filters none is sent). Best-effort: every
// failure is logged and swallowed, since re-arm runs during configuration
// windows where the adapter may not yet be ready to answer, and the caller
// has no useful recovery beyond "the breakpoint may not have taken".
func (l *Lifecycle) rearmBreakpoints() {
	for _, file := range l.Session.Registry.Files() {
		if err := l.sendSetBreakpoints(file); err != nil {
			l.Logger.WithError(err).WithField("file", file).Warn("lifecycle: rearm: setBreakpoints failed")
		}
	}

	if functions := l.Session.Registry.FunctionBreakpoints(); len(functions) > 0 {
		if err := l.sendSetFunctionBreakpoints(); err != nil {
			l.Logger.WithError(err).Warn("lifecycle: rearm: setFunctionBreakpoints failed")
		}
	}

	if filters := l.Session.Registry.ExceptionFilters(); len(filters) > 0 {
		if _, err := l.Corr.SendRequest(message.SetExceptionBreakpoints(l.Session.NextSeq(), filters)); err != nil {
			l.Logger.WithError(err).Warn("lifecycle: rearm: setExceptionBreakpoints failed")
		}
	}
}
