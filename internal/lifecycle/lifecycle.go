// Package lifecycle implements the launch/attach/run/restart/child-session
// orchestrations of spec.md §4.8: the sequences that drive several
// correlator calls in a fixed order, as opposed to the single-request
// capability-gated operations internal/driver exposes.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/adapter"
	"github.com/dev-console/dap-proxy/internal/correlator"
	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
	"github.com/dev-console/dap-proxy/internal/session"
)

// Lifecycle drives one Session through launch, run, restart, and
// child-session orchestration. It owns no transport state directly; all
// reads and writes go through Corr, which reads from and writes to
// Session.Transport.
type Lifecycle struct {
	Config adapter.Config
	Logger logrus.FieldLogger

	Session *session.Session
	Corr    *correlator.Correlator

	Installer adapter.Installer

	// AvailableExceptionFilters is the set the adapter advertised via
	// initialize's ExceptionBreakpointFilters, kept separately from the
	// registry's active (caller-enabled) filter set.
	AvailableExceptionFilters []dap.ExceptionBreakpointsFilter
}

// New returns a Lifecycle bound to sess and corr, configured per cfg.
func New(cfg adapter.Config, sess *session.Session, corr *correlator.Correlator, installer adapter.Installer) *Lifecycle {
	logger := sess.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Lifecycle{Config: cfg, Logger: logger, Session: sess, Corr: corr, Installer: installer}
}

// resolveArgv substitutes {adapter_path} and {entry_point} in the configured
// argv template against a resolved install directory and entry point.
func resolveArgv(argvTemplate []string, installDir, entryPoint string) []string {
	argv := make([]string, len(argvTemplate))
	for i, a := range argvTemplate {
		a = strings.ReplaceAll(a, "{adapter_path}", installDir)
		a = strings.ReplaceAll(a, "{entry_point}", entryPoint)
		argv[i] = a
	}
	return argv
}

// resolveInstall runs dependency checks then, if an install descriptor is
// configured, invokes the installer to obtain an install directory and
// entry point. With no install descriptor the adapter is assumed already
// present on PATH and installDir/entryPoint are empty (the argv template is
// then expected to contain no placeholders).
func (l *Lifecycle) resolveInstall(checks []adapter.DependencyCheck) (installDir, entryPoint string, err error) {
	if err := adapter.RunDependencyChecks(checks); err != nil {
		return "", "", fmt.Errorf("%w: %v", proxyerr.ErrDependencyCheckFailed, err)
	}
	if l.Config.Install == nil {
		return "", "", nil
	}
	if l.Installer == nil {
		return "", "", fmt.Errorf("%w: adapter install descriptor configured but no installer supplied", proxyerr.ErrDependencyCheckFailed)
	}
	installDir, entryPoint, err = l.Installer.Install(*l.Config.Install)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", proxyerr.ErrInstallFailed, err)
	}
	return installDir, entryPoint, nil
}

// initializeHandshake sends initialize and records the adapter's
// capabilities and advertised exception breakpoint filters.
func (l *Lifecycle) initializeHandshake() error {
	seq := l.Session.NextSeq()
	resp, err := l.Corr.SendRequest(message.Initialize(seq, l.Config.ID, l.Config.SupportsStartDebugging))
	if err != nil {
		return err
	}
	initResp, ok := resp.(*dap.InitializeResponse)
	if !ok {
		return fmt.Errorf("%w: initialize response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	l.Session.Capabilities = initResp.Body
	if initResp.Body.ExceptionBreakpointFilters != nil {
		l.AvailableExceptionFilters = initResp.Body.ExceptionBreakpointFilters
	}
	return nil
}

// notSupported wraps proxyerr.ErrNotSupported for capability-gated refusals
// that return synchronously, before any wire traffic (spec.md §7).
func notSupported() error {
	return proxyerr.ErrNotSupported
}

// translateStopReason maps a raw DAP stopped-event reason to one of the
// table's recognized values, defaulting anything unrecognized to "step"
// (spec.md §4.8.5).
func translateStopReason(reason string) string {
	switch reason {
	case "breakpoint", "step", "exception", "entry", "pause", "goto",
		"function breakpoint", "data breakpoint", "instruction breakpoint":
		return reason
	default:
		return "step"
	}
}
