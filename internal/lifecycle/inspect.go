package lifecycle

import (
	"fmt"
	"strings"

	"github.com/google/go-dap"

	"github.com/dev-console/dap-proxy/internal/message"
	"github.com/dev-console/dap-proxy/internal/proxyerr"
)

// InspectRequest is the caller-facing three-way inspect operation
// (spec.md §4.8.8): expand a variable, fetch a named scope, or evaluate an
// expression, always against an effective frame translated through the
// cached stack trace.
type InspectRequest struct {
	// VariablesReference, if > 0, expands that variable via `variables`.
	VariablesReference int
	// Scope, if non-empty (and VariablesReference == 0), fetches scopes for
	// the effective frame and returns the matching one.
	Scope string
	// Expression, used when neither of the above applies.
	Expression string
	Context    string

	FrameIndex int
}

// InspectResult is freshly allocated on every call; none of its strings
// alias the session's internal state.
type InspectResult struct {
	Variables []dap.Variable
	Scope     *dap.Scope

	Result             string
	Type               string
	VariablesReference int
	Children           []dap.Variable
}

// Inspect implements spec.md §4.8.8.
func (l *Lifecycle) Inspect(req InspectRequest) (*InspectResult, error) {
	if req.VariablesReference > 0 {
		vars, err := l.fetchVariables(req.VariablesReference)
		if err != nil {
			return nil, err
		}
		return &InspectResult{Variables: vars}, nil
	}

	frameID, ok := l.Session.ResolveFrameID(req.FrameIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no stack trace cached", proxyerr.ErrNotInitialized)
	}

	if req.Scope != "" {
		scope, err := l.matchScope(frameID, req.Scope)
		if err != nil {
			return nil, err
		}
		return &InspectResult{Scope: scope}, nil
	}

	resp, err := l.Corr.SendRequest(message.Evaluate(l.Session.NextSeq(), req.Expression, frameID, req.Context))
	if err != nil {
		return nil, err
	}
	evalResp, ok := resp.(*dap.EvaluateResponse)
	if !ok {
		return nil, fmt.Errorf("%w: evaluate response was %T", proxyerr.ErrInvalidResponse, resp)
	}

	result := &InspectResult{
		Result:             evalResp.Body.Result,
		Type:               evalResp.Body.Type,
		VariablesReference: evalResp.Body.VariablesReference,
	}
	if result.VariablesReference > 0 {
		children, err := l.fetchVariables(result.VariablesReference)
		if err == nil {
			result.Children = children
		} else {
			l.Logger.WithError(err).Debug("lifecycle: inspect: auto-expand variables failed")
		}
	}
	return result, nil
}

func (l *Lifecycle) fetchVariables(ref int) ([]dap.Variable, error) {
	resp, err := l.Corr.SendRequest(message.Variables(l.Session.NextSeq(), ref))
	if err != nil {
		return nil, err
	}
	varResp, ok := resp.(*dap.VariablesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: variables response was %T", proxyerr.ErrInvalidResponse, resp)
	}
	out := make([]dap.Variable, len(varResp.Body.Variables))
	copy(out, varResp.Body.Variables)
	return out, nil
}

// matchScope fetches scopes for frameID and returns the one matching name
// per spec.md §4.8.8's case-insensitive rules: "locals" matches any scope
// name beginning with "local", "globals" similarly with "global", and
// "arguments" matches any scope name containing "arg".
func (l *Lifecycle) matchScope(frameID int, name string) (*dap.Scope, error) {
	resp, err := l.Corr.SendRequest(message.Scopes(l.Session.NextSeq(), frameID))
	if err != nil {
		return nil, err
	}
	scopesResp, ok := resp.(*dap.ScopesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: scopes response was %T", proxyerr.ErrInvalidResponse, resp)
	}

	want := strings.ToLower(name)
	for i, s := range scopesResp.Body.Scopes {
		sn := strings.ToLower(s.Name)
		matched := sn == want ||
			(want == "locals" && strings.HasPrefix(sn, "local")) ||
			(want == "globals" && strings.HasPrefix(sn, "global")) ||
			(want == "arguments" && strings.Contains(sn, "arg"))
		if matched {
			scope := scopesResp.Body.Scopes[i]
			return &scope, nil
		}
	}
	return nil, fmt.Errorf("%w: no scope named %q", proxyerr.ErrInvalidResponse, name)
}
