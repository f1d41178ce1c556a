package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LaunchArguments builds the merged launch-arguments JSON blob used by the
// top-level launch. Child-session enrichment builds its own blob and does
// not call it.
func LaunchArguments(program string, args []string, stopOnEntry bool, cwd string, extras json.RawMessage) (json.RawMessage, error) {
	fields := map[string]any{
		"program":     program,
		"stopOnEntry": stopOnEntry,
	}
	if args != nil {
		fields["args"] = args
	}
	if cwd != "" {
		fields["cwd"] = cwd
	}

	if len(extras) > 0 {
		substituted := substituteCwd(extras, cwd)
		var extraFields map[string]any
		if err := json.Unmarshal(substituted, &extraFields); err != nil {
			return nil, fmt.Errorf("message: launch: extras blob: %w", err)
		}
		for k, v := range extraFields {
			fields[k] = v
		}
	}

	// Never let extras reintroduce an external terminal.
	fields["console"] = "internalConsole"

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("message: launch: %w", err)
	}
	return raw, nil
}

// substituteCwd replaces the literal template token "{cwd}" with cwd,
// JSON-string-escaped so that paths containing backslashes or quotes
// (Windows paths, in particular) don't corrupt the surrounding JSON.
func substituteCwd(extras json.RawMessage, cwd string) []byte {
	if cwd == "" {
		return extras
	}
	escaped, err := json.Marshal(cwd)
	if err != nil {
		return extras
	}
	// escaped is `"...\"..."`; strip the surrounding quotes so the token
	// can sit inside an existing string literal in the template.
	inner := escaped[1 : len(escaped)-1]
	return []byte(strings.ReplaceAll(string(extras), "{cwd}", string(inner)))
}
