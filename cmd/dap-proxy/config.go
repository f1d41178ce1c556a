package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dev-console/dap-proxy/internal/adapter"
)

// fileConfig is the on-disk shape of an adapter configuration: friendlier
// than adapter.Config's wire shape (string enums instead of raw ints, a
// duration string instead of time.Duration's nanosecond int), loaded with
// --config and converted with toAdapterConfig.
type fileConfig struct {
	ID                     string          `json:"id"`
	Command                string          `json:"command"`
	Argv                   []string        `json:"argv"`
	Transport              string          `json:"transport"` // "stdio" or "tcp"
	PortStdoutPrefix       string          `json:"port_stdout_prefix"`
	PortDetectTimeout      string          `json:"port_detect_timeout"`
	Extras                 json.RawMessage `json:"extras"`
	SupportsStartDebugging bool            `json:"supports_start_debugging"`
	ChildSessionsEnabled   bool            `json:"child_sessions_enabled"`
	Restart                string          `json:"restart"` // "native" or "emulated"

	DependencyChecks []fileDependencyCheck `json:"dependency_checks"`
}

type fileDependencyCheck struct {
	Command      string   `json:"command"`
	Args         []string `json:"args"`
	ErrorMessage string   `json:"error_message"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *fileConfig) toAdapterConfig() (adapter.Config, error) {
	cfg := adapter.Config{
		ID:                     fc.ID,
		Command:                fc.Command,
		Argv:                   fc.Argv,
		PortStdoutPrefix:       fc.PortStdoutPrefix,
		Extras:                 fc.Extras,
		SupportsStartDebugging: fc.SupportsStartDebugging,
		ChildSessionsEnabled:   fc.ChildSessionsEnabled,
	}

	switch fc.Transport {
	case "", "stdio":
		cfg.Transport = adapter.TransportStdio
	case "tcp":
		cfg.Transport = adapter.TransportTcp
	default:
		return cfg, fmt.Errorf("unknown transport %q", fc.Transport)
	}

	switch fc.Restart {
	case "", "native":
		cfg.Restart = adapter.RestartNative
	case "emulated":
		cfg.Restart = adapter.RestartEmulated
	default:
		return cfg, fmt.Errorf("unknown restart method %q", fc.Restart)
	}

	if fc.PortDetectTimeout != "" {
		d, err := time.ParseDuration(fc.PortDetectTimeout)
		if err != nil {
			return cfg, fmt.Errorf("port_detect_timeout: %w", err)
		}
		cfg.PortDetectTimeout = d
	} else {
		cfg.PortDetectTimeout = 5 * time.Second
	}

	return cfg, nil
}

func (fc *fileConfig) dependencyChecks() []adapter.DependencyCheck {
	checks := make([]adapter.DependencyCheck, len(fc.DependencyChecks))
	for i, c := range fc.DependencyChecks {
		checks[i] = adapter.DependencyCheck{
			Command:      c.Command,
			Args:         c.Args,
			ErrorMessage: c.ErrorMessage,
		}
	}
	return checks
}
