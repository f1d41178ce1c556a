package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-console/dap-proxy/internal/driver"
	"github.com/dev-console/dap-proxy/internal/lifecycle"
	"github.com/dev-console/dap-proxy/internal/util"
)

// driveCommand is one line of stdin input to the drive loop: an operation
// name plus whatever arguments it needs. Unused fields are simply ignored
// by whichever op reads them.
type driveCommand struct {
	Op                 string `json:"op"`
	Program            string `json:"program"`
	Cwd                string `json:"cwd"`
	Args               []string `json:"args"`
	StopOnEntry        bool   `json:"stop_on_entry"`
	File               string `json:"file"`
	Line               int    `json:"line"`
	Condition          string `json:"condition"`
	ID                 int    `json:"id"`
	ThreadID           int    `json:"thread_id"`
	Expression         string `json:"expression"`
	Scope              string `json:"scope"`
	FrameIndex         int    `json:"frame_index"`
	VariablesReference int    `json:"variables_reference"`
}

func newDriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drive",
		Short: "launch an adapter and drive it with newline-delimited JSON commands on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			d, err := buildDriver()
			if err != nil {
				return err
			}
			return runDriveLoop(d)
		},
	}
}

func runDriveLoop(d *driver.Driver) error {
	defer d.Deinit()

	done := make(chan struct{})
	defer close(done)
	util.SafeGoLogged(func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				for _, n := range d.DrainNotifications() {
					emit(map[string]any{"notification": n.Method, "payload": n.Payload})
				}
			}
		}
	}, func(r any, stack []byte) {
		logger.WithField("panic", r).Error("drive: notification pump panicked")
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c driveCommand
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			emit(map[string]any{"error": fmt.Sprintf("invalid command: %v", err)})
			continue
		}
		dispatchDriveCommand(d, c)
	}
	return scanner.Err()
}

func dispatchDriveCommand(d *driver.Driver, c driveCommand) {
	switch c.Op {
	case "launch":
		err := d.Launch(lifecycle.LaunchParams{
			Program: c.Program, Cwd: c.Cwd, Args: c.Args, StopOnEntry: c.StopOnEntry,
		})
		emitResult(nil, err)
	case "continue":
		emitResult(d.Run(lifecycle.ActionContinue, lifecycle.RunOptions{ThreadID: c.ThreadID}))
	case "next":
		emitResult(d.Run(lifecycle.ActionStepOver, lifecycle.RunOptions{ThreadID: c.ThreadID}))
	case "stepIn":
		emitResult(d.Run(lifecycle.ActionStepInto, lifecycle.RunOptions{ThreadID: c.ThreadID}))
	case "stepOut":
		emitResult(d.Run(lifecycle.ActionStepOut, lifecycle.RunOptions{ThreadID: c.ThreadID}))
	case "pause":
		emitResult(nil, d.SendPause(c.ThreadID))
	case "restart":
		emitResult(nil, d.Restart())
	case "setBreakpoint":
		emitResult(d.SetFileBreakpoint(c.File, c.Line, c.Condition, "", ""))
	case "removeBreakpoint":
		emitResult(nil, d.RemoveFileBreakpoint(c.ID))
	case "listBreakpoints":
		files, functions := d.ListBreakpoints()
		emit(map[string]any{"files": files, "functions": functions})
	case "inspect":
		emitResult(d.Inspect(lifecycle.InspectRequest{
			VariablesReference: c.VariablesReference,
			Scope:              c.Scope,
			Expression:         c.Expression,
			FrameIndex:         c.FrameIndex,
		}))
	case "threads":
		emitResult(d.Threads())
	case "capabilities":
		emit(d.Capabilities())
	case "terminate":
		emitResult(nil, d.Terminate())
	case "detach":
		emitResult(nil, d.Detach(false))
	case "quit":
		os.Exit(0)
	default:
		emit(map[string]any{"error": fmt.Sprintf("unknown op %q", c.Op)})
	}
}

func emitResult(v any, err error) {
	if err != nil {
		emit(map[string]any{"error": err.Error()})
		return
	}
	emit(v)
}

func emit(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drive: marshal output: %v\n", err)
		return
	}
	fmt.Println(string(b))
}
