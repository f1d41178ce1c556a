package adapter

import (
	"errors"
	"testing"
)

func TestRunDependencyChecksAllPass(t *testing.T) {
	checks := []DependencyCheck{
		{Command: "true"},
		{Command: "true"},
	}
	if err := RunDependencyChecks(checks); err != nil {
		t.Fatalf("RunDependencyChecks() = %v, want nil", err)
	}
}

func TestRunDependencyChecksReturnsFirstFailure(t *testing.T) {
	checks := []DependencyCheck{
		{Command: "true"},
		{Command: "false", ErrorMessage: "middle check missing"},
		{Command: "false", ErrorMessage: "never reached"},
	}
	err := RunDependencyChecks(checks)
	if err == nil {
		t.Fatal("RunDependencyChecks() = nil, want error")
	}
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error was %T, want *DependencyError", err)
	}
	if depErr.Message != "middle check missing" {
		t.Fatalf("Message = %q, want the first failing check's message", depErr.Message)
	}
	if depErr.Unwrap() == nil {
		t.Fatal("Unwrap() = nil, want the underlying exec error")
	}
}

func TestRunDependencyChecksEmptyIsOK(t *testing.T) {
	if err := RunDependencyChecks(nil); err != nil {
		t.Fatalf("RunDependencyChecks(nil) = %v, want nil", err)
	}
}
