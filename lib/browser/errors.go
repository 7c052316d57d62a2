package browser

import (
	"fmt"
	"strings"
)

// FailureKind classifies why a single engine attempt did not produce
// a live session.
type FailureKind string

const (
	// the engine is not installed and could not be provisioned
	FailureBinaryMissing FailureKind = "binary_missing"
	// the binary exists but the browser process would not start
	FailureLaunchFailed FailureKind = "launch_failed"
	// acquiring a downloadable engine failed (network, archive, cache)
	FailureProvisioning FailureKind = "provisioning"
)

// AttemptFailure is the tagged outcome of one engine attempt. Callers
// inspect these instead of string-matching error text.
type AttemptFailure struct {
	Engine Engine
	Kind   FailureKind
	Err    error
}

func (f AttemptFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Engine, f.Kind, f.Err)
}

func (f AttemptFailure) Unwrap() error { return f.Err }

// EngineUnavailableError means every candidate engine was tried and
// none produced a session. Fatal to the run.
type EngineUnavailableError struct {
	Attempts []AttemptFailure
}

func (e *EngineUnavailableError) Error() string {
	var sb strings.Builder
	sb.WriteString("no browser engine could be launched")
	for _, a := range e.Attempts {
		sb.WriteString("\n  ")
		sb.WriteString(a.Error())
	}
	return sb.String()
}
