package transcoder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tags the variant held by an Outcome.
type Kind string

const (
	// KindSuccess means the artifact exists and can be streamed.
	KindSuccess Kind = "success"
	// KindScriptFailure means the encoder exited non-zero.
	KindScriptFailure Kind = "script_failure"
	// KindMissingOutput means the encoder exited zero without an artifact.
	KindMissingOutput Kind = "missing_output"
	// KindTimeout means the bounded wait expired.
	KindTimeout Kind = "timeout"
	// KindLaunchFailure means the encoder process never started.
	KindLaunchFailure Kind = "launch_failure"
)

// Outcome is the single result of one encoder run. Only the fields that
// belong to Kind are set.
type Outcome struct {
	Kind Kind

	// OutputPath is the verified artifact (KindSuccess).
	OutputPath string
	// ExpectedPath is where the artifact should have been (KindMissingOutput).
	ExpectedPath string
	// ExitCode is the encoder exit status (KindScriptFailure).
	ExitCode int
	// Stderr is the encoder's captured diagnostic output.
	Stderr string
	// Err carries the underlying error for every failure kind.
	Err error

	Duration time.Duration
}

// Succeeded reports whether the artifact can be delivered.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindSuccess
}

// Diagnostic renders the plain-text explanation sent to the client on
// failure, including whatever the encoder printed to stderr.
func (o Outcome) Diagnostic() string {
	var msg string
	switch {
	case o.Kind == KindSuccess:
		return ""
	case errors.Is(o.Err, errShuttingDown):
		msg = "Conversion failed: the server is shutting down; try again later."
	case o.Kind == KindScriptFailure:
		msg = fmt.Sprintf("Conversion failed: encoder exited with status %d.", o.ExitCode)
	case o.Kind == KindMissingOutput:
		msg = "Conversion failed: encoder finished but produced no output file."
	case o.Kind == KindTimeout:
		msg = fmt.Sprintf("Conversion failed: encoder did not finish within %s.", o.Duration.Round(time.Second))
	case o.Kind == KindLaunchFailure:
		msg = "Conversion failed: encoder could not be started."
	default:
		msg = "Conversion failed."
	}

	stderr := strings.TrimSpace(o.Stderr)
	if stderr == "" {
		return msg + "\n"
	}
	return msg + "\n\n" + stderr + "\n"
}
