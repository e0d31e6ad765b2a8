// Package transcoder runs the external encoder for a staged upload and
// decides what happened.
//
// The encoder always runs as a separate OS process, started with a discrete
// argument list built by the encoder package; no shell is involved. A run
// ends in exactly one Outcome:
//   - Success: exit status 0 and a non-empty artifact at the derived path
//   - ScriptFailure: non-zero exit status, stderr attached verbatim
//   - MissingOutput: exit status 0 but no artifact where it must be
//   - Timeout: the optional bounded wait expired and the process was killed
//   - LaunchFailure: the executable could not be started
//
// Failed runs are never retried. Shutdown kills every live child process.
package transcoder
