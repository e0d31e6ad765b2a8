package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"video-converter/internal/encoder"
	"video-converter/internal/logging"
	"video-converter/internal/mediatypes"
	"video-converter/internal/metrics"
)

// ErrEncoderNotFound indicates the configured executable is not on disk or PATH.
var ErrEncoderNotFound = errors.New("encoder executable not found")

// errShuttingDown is reported for runs requested after Shutdown.
var errShuttingDown = errors.New("transcoder is shutting down")

// Config describes how the external encoder is invoked.
type Config struct {
	// ExecutablePath is the encoder binary or wrapper script.
	ExecutablePath string
	// Mode selects the argument convention.
	Mode encoder.Mode
	// Settings are the fixed encoder flags (ModeFFmpeg only).
	Settings encoder.Settings
	// Timeout bounds a single run (0 = wait indefinitely).
	Timeout time.Duration
	// DiagnosticLimit bounds captured stdout/stderr per run.
	DiagnosticLimit int
}

// Request is the part of a staged upload the encoder needs.
type Request struct {
	JobID       string
	InputPath   string
	BitrateKbps int
}

// Job is a single encoder run. It is owned by the goroutine calling Run.
type Job struct {
	ID         string
	Args       []string
	OutputPath string
	ExitStatus *int

	cmd    *exec.Cmd
	stdout *tailBuffer
	stderr *tailBuffer
}

// Transcoder launches encoder processes and tracks the live ones.
type Transcoder struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc

	processes map[string]*Job
	processMu sync.Mutex
	closed    bool
}

// New creates a new Transcoder instance.
func New(cfg Config) *Transcoder {
	if cfg.Mode == "" {
		cfg.Mode = encoder.ModeFFmpeg
	}
	if cfg.Settings == (encoder.Settings{}) {
		cfg.Settings = encoder.DefaultSettings()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Transcoder{
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		processes: make(map[string]*Job),
	}
}

// NewJob derives the argument list and output location for req. The output
// path comes from encoder.OutputPath and is the same path Run verifies.
func (t *Transcoder) NewJob(req Request) *Job {
	output := encoder.OutputPath(req.InputPath)
	return &Job{
		ID:         req.JobID,
		Args:       t.cfg.Settings.Invocation(t.cfg.Mode, req.InputPath, output, req.BitrateKbps),
		OutputPath: output,
		stdout:     newTailBuffer(t.cfg.DiagnosticLimit),
		stderr:     newTailBuffer(t.cfg.DiagnosticLimit),
	}
}

// Run executes the encoder for job and blocks until the process exits.
// Cancelling ctx kills the process; so does Shutdown and the configured
// timeout. Encoder failures are reported through the Outcome, never as a
// Go error.
func (t *Transcoder) Run(ctx context.Context, job *Job) Outcome {
	log := logging.Job(job.ID)
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	if t.cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, t.cfg.Timeout)
		defer cancelTimeout()
	}

	cmd := exec.CommandContext(runCtx, t.cfg.ExecutablePath, job.Args...)
	cmd.Stdout = job.stdout
	cmd.Stderr = job.stderr
	// Grandchildren of a wrapper script can hold the pipes open after a kill.
	cmd.WaitDelay = 5 * time.Second
	job.cmd = cmd

	if !t.track(job) {
		return t.finish(log, job, Outcome{Kind: KindLaunchFailure, Err: errShuttingDown}, start)
	}
	defer t.untrack(job)

	log.Info("Starting encoder: %s %s", t.cfg.ExecutablePath, quoteArgs(job.Args))

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %v", ErrEncoderNotFound, err)
		}
		return t.finish(log, job, Outcome{Kind: KindLaunchFailure, Err: err}, start)
	}

	metrics.ConversionsInProgress.Inc()
	waitErr := cmd.Wait()
	metrics.ConversionsInProgress.Dec()

	exitCode := cmd.ProcessState.ExitCode()
	job.ExitStatus = &exitCode

	if out := job.stdout.String(); out != "" {
		log.Debug("Encoder stdout: %s", strings.TrimSpace(out))
	}

	if waitErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return t.finish(log, job, Outcome{
			Kind:   KindTimeout,
			Stderr: job.stderr.String(),
			Err:    runCtx.Err(),
		}, start)
	}

	if waitErr != nil && t.ctx.Err() != nil && ctx.Err() == nil {
		return t.finish(log, job, Outcome{
			Kind:     KindScriptFailure,
			ExitCode: exitCode,
			Stderr:   job.stderr.String(),
			Err:      errShuttingDown,
		}, start)
	}

	if waitErr != nil {
		return t.finish(log, job, Outcome{
			Kind:     KindScriptFailure,
			ExitCode: exitCode,
			Stderr:   job.stderr.String(),
			Err:      waitErr,
		}, start)
	}

	// Exit status 0 alone is not success: the artifact has to be there.
	info, err := os.Stat(job.OutputPath)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return t.finish(log, job, Outcome{
			Kind:         KindMissingOutput,
			ExpectedPath: job.OutputPath,
			Stderr:       job.stderr.String(),
		}, start)
	}

	if ok, err := mediatypes.FileHasMP4Signature(job.OutputPath); err == nil && !ok {
		log.Warn("Encoder output %s does not start with an MP4 ftyp box", job.OutputPath)
	}

	return t.finish(log, job, Outcome{Kind: KindSuccess, OutputPath: job.OutputPath}, start)
}

// Convert is NewJob followed by Run.
func (t *Transcoder) Convert(ctx context.Context, req Request) (*Job, Outcome) {
	job := t.NewJob(req)
	return job, t.Run(ctx, job)
}

func (t *Transcoder) finish(log logging.JobLogger, job *Job, o Outcome, start time.Time) Outcome {
	o.Duration = time.Since(start)
	if o.Kind == KindTimeout {
		o.Duration = t.cfg.Timeout
	}

	metrics.ConversionsTotal.WithLabelValues(string(o.Kind)).Inc()
	metrics.ConversionDuration.WithLabelValues(string(o.Kind)).Observe(time.Since(start).Seconds())

	switch o.Kind {
	case KindSuccess:
		log.Info("Encoder finished in %v, output %s", o.Duration.Round(time.Millisecond), o.OutputPath)
	case KindScriptFailure:
		if errors.Is(o.Err, errShuttingDown) {
			log.Warn("Encoder killed by shutdown after %v", o.Duration.Round(time.Millisecond))
			break
		}
		log.Error("Encoder exited with status %d after %v: %s", o.ExitCode, o.Duration.Round(time.Millisecond), strings.TrimSpace(o.Stderr))
	case KindMissingOutput:
		log.Error("Encoder exited 0 but %s is missing or empty", o.ExpectedPath)
	case KindTimeout:
		log.Error("Encoder killed after timeout of %v", t.cfg.Timeout)
	case KindLaunchFailure:
		log.Error("Encoder could not be started: %v", o.Err)
	}
	return o
}

func (t *Transcoder) track(job *Job) bool {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	if t.closed {
		return false
	}
	t.processes[job.ID] = job
	return true
}

func (t *Transcoder) untrack(job *Job) {
	t.processMu.Lock()
	delete(t.processes, job.ID)
	t.processMu.Unlock()
}

// Active returns the number of encoder runs in flight.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Shutdown stops all active encoder processes and refuses new runs.
func (t *Transcoder) Shutdown() {
	t.processMu.Lock()
	t.closed = true
	for id := range t.processes {
		logging.Info("Killing encoder process for job %s", id)
	}
	t.processMu.Unlock()

	t.cancel()
}

// quoteArgs renders argv for logs only; it is never fed to a shell.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		a = logging.Sanitize(a)
		if a == "" || strings.ContainsAny(a, " \t'\"\\$;&|<>()") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
