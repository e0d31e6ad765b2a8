package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"video-converter/internal/encoder"
	"video-converter/internal/staging"
	"video-converter/internal/startup"
	"video-converter/internal/transcoder"
)

type convertFlags struct {
	bitrate int
	output  string
	timeout time.Duration
}

func newConvertCommand(opts rootOptions) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert [flags] <input>",
		Short: "Convert a video file (or - for stdin) to MP4",
		Long: `Convert stages INPUT in a private work directory, runs the encoder on it
and moves the result to OUTPUT. Without -o the result is written next to
INPUT with an .mp4 extension, or to stdout when reading stdin.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := startup.LoadEncoderConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				flags.timeout = cfg.Timeout
			}
			if flags.bitrate <= 0 {
				flags.bitrate = cfg.DefaultBitrateKbps
			}
			return runConvert(cmd, opts, cfg, flags, args[0])
		},
	}

	cmd.Flags().IntVarP(&flags.bitrate, "bitrate", "b", 0, "audio bitrate in kbps (default DEFAULT_BITRATE_KBPS)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "give up after this long, 0 for no limit (default ENCODE_TIMEOUT)")
	return cmd
}

func runConvert(cmd *cobra.Command, opts rootOptions, cfg *startup.EncoderConfig, flags convertFlags, input string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	dest, err := resolveOutput(input, flags.output)
	if err != nil {
		return err
	}
	if dest == stdioName && opts.stdoutIsTerminal {
		return errors.New("refusing to write MP4 data to a terminal; use -o or redirect stdout")
	}

	src, name, err := openInput(cmd, input)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.MkdirTemp("", "mp4convert-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	dir, err := staging.Prepare(tmp)
	if err != nil {
		return err
	}

	req, err := dir.StageReader(name, src, flags.bitrate)
	if err != nil {
		return err
	}

	tracker := staging.NewTracker(req.ID)
	defer tracker.Release()
	tracker.Track(req.SourcePath, staging.KindInput)

	trans := transcoder.New(transcoder.Config{
		ExecutablePath: cfg.Path,
		Mode:           cfg.Mode,
		Settings:       cfg.Settings,
		Timeout:        flags.timeout,
	})
	job := trans.NewJob(transcoder.Request{
		JobID:       req.ID,
		InputPath:   req.SourcePath,
		BitrateKbps: req.BitrateKbps,
	})
	tracker.Track(job.OutputPath, staging.KindOutput)

	outcome := trans.Run(cmd.Context(), job)
	if !outcome.Succeeded() {
		fmt.Fprintln(stderr, outcome.Diagnostic())
		return fmt.Errorf("conversion of %s failed (%s)", displayName(name), outcome.Kind)
	}

	n, err := deliver(stdout, outcome.OutputPath, dest)
	if err != nil {
		return err
	}
	if dest != stdioName {
		fmt.Fprintf(stderr, "Wrote %s (%d bytes) in %v\n", dest, n, outcome.Duration.Round(time.Millisecond))
	}
	return nil
}

func openInput(cmd *cobra.Command, input string) (io.ReadCloser, string, error) {
	if input == stdioName {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}

	f, err := os.Open(input) //nolint:gosec // G304: the path is the user's own argument
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, "", fmt.Errorf("input %s is not a regular file", displayName(input))
	}
	return f, filepath.Base(input), nil
}

// resolveOutput picks the destination for the converted file. Without -o a
// file input gets a sibling named by encoder.DownloadName and stdin goes to
// stdout. An output that would replace the input is refused.
func resolveOutput(input, output string) (string, error) {
	if output == "" {
		if input == stdioName {
			return stdioName, nil
		}
		output = filepath.Join(filepath.Dir(input), encoder.DownloadName(input))
	}
	if output == stdioName || input == stdioName {
		return output, nil
	}

	inAbs, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}
	if inAbs == outAbs {
		return "", fmt.Errorf("%w: output %s would overwrite the input; pass -o", errUsage, displayName(output))
	}
	return output, nil
}

// deliver moves or copies the artifact to dest and returns its size.
func deliver(stdout io.Writer, artifact, dest string) (int64, error) {
	if dest == stdioName {
		f, err := os.Open(artifact) //nolint:gosec // G304: path produced by the transcoder
		if err != nil {
			return 0, err
		}
		defer func() { _ = f.Close() }()
		return io.Copy(stdout, f)
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(artifact, dest); err == nil {
		return info.Size(), nil
	}

	// Rename fails across filesystems; fall back to a copy.
	return copyFile(artifact, dest)
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src) //nolint:gosec // G304: path produced by the transcoder
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // G302: a regular user-visible file
	if err != nil {
		return 0, fmt.Errorf("failed to create output: %w", err)
	}

	n, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		return 0, fmt.Errorf("failed to write output: %w", err)
	}
	return n, nil
}
