package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"video-converter/internal/startup"
	"video-converter/internal/transcoder"
)

// errUsage marks errors caused by how the command was invoked.
var errUsage = errors.New("usage error")

// stdioName is the argument that selects stdin or stdout.
const stdioName = "-"

type rootOptions struct {
	// stdoutIsTerminal stops binary output from being dumped on a tty.
	stdoutIsTerminal bool
}

func newRootCommand(opts rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mp4convert",
		Short:         "Convert videos to MP4 with the configured encoder",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// exactArgs is cobra.ExactArgs with the error marked as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the configured encoder can be run",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := startup.LoadEncoderConfig()
			if err != nil {
				return err
			}

			version, err := transcoder.CheckEncoder(cmd.Context(), cfg.Path, cfg.Mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Encoder: %s (%s mode)\n", version, cfg.Mode)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "mp4convert %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return nil
		},
	}
}

// displayName keeps user input printable in messages.
func displayName(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, s)
}
