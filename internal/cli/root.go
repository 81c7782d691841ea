// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/extract/internal/app"
	"github.com/law-makers/extract/internal/config"
	"github.com/law-makers/extract/internal/fatal"
	"github.com/law-makers/extract/internal/ui"
)

// RunFunc performs the extraction for a validated configuration.
type RunFunc func(ctx context.Context, cfg *config.Config) error

// rootCmd represents the extract command
var rootCmd = newRootCmd(runExtract)

// Execute parses os.Args, runs the extraction and terminates the process.
// This is called by main.main(). Every error ends here: it is logged and the
// process exits non-zero.
func Execute(ctx context.Context) {
	initLogger()
	err := execute(ctx, rootCmd, os.Args[1:])
	fatal.Report(log.Logger, err)
}

// initLogger installs the console logger used until the logging lifecycle
// takes over, and again after it hands back.
func initLogger() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

func newRootCmd(run RunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [OPTIONS] -f data_file [-o dumpfile]",
		Short: "Recover records from a raw data file or block device",
		Long: `Extract walks a raw data file or block device extent by extent and writes
every record it recovers as text memcached protocol messages.

The output file must not already exist.`,
		Example: `  # Dump a data file to the default output file
  extract -f /var/lib/db/data_file

  # Read a block device, overriding the block and extent sizes
  extract -f /dev/sdb --force-block-size 4096 --force-extent-size 2097152 -o dump.txt

  # Log to a file instead of stderr
  extract -f data_file -l extract.log`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), args)
			if err != nil {
				return err
			}
			log.Debug().
				Str("input", cfg.InputFile).
				Str("output", cfg.OutputFile).
				Str("log_file", cfg.LogFile).
				Msg("Configuration loaded")
			return run(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		printUsage(c.OutOrStdout(), c)
	})
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		printUsage(c.ErrOrStderr(), c)
		return nil
	})
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), ui.Error(err.Error()))
		printUsage(c.ErrOrStderr(), c)
		return fatal.Usage("%v", err)
	})

	return cmd
}

// execute runs cmd with args. A help request is reported as a usage error
// so the process exits non-zero, matching malformed options.
func execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return err
	}
	if help, err := cmd.Flags().GetBool(config.FlagHelp); err == nil && help {
		return fatal.Usage("help requested")
	}
	return nil
}

func runExtract(ctx context.Context, cfg *config.Config) error {
	// The progress bar shares stderr with the console logger, so it is only
	// shown when log lines go to a file.
	var progress io.Writer
	if cfg.LogFile != "" {
		progress = os.Stderr
	}

	application, err := app.New(cfg, progress)
	if err != nil {
		return fatal.Runtime(err, "failed to initialize")
	}
	return application.Run(ctx)
}

// printUsage writes the usage text with color formatting
func printUsage(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintf(w, "\n%s\n", ui.Heading("Usage"))
	fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)

	if cmd.Long != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Long)
	}

	fmt.Fprintf(w, "\n%s\n", ui.Heading("Options"))
	printFlagsTo(w, cmd.Flags().FlagUsages())

	if cmd.HasExample() {
		fmt.Fprintf(w, "\n%s\n", ui.Heading("Examples"))
		for _, example := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(example)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") {
				fmt.Fprintf(w, "\n  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
			} else {
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			}
		}
	}
	fmt.Fprintln(w)
}

// printFlagsTo prints flag usages with color formatting to the specified writer
func printFlagsTo(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	// Find maximum flag length for alignment, at least 28 columns
	maxFlagLen := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart := strings.TrimSpace(strings.SplitN(trimmed, "  ", 2)[0])
			if len(flagPart) > maxFlagLen {
				maxFlagLen = len(flagPart)
			}
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		trimmed := strings.TrimLeft(line, " ")
		parts := strings.SplitN(trimmed, "  ", 2)
		if !strings.HasPrefix(trimmed, "-") || len(parts) != 2 {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}

		flagPart := strings.TrimSpace(parts[0])
		descPart := strings.TrimSpace(parts[1])
		padding := strings.Repeat(" ", maxFlagLen-len(flagPart)+2)

		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorGreen, flagPart, ui.ColorReset,
			padding,
			ui.ColorDim, descPart, ui.ColorReset)
	}
}
