package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
	Database string // default run log for commands that take one

	// LogWriter receives engine logs. Defaults to the command's stderr.
	LogWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command with defaults from the environment.
func NewRootCommand() *cobra.Command {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = Config{Format: "text", LogLevel: "warn"}
	}
	return NewRootCommandWithConfig(cfg)
}

// NewRootCommandWithConfig creates the root command for the symbolic CLI.
func NewRootCommandWithConfig(cfg Config) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "symbolic",
		Short: "Ground and apply PDDL actions",
		Long: `Compile PDDL-style domains and problems written in CUE, apply grounded
actions to their states, and record every step in a replayable run log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := parseLogLevel(opts.LogLevel); err != nil {
				return err
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "engine log level (debug|info|warn|error)")
	opts.Database = cfg.Database

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Logger builds the engine logger: a text handler on the log writer at the
// configured level, lowered to debug by --verbose.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	level, err := parseLogLevel(o.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	w := o.LogWriter
	if w == nil {
		w = cmd.ErrOrStderr()
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
