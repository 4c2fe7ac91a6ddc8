package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/karrick/rollout"
	"github.com/karrick/rollout/internal/config"
	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// fatalError marks an I/O failure that happened after the arguments
// were accepted.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// run executes the command with args, and returns the process exit
// status. Argument errors print a diagnostic followed by the usage text
// to stderr. Fatal errors print nothing unless logging was enabled.
func run(args []string, stdin io.Reader, stderr io.Writer) int {
	cmd := newRootCommand(stdin, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	var fe *fatalError
	if errors.As(err, &fe) {
		return exitFatal
	}

	fmt.Fprintln(stderr, err)
	fmt.Fprintln(stderr)
	fmt.Fprint(stderr, cmd.UsageString())
	return exitUsage
}

func newRootCommand(stdin io.Reader, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollout [OPTIONS] <dir>",
		Short: "A rolling logfile appender",
		Long: `A rolling logfile appender

Takes stdin and appends to a file named current in <dir>. Once current
reaches the specified size, it is renamed at the next newline to
{prefix}{n}.log, where n is an unpadded number starting at 1, and only
the newest rotated files are kept.

Any error deemed unrecoverable causes an immediate exit with status 1.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "YAML, TOML, or JSON config file")
	flags.Uint64P("size", "s", config.DefaultSizeKB, "Max log size in KB")
	flags.UintP("keep", "k", config.DefaultKeep, "Max number of rotated logs to keep")
	flags.BoolP("rotate-on-start", "r", false, "Rotate to a new log file on startup")
	flags.StringP("prefix", "p", "", "Log file prefix")
	flags.Bool("ignore-scan-errors", false, "Start with no history when the directory cannot be listed")
	flags.Bool("sync", false, "Sync the current log file to disk before rotating it")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.String("log-level", config.DefaultLogLevel, "Diagnostics level: trace|debug|info|warn|error|off")
	flags.Bool("log-json", false, "Write diagnostics as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, args)
		if err != nil {
			return err
		}
		if err = os.MkdirAll(cfg.Directory, 0755); err != nil {
			return fmt.Errorf("unable to find or create directory '%s'", cfg.Directory)
		}
		if err = rotate(cfg, cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
			return &fatalError{err: err}
		}
		return nil
	}

	return cmd
}

// resolveConfig layers defaults, the config file, the environment, then
// any flag given on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.Default()

	if path, _ := flags.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := config.FromEnv(cfg); err != nil {
		return nil, err
	}

	if len(args) == 1 {
		cfg.Directory = args[0]
	}
	if flags.Changed("size") {
		cfg.SizeKB, _ = flags.GetUint64("size")
	}
	if flags.Changed("keep") {
		cfg.Keep, _ = flags.GetUint("keep")
	}
	if flags.Changed("rotate-on-start") {
		cfg.RotateOnStart, _ = flags.GetBool("rotate-on-start")
	}
	if flags.Changed("prefix") {
		cfg.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("ignore-scan-errors") {
		cfg.IgnoreScanErrors, _ = flags.GetBool("ignore-scan-errors")
	}
	if flags.Changed("sync") {
		cfg.Sync, _ = flags.GetBool("sync")
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rotate copies stdin into the rotated log files described by cfg
// until stdin is exhausted.
func rotate(cfg *config.Config, stdin io.Reader, stderr io.Writer) error {
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return err
	}

	var metrics *rollout.Metrics
	if cfg.MetricsFile != "" {
		metrics = rollout.NewMetrics(cfg.Prefix, cfg.MetricsFile)
	}

	keep := -1 // rollout.Config reads zero as the default
	if cfg.Keep > 0 {
		keep = math.MaxInt
		if uint64(cfg.Keep) < math.MaxInt {
			keep = int(cfg.Keep)
		}
	}

	r, err := rollout.NewRotator(&rollout.Config{
		Directory:        cfg.Directory,
		Prefix:           cfg.Prefix,
		MaxBytes:         cfg.MaxBytes(),
		Keep:             keep,
		RotateOnStart:    cfg.RotateOnStart,
		IgnoreScanErrors: cfg.IgnoreScanErrors,
		SyncOnRotate:     cfg.Sync,
		Logger:           logger,
		Metrics:          metrics,
	})
	if err != nil {
		logger.Error("cannot start", "error", err)
		return err
	}

	nr, err := r.ReadFrom(stdin)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("cannot append", "bytes", nr, "error", err)
		return err
	}

	logger.Debug("end of input", "bytes", nr)
	return nil
}
