package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/commands"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/statelock"
)

// ErrReported is returned by Execute when the failure was already written
// to stdout as a JSON envelope.
var ErrReported = errors.New("command failed")

var (
	// Global flags
	configPath    string
	statePathFlag string
	prefsPathFlag string
	workspaces    []string
	logLevel      string

	// Loaded for the running command
	current   *app
	stateLock *statelock.Lock
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "skillsync",
	Short: "skillsync - keep agent skills in sync across ecosystems",
	Long: `skillsync discovers agent skills in every supported ecosystem (agents,
claude, codex, cursor), picks one canonical source per skill and links it
into every other ecosystem directory.

Skills live globally under ~/.<ecosystem>/skills or per project under
<workspace>/.<ecosystem>/skills.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		a, err := loadApp()
		if err != nil {
			return abort(err)
		}
		current = a

		ctx := logger.WithLogger(cmd.Context(), logger.L.WithField("command", commandPath(cmd)))
		cmd.SetContext(ctx)

		if commands.Mutates(commandPath(cmd)) {
			lock, err := statelock.Acquire(a.paths.State)
			if err != nil {
				return abort(err)
			}
			stateLock = lock
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) error {
	reportedFailure = false
	defer release()

	// Subcommands keep the context of an earlier run otherwise.
	resetContext(ctx, rootCmd)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if reportedFailure && (err == nil || errors.Is(err, ErrReported)) {
		return ErrReported
	}
	return err
}

func resetContext(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		resetContext(ctx, c)
	}
}

// abort reports err and stops the command before it runs. A JSON envelope
// has already been written when handleError returns nil.
func abort(err error) error {
	if err := handleError(err); err != nil {
		return err
	}
	return ErrReported
}

func release() {
	if err := stateLock.Release(); err != nil {
		logger.L.WithError(err).Warn("failed to release state lock")
	}
	stateLock = nil
	if current != nil {
		current.close()
		current = nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().StringVar(&prefsPathFlag, "prefs", "", "Path to preferences file (overrides preferences_file in config)")
	rootCmd.PersistentFlags().StringArrayVar(&workspaces, "workspace", nil, "Treat a directory as an active workspace (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level in config)")
}

// commandPath returns the command path without the binary name.
func commandPath(cmd *cobra.Command) string {
	path := cmd.CommandPath()
	if i := strings.IndexByte(path, ' '); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// newCommand builds a command from registry metadata and attaches run.
func newCommand(id string, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := commands.GenerateCobraCommand(id)
	if cmd == nil {
		panic("command missing from registry: " + id)
	}
	cmd.RunE = run
	return cmd
}
