package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/launch"
	"github.com/T0astBread/multifox/internal/lock"
)

// Exit codes, stable for scripting.
const (
	exitGeneric        = 1
	exitUnknownName    = 2
	exitAlreadyRunning = 3
	exitNotRunning     = 4
	exitLaunchFailed   = 5
)

var (
	flagConfig   string
	flagLogLevel string

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "multifox",
	Short: "Run multiple isolated browser instances",
	Long: "multifox launches named browser instances, each bound to its own " +
		"profile directory, so several copies of Firefox, Tor Browser, or " +
		"LibreWolf can run side by side.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the config file (default: search the XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error (default: info, or MULTIFOX_LOG)")
}

func setupLogging() error {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("MULTIFOX_LOG")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().
		Logger()
	return nil
}

func exitCodeFor(err error) int {
	var (
		unknown    *instance.UnknownError
		running    *lock.AlreadyRunningError
		notRunning *instance.NotRunningError
		launchErr  *launch.Error
	)
	switch {
	case errors.As(err, &unknown):
		return exitUnknownName
	case errors.As(err, &running):
		return exitAlreadyRunning
	case errors.As(err, &notRunning):
		return exitNotRunning
	case errors.As(err, &launchErr):
		return exitLaunchFailed
	}
	return exitGeneric
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "multifox: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
