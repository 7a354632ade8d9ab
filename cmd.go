package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
)

// execute configures the root command and then runs it with the given
// context and arguments.
func execute(ctx context.Context, args []string) error {
	cmd := configure()
	opts := []cli.ParseOption{
		cli.WithEnvVarPrefix("GW_INSTALL"),
	}

	if err := cmd.Parse(args, opts...); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: parse arguments: %w", ErrUsage, err)
	}

	if err := cmd.Run(ctx); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return nil
}

// configure returns the root command.
func configure() *cli.Command {
	return newInstallCmd()
}

func initLogging(w io.Writer, level string, format string) {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, &opts)
	case "json":
		handler = slog.NewJSONHandler(w, &opts)
	default:
		handler = slog.NewTextHandler(w, &opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

type rootCmd struct {
	ConfigFile string

	logLevel  string
	logFormat string
	debug     bool
}

func (c *rootCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", "", "An optional configuration file.")

	fs.StringVar(&c.logLevel, "log-level", "warn", "The log level.")
	fs.StringVar(&c.logFormat, "log-format", "text", "The log format ('text' or 'json').")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug mode.")
}

func (c *rootCmd) initLogging() {
	level := c.logLevel
	if c.debug {
		level = "debug"
	}
	initLogging(os.Stderr, level, c.logFormat)
}
