package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/fedragon/go-sorty/internal"
	"github.com/fedragon/go-sorty/internal/core"
	"github.com/fedragon/go-sorty/internal/fs"
	"github.com/fedragon/go-sorty/internal/ui"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "sorty",
		Usage: "review a folder of videos and images, keeping or deleting each one",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "folder to review (prompted for when missing)",
				EnvVars: []string{"SORTY_SOURCE"},
			},
			&cli.StringFlag{
				Name:    "delete-dir",
				Aliases: []string{"d"},
				Usage:   "folder deleted files are moved to (prompted for when missing)",
				EnvVars: []string{"SORTY_DELETE_DIR"},
			},
			&cli.StringFlag{
				Name:    "start",
				Usage:   "percentage (0-100) of video length to start playback from",
				EnvVars: []string{"SORTY_START_PERCENT"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "append-only log of review decisions",
				Value:   "review_log.txt",
				EnvVars: []string{"SORTY_LOG_FILE"},
			},
			&cli.StringSliceFlag{
				Name:  "file-types",
				Usage: "file extensions to review",
				Value: cli.NewStringSlice(fs.DefaultTypes()...),
			},
			&cli.IntFlag{
				Name:    "skip",
				Usage:   "percentage of video length to skip forward with 'e'",
				Value:   10,
				EnvVars: []string{"SORTY_SKIP_PERCENT"},
			},
			&cli.Float64Flag{
				Name:  "fps",
				Usage: "maximum playback frame rate",
				Value: 12,
			},
			&cli.IntFlag{
				Name:  "max-width",
				Usage: "maximum preview width in terminal columns (0: terminal width)",
			},
			&cli.IntFlag{
				Name:  "max-height",
				Usage: "maximum preview height in terminal rows (0: terminal height)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "log decisions without moving any file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level in a human friendly format",
			},
			&cli.StringSliceFlag{
				Name:  "log-output",
				Usage: "where diagnostic logs are written",
				Value: cli.NewStringSlice("stderr"),
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("verbose"), c.StringSlice("log-output"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, err := uuid.NewV7()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("session", session.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	skip := c.Int("skip")
	if skip <= 0 || skip > 100 {
		logger.Warn("Invalid skip percentage, using default", zap.Int("skip", skip))
		skip = 10
	}

	cfg := internal.Config{
		Source:       c.String("source"),
		DeleteDir:    c.String("delete-dir"),
		StartPercent: c.String("start"),
		LogFile:      c.String("log-file"),
		FileTypes:    c.StringSlice("file-types"),
		DryRun:       c.Bool("dry-run"),
	}

	decide := func(startPercent int) core.Decider {
		return ui.NewDecider(ui.Options{
			StartPercent: startPercent,
			SkipPercent:  skip,
			FPS:          c.Float64("fps"),
			MaxCols:      c.Int("max-width"),
			MaxRows:      c.Int("max-height"),
			Profile:      termenv.EnvColorProfile(),
		}, logger)
	}

	exit(logger, os.Stdout, internal.NewRunner(logger, cfg, ui.Prompt, decide).Run(ctx))
	return nil
}

// exit reports how a session ended: an unanswered folder prompt is a normal
// exit, anything else is fatal.
func exit(logger *zap.Logger, out io.Writer, err error) {
	switch {
	case errors.Is(err, internal.ErrNoFolder):
		fmt.Fprintln(out, "No folder selected. Exiting...")
	case errors.Is(err, internal.ErrNoDeleteFolder):
		fmt.Fprintln(out, "No delete folder selected. Exiting...")
	case err != nil:
		logger.Fatal("Review session failed", zap.Error(err))
	}
}

func newLogger(verbose bool, outputs []string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if len(outputs) > 0 {
		cfg.OutputPaths = outputs
	}

	return cfg.Build()
}
