package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fedragon/go-sorty/internal/core"
	"github.com/fedragon/go-sorty/internal/fs"
	"github.com/fedragon/go-sorty/internal/journal"
	"github.com/fedragon/go-sorty/internal/metrics"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

const DefaultStartPercent = 10

// ErrNoFolder and ErrNoDeleteFolder are returned when the user leaves the
// matching folder prompt empty.
var (
	ErrNoFolder       = errors.New("no folder selected")
	ErrNoDeleteFolder = errors.New("no delete folder selected")
)

// PromptFunc asks the user a one-line question.
type PromptFunc func(ctx context.Context, title, placeholder string) (string, error)

type Config struct {
	Source       string
	DeleteDir    string
	StartPercent string // raw, as typed or passed on the command line
	LogFile      string
	FileTypes    []string
	DryRun       bool
}

type Runner struct {
	logger *zap.Logger
	cfg    Config
	prompt PromptFunc
	decide func(startPercent int) core.Decider
}

// NewRunner wires a review session. decide builds the decider once the
// start percentage is known.
func NewRunner(logger *zap.Logger, cfg Config, prompt PromptFunc, decide func(startPercent int) core.Decider) *Runner {
	return &Runner{
		logger: logger,
		cfg:    cfg,
		prompt: prompt,
		decide: decide,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		r.logger.Info("Elapsed time", zap.Duration("elapsed", time.Since(start)))
	}()

	if r.cfg.DryRun {
		r.logger.Info("Running in DRY-RUN mode: deleted files will not be moved")
	}

	source, err := r.folder(ctx, r.cfg.Source, "Select folder to review videos and images", ErrNoFolder)
	if err != nil {
		return err
	}
	deleteDir, err := r.folder(ctx, r.cfg.DeleteDir, "Select folder for deleted files", ErrNoDeleteFolder)
	if err != nil {
		return err
	}
	if deleteDir == source {
		r.logger.Warn("Delete folder is the review folder: deleted files at its top level stay where they are",
			zap.String("folder", source))
	}

	raw := r.cfg.StartPercent
	if raw == "" {
		raw, err = r.prompt(ctx,
			fmt.Sprintf("Enter the percentage (0-100) of video length to start from [default: %d%%]", DefaultStartPercent),
			strconv.Itoa(DefaultStartPercent))
		if err != nil {
			return err
		}
	}
	startPercent, err := ParseStartPercent(raw)
	if err != nil {
		r.logger.Warn("Invalid input, using default percentage", zap.Error(err), zap.Int("default", DefaultStartPercent))
	}

	logFile, err := homedir.Expand(r.cfg.LogFile)
	if err != nil {
		return err
	}

	fileTypes := r.cfg.FileTypes
	if len(fileTypes) == 0 {
		fileTypes = fs.DefaultTypes()
	}

	mx := metrics.NewMetrics()
	defer mx.Log(r.logger)

	r.logger.Info("Discovering media", zap.String("source", source), zap.Strings("file_types", fileTypes))
	files, err := fs.Collect(fs.Walk(mx, source, fileTypes, deleteDir))
	if err != nil {
		return fmt.Errorf("unable to read %v: %w", source, err)
	}
	if len(files) == 0 {
		r.logger.Info("No media found", zap.String("source", source))
		return nil
	}
	r.logger.Info("Found media", zap.Int("count", len(files)))

	reviewer := &core.Reviewer{
		Decider:   r.decide(startPercent),
		Journal:   journal.New(logFile),
		DeleteDir: deleteDir,
		DryRun:    r.cfg.DryRun,
		Metrics:   mx,
		Logger:    r.logger,
	}

	sum, err := reviewer.Review(ctx, files)
	r.logger.Info("Review finished",
		zap.Int("kept", sum.Kept),
		zap.Int("deleted", sum.Deleted),
		zap.Int("skipped", sum.Skipped),
		zap.Int("remaining", len(files)-sum.Reviewed()-sum.Skipped),
		zap.String("log_file", logFile),
	)
	if errors.Is(err, core.ErrQuit) {
		return nil
	}

	return err
}

func (r *Runner) folder(ctx context.Context, value, title string, none error) (string, error) {
	if value == "" {
		var err error
		if value, err = r.prompt(ctx, title, "path/to/folder"); err != nil {
			return "", err
		}
	}
	if value == "" {
		return "", none
	}

	return ResolvePath(value)
}

// ResolvePath expands a leading ~ and makes path absolute.
func ResolvePath(path string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// ParseStartPercent reads a percentage between 0 and 100. Empty input means
// the default; anything else that is not a valid percentage also yields the
// default, along with an error describing the problem.
func ParseStartPercent(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return DefaultStartPercent, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultStartPercent, fmt.Errorf("%q is not a number", s)
	}
	if n < 0 || n > 100 {
		return DefaultStartPercent, fmt.Errorf("percentage %d out of range", n)
	}

	return n, nil
}
