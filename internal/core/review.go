package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fedragon/go-sorty/internal/fs"
	"github.com/fedragon/go-sorty/internal/journal"
	"github.com/fedragon/go-sorty/internal/metrics"
	"github.com/fedragon/go-sorty/internal/models"

	"go.uber.org/zap"
)

// ErrQuit is returned by a Decider when the user asks to end the session.
var ErrQuit = errors.New("review aborted by user")

// Item is a file under review together with its place in the session.
type Item struct {
	Media models.Media
	Index int // 1-based
	Total int
}

type Decider interface {
	Decide(ctx context.Context, item Item) (models.Decision, error)
}

type Summary struct {
	Kept    int
	Deleted int
	Skipped int
}

func (s Summary) Reviewed() int {
	return s.Kept + s.Deleted
}

type Reviewer struct {
	Decider   Decider
	Journal   *journal.Journal
	DeleteDir string
	DryRun    bool
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Review asks for a decision on every file in order and acts on it. It
// stops early with ErrQuit when the user quits; the summary then covers the
// files handled so far.
func (r *Reviewer) Review(ctx context.Context, files []models.Media) (Summary, error) {
	var sum Summary

	for i, m := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		item := Item{Media: m, Index: i + 1, Total: len(files)}
		log := r.Logger.With(zap.Int("index", item.Index), zap.Int("total", item.Total), zap.String("path", m.Path))

		if _, err := os.Stat(m.Path); err != nil {
			if os.IsNotExist(err) {
				log.Warn("File not found, skipping")
				sum.Skipped++
				_ = r.Metrics.Increment("skipped")
				continue
			}
			return sum, err
		}

		log.Info("Reviewing file", zap.Stringer("kind", m.Kind), zap.Float64("size_mb", m.SizeMB()))

		stop := r.Metrics.Record("decide")
		decision, err := r.Decider.Decide(ctx, item)
		_ = stop()
		if err != nil {
			if errors.Is(err, ErrQuit) {
				log.Info("Quit requested")
			}
			return sum, err
		}

		if err := r.act(log, m, decision); err != nil {
			return sum, err
		}

		switch decision {
		case models.Kept:
			sum.Kept++
		case models.Deleted:
			sum.Deleted++
		}
		_ = r.Metrics.Increment(decision.String())
	}

	return sum, nil
}

func (r *Reviewer) act(log *zap.Logger, m models.Media, decision models.Decision) error {
	switch decision {
	case models.Kept:
		log.Info("Kept")
	case models.Deleted:
		if r.DryRun {
			log.Info("Would have moved file", zap.String("dest", r.DeleteDir))
			break
		}

		target, err := fs.MoveToFolder(r.Metrics, m.Path, r.DeleteDir)
		if err != nil {
			return err
		}
		log.Info("Moved file", zap.String("dest", target))
	default:
		return fmt.Errorf("unknown decision %v", decision)
	}

	if _, err := r.Journal.Append(decision, m.Path); err != nil {
		return err
	}

	return nil
}
