package ui

import (
	"context"
	"fmt"

	"github.com/fedragon/go-sorty/internal/core"
	"github.com/fedragon/go-sorty/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Decider previews one file at a time full screen and waits for a key.
type Decider struct {
	opts    Options
	logger  *zap.Logger
	program []tea.ProgramOption
}

func NewDecider(opts Options, logger *zap.Logger, programOpts ...tea.ProgramOption) *Decider {
	return &Decider{
		opts:    opts,
		logger:  logger,
		program: programOpts,
	}
}

func (d *Decider) Decide(ctx context.Context, item core.Item) (models.Decision, error) {
	// cancelling kills any ffmpeg process the preview left behind
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newPreviewModel(ctx, item, d.opts)
	defer m.streams.closeAll()

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, d.program...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return models.Kept, fmt.Errorf("preview of %v failed: %w", item.Media.Path, err)
	}

	out := final.(*previewModel)
	if out.outcome.Err != nil {
		d.logger.Warn("Preview unavailable", zap.String("path", item.Media.Path), zap.Error(out.outcome.Err))
	}
	if !out.done || out.outcome.Quit {
		return models.Kept, core.ErrQuit
	}

	return out.outcome.Decision, nil
}
