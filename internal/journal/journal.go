// Package journal appends review decisions to a flat text log.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fedragon/go-sorty/internal/models"
)

type Journal struct {
	path string
	now  func() time.Time
}

func New(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

func (j *Journal) Path() string {
	return j.path
}

// Append writes one line for decision on path. The file and its parent
// directory are created on first use; existing content is never touched.
func (j *Journal) Append(decision models.Decision, path string) (models.LogEntry, error) {
	entry := models.LogEntry{
		Timestamp: j.now(),
		Decision:  decision,
		Path:      path,
	}

	if dir := filepath.Dir(j.path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return entry, fmt.Errorf("unable to create log directory %v: %w", dir, err)
		}
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return entry, fmt.Errorf("unable to open review log %v: %w", j.path, err)
	}

	if _, err := fmt.Fprintln(f, entry.String()); err != nil {
		_ = f.Close()
		return entry, fmt.Errorf("unable to write review log %v: %w", j.path, err)
	}

	return entry, f.Close()
}
