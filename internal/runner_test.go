package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fedragon/go-sorty/internal/core"
	"github.com/fedragon/go-sorty/internal/models"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseStartPercent(t *testing.T) {
	cases := []struct {
		in       string
		expected int
		invalid  bool
	}{
		{in: "", expected: 10},
		{in: "  ", expected: 10},
		{in: "0", expected: 0},
		{in: "25", expected: 25},
		{in: " 50% ", expected: 50},
		{in: "100", expected: 100},
		{in: "101", expected: 10, invalid: true},
		{in: "-1", expected: 10, invalid: true},
		{in: "ten", expected: 10, invalid: true},
		{in: "2.5", expected: 10, invalid: true},
	}

	for _, c := range cases {
		got, err := ParseStartPercent(c.in)
		if got != c.expected || (err != nil) != c.invalid {
			t.Errorf("ParseStartPercent(%q)\n\tExpected %v (invalid: %v) but got %v (%v) instead", c.in, c.expected, c.invalid, got, err)
		}
	}
}

func TestResolvePath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ResolvePath("~/Pictures")
	if err != nil {
		t.Fatal(err)
	}
	if expected := filepath.Join(home, "Pictures"); got != expected {
		t.Errorf("Expected %v but got %v instead", expected, got)
	}

	got, err = ResolvePath("relative")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("Expected an absolute path but got %v instead", got)
	}
}

type answers []string

func (a *answers) prompt(context.Context, string, string) (string, error) {
	if len(*a) == 0 {
		return "", errors.New("unexpected prompt")
	}
	next := (*a)[0]
	*a = (*a)[1:]
	return next, nil
}

type deleteAll struct {
	seen []string
}

func (d *deleteAll) Decide(_ context.Context, item core.Item) (models.Decision, error) {
	d.seen = append(d.seen, filepath.Base(item.Media.Path))
	return models.Deleted, nil
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "review")
	deleteDir := filepath.Join(source, "trash")
	logFile := filepath.Join(root, "review_log.txt")

	writeFiles(t, source, "a.mp4", "b.JPG", "notes.txt", "sub/c.gif", "trash/old.png")

	prompts := &answers{source, deleteDir, "not a number"}
	decider := &deleteAll{}
	var startPercent int

	obs, logs := observer.New(zap.InfoLevel)
	r := NewRunner(zap.New(obs), Config{LogFile: logFile}, prompts.prompt, func(p int) core.Decider {
		startPercent = p
		return decider
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if startPercent != DefaultStartPercent {
		t.Errorf("Expected the default start percentage but got %v instead", startPercent)
	}
	if logs.FilterMessage("Invalid input, using default percentage").Len() != 1 {
		t.Errorf("Expected a warning about the invalid percentage")
	}

	expected := []string{"a.mp4", "b.JPG", "c.gif"}
	if strings.Join(decider.seen, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected %v to be reviewed but got %v instead", expected, decider.seen)
	}

	for _, name := range []string{"a.mp4", "b.JPG", "c.gif", "old.png"} {
		if _, err := os.Stat(filepath.Join(deleteDir, name)); err != nil {
			t.Errorf("Expected %v in the delete folder: %v", name, err)
		}
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"); len(lines) != 3 {
		t.Errorf("Expected 3 log lines but got %q instead", lines)
	}
}

func TestRunWithoutFolder(t *testing.T) {
	prompts := &answers{""}
	r := NewRunner(zap.NewNop(), Config{LogFile: "unused.txt"}, prompts.prompt, func(int) core.Decider {
		t.Fatal("no review expected")
		return nil
	})

	if err := r.Run(context.Background()); !errors.Is(err, ErrNoFolder) {
		t.Errorf("Expected %v but got %v instead", ErrNoFolder, err)
	}
}

func TestRunUsesConfiguredValues(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.png")

	var startPercent int
	r := NewRunner(zap.NewNop(), Config{
		Source:       root,
		DeleteDir:    filepath.Join(root, "deleted"),
		StartPercent: "35",
		LogFile:      filepath.Join(root, "log.txt"),
		DryRun:       true,
	}, (&answers{}).prompt, func(p int) core.Decider {
		startPercent = p
		return &deleteAll{}
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if startPercent != 35 {
		t.Errorf("Expected 35 but got %v instead", startPercent)
	}
	if _, err := os.Stat(filepath.Join(root, "a.png")); err != nil {
		t.Errorf("Expected the file to stay in place in dry-run mode: %v", err)
	}
}

func TestRunWithoutDeleteFolder(t *testing.T) {
	prompts := &answers{t.TempDir(), ""}
	r := NewRunner(zap.NewNop(), Config{LogFile: "unused.txt"}, prompts.prompt, func(int) core.Decider {
		t.Fatal("no review expected")
		return nil
	})

	if err := r.Run(context.Background()); !errors.Is(err, ErrNoDeleteFolder) {
		t.Errorf("Expected %v but got %v instead", ErrNoDeleteFolder, err)
	}
}

func TestRunDeletingIntoTheReviewedFolder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.png", "clip.mp4")
	logFile := filepath.Join(t.TempDir(), "log.txt")

	obs, logs := observer.New(zap.InfoLevel)
	decider := &deleteAll{}
	r := NewRunner(zap.New(obs), Config{
		Source:       root,
		DeleteDir:    root,
		StartPercent: "10",
		LogFile:      logFile,
	}, (&answers{}).prompt, func(int) core.Decider {
		return decider
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(decider.seen) != 2 {
		t.Errorf("Expected 2 files to be reviewed but got %v instead", decider.seen)
	}
	for _, name := range []string{"a.png", "clip.mp4"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			t.Errorf("Expected %v to survive: %v", name, err)
			continue
		}
		if string(data) != name {
			t.Errorf("Expected %v to keep its content but got %q instead", name, data)
		}
	}
	if logs.FilterMessage("Delete folder is the review folder: deleted files at its top level stay where they are").Len() != 1 {
		t.Errorf("Expected a warning about the shared folder")
	}
}
