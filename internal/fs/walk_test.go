package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fedragon/go-sorty/internal/metrics"
	"github.com/fedragon/go-sorty/internal/models"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func touchB(b *testing.B, path, content string) {
	b.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		b.Fatal(err)
	}
}

func TestWalk(t *testing.T) {
	mx := metrics.NoMetrics()
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.jpg"), "a")
	touch(t, filepath.Join(root, "b.MP4"), "b")
	touch(t, filepath.Join(root, "notes.txt"), "c")
	touch(t, filepath.Join(root, "nested", "c.png"), "d")
	touch(t, filepath.Join(root, "nested", "deeper", "d.mkv"), "e")
	touch(t, filepath.Join(root, "deleted", "e.gif"), "f")

	cases := []struct {
		name      string
		root      string
		fileTypes []string
		exclude   []string
		expected  int
	}{
		{
			name:      "walk returns all media in a directory and all its subdirectories",
			root:      root,
			fileTypes: DefaultTypes(),
			expected:  5,
		},
		{
			name:      "walk only returns the requested file types",
			root:      root,
			fileTypes: []string{JPG, MP4},
			expected:  2,
		},
		{
			name:      "walk does not descend into excluded directories",
			root:      root,
			fileTypes: DefaultTypes(),
			exclude:   []string{filepath.Join(root, "deleted")},
			expected:  4,
		},
		{
			name:      "walk returns media in a subdirectory",
			root:      filepath.Join(root, "nested"),
			fileTypes: DefaultTypes(),
			expected:  2,
		},
	}

	for _, c := range cases {
		var count int
		for i := range Walk(mx, c.root, c.fileTypes, c.exclude...) {
			if i.Err != nil {
				t.Error(i.Err)
			}

			count++
		}

		if count != c.expected {
			t.Errorf("%v\n\tExpected %v but got %v instead", c.name, c.expected, count)
		}
	}
}

func TestWalkFillsKindAndSize(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "clip.mov"), "12345")
	touch(t, filepath.Join(root, "photo.jpeg"), "12")

	files, err := Collect(Walk(metrics.NoMetrics(), root, DefaultTypes()))
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("Expected 2 files but got %v instead", len(files))
	}

	want := map[string]models.Media{
		"clip.mov":   {Kind: models.Video, Size: 5},
		"photo.jpeg": {Kind: models.Image, Size: 2},
	}
	for _, f := range files {
		w := want[filepath.Base(f.Path)]
		if f.Kind != w.Kind || f.Size != w.Size {
			t.Errorf("%v\n\tExpected %v/%v but got %v/%v instead", f.Path, w.Kind, w.Size, f.Kind, f.Size)
		}
	}
}

func TestCollectKeepsLexicalOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.jpg"), "b")
	touch(t, filepath.Join(root, "a", "z.jpg"), "z")
	touch(t, filepath.Join(root, "a.jpg"), "a")

	files, err := Collect(Walk(metrics.NoMetrics(), root, DefaultTypes()))
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		filepath.Join(root, "a", "z.jpg"),
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "b.jpg"),
	}
	for i, f := range files {
		if f.Path != expected[i] {
			t.Errorf("Expected %v at %d but got %v instead", expected[i], i, f.Path)
		}
	}
}

func TestCollectReturnsWalkError(t *testing.T) {
	_, err := Collect(Walk(metrics.NoMetrics(), filepath.Join(t.TempDir(), "missing"), DefaultTypes()))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error but got %v instead", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		path string
		kind models.Kind
		ok   bool
	}{
		{"a.mp4", models.Video, true},
		{"a.AVI", models.Video, true},
		{"a.Mov", models.Video, true},
		{"a.mkv", models.Video, true},
		{"a.jpg", models.Image, true},
		{"a.JPEG", models.Image, true},
		{"a.png", models.Image, true},
		{"a.bmp", models.Image, true},
		{"a.gif", models.Image, true},
		{"a.txt", models.Image, false},
		{"mp4", models.Image, false},
	}

	for _, c := range cases {
		kind, ok := KindOf(c.path)
		if ok != c.ok || (ok && kind != c.kind) {
			t.Errorf("%v\n\tExpected %v/%v but got %v/%v instead", c.path, c.kind, c.ok, kind, ok)
		}
	}
}
