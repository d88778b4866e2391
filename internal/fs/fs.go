package fs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedragon/go-sorty/internal/metrics"
	"github.com/fedragon/go-sorty/internal/models"

	"lukechampine.com/blake3"
)

const (
	AVI  = ".avi"
	MKV  = ".mkv"
	MOV  = ".mov"
	MP4  = ".mp4"
	BMP  = ".bmp"
	GIF  = ".gif"
	JPEG = ".jpeg"
	JPG  = ".jpg"
	PNG  = ".png"
)

var (
	VideoTypes = []string{MP4, AVI, MOV, MKV}
	ImageTypes = []string{JPG, JPEG, PNG, BMP, GIF}
)

// DefaultTypes returns every extension the reviewer knows how to preview.
func DefaultTypes() []string {
	types := make([]string, 0, len(VideoTypes)+len(ImageTypes))
	types = append(types, VideoTypes...)
	return append(types, ImageTypes...)
}

// KindOf classifies path by its extension, case-insensitively.
func KindOf(path string) (models.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range VideoTypes {
		if ext == t {
			return models.Video, true
		}
	}
	for _, t := range ImageTypes {
		if ext == t {
			return models.Image, true
		}
	}
	return models.Image, false
}

// Hash returns the blake3 digest of the file at path.
func Hash(mx *metrics.Metrics, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stop := mx.Record("hash")
	defer func() { _ = stop() }()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Walk streams every file under root whose extension is in fileTypes.
// Directories listed in exclude are not descended into. A walk error is
// delivered as the last element of the stream.
func Walk(mx *metrics.Metrics, root string, fileTypes []string, exclude ...string) <-chan models.Media {
	media := make(chan models.Media)

	go func() {
		defer close(media)

		typesMap := make(map[string]int)
		for _, t := range fileTypes {
			typesMap[strings.ToLower(t)] = 1
		}

		excluded := make(map[string]bool, len(exclude))
		for _, x := range exclude {
			if x != "" {
				excluded[filepath.Clean(x)] = true
			}
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			_ = mx.Increment("walk")

			if d.IsDir() {
				if path != root && excluded[filepath.Clean(path)] {
					return filepath.SkipDir
				}
				return nil
			}

			ext := strings.ToLower(filepath.Ext(d.Name()))
			if typesMap[ext] == 0 {
				return nil
			}

			kind, ok := KindOf(path)
			if !ok {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			media <- models.Media{
				Path: path,
				Kind: kind,
				Size: info.Size(),
			}

			return nil
		})

		if err != nil {
			media <- models.Media{Err: err}
		}
	}()

	return media
}

// Collect drains a Walk stream, stopping at the first error.
func Collect(media <-chan models.Media) ([]models.Media, error) {
	var all []models.Media
	var firstErr error

	for m := range media {
		if firstErr != nil {
			continue
		}
		if m.Err != nil {
			firstErr = m.Err
			continue
		}
		all = append(all, m)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}
