package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
)

// Fit returns the largest dimensions with the aspect ratio of w x h that fit
// inside maxW x maxH. Non-positive inputs yield 0 x 0.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}

	// compare maxW/w against maxH/h without floating point
	var nw, nh int64
	if int64(maxW)*int64(h) <= int64(maxH)*int64(w) {
		nw = int64(maxW)
		nh = int64(h) * int64(maxW) / int64(w)
	} else {
		nh = int64(maxH)
		nw = int64(w) * int64(maxH) / int64(h)
	}

	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	return int(nw), int(nh)
}

// LoadImage decodes a JPEG, PNG, GIF or BMP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %v: %w", path, err)
	}

	return img, nil
}

// Scale resizes img to fit inside maxW x maxH.
func Scale(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxW, maxH)
	if w == 0 || h == 0 {
		return img
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

// TakenAt reads the EXIF capture time of the file at path.
func TakenAt(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
