package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/muesli/termenv"
)

const (
	halfBlock = "▀"
	shades    = " .:-=+*#%@"
)

// Render draws img with one terminal cell per two vertically stacked
// pixels: the upper pixel is the foreground of an upper half block, the
// lower pixel its background. Without colour support a luminance ramp is
// used instead.
func Render(img image.Image, profile termenv.Profile) string {
	b := img.Bounds()
	var sb strings.Builder

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}

		hasBottom := y+1 < b.Max.Y
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.At(x, y)
			bottom := top
			if hasBottom {
				bottom = img.At(x, y+1)
			}

			if profile == termenv.Ascii {
				sb.WriteByte(shade(top, bottom))
				continue
			}

			sb.WriteString(termenv.CSI)
			sb.WriteString(profile.Color(hex(top)).Sequence(false))
			if hasBottom {
				sb.WriteByte(';')
				sb.WriteString(profile.Color(hex(bottom)).Sequence(true))
			}
			sb.WriteByte('m')
			sb.WriteString(halfBlock)
		}

		if profile != termenv.Ascii {
			sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
		}
	}

	return sb.String()
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func shade(top, bottom color.Color) byte {
	l := (luma(top) + luma(bottom)) / 2
	return shades[l*uint32(len(shades)-1)/0xffff]
}

// luma is the Rec. 601 luminance of c, in the 0..0xffff range.
func luma(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (299*r + 587*g + 114*b) / 1000
}

// viewport returns the pixel box available for a preview in a terminal of
// the given size, keeping reserved rows free for the header and key bar.
// maxCols and maxRows cap the box when positive.
func viewport(cols, rows, reserved, maxCols, maxRows int) (int, int) {
	rows -= reserved
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	return cols, rows * 2
}
