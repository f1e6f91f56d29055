package render

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphW = 7
	lineH  = 13
)

// AddLabel writes text on a dark band at x, y, wrapping at maxW pixels.
func AddLabel(img *image.RGBA, x, y, maxW int, text string) {
	lines := wrap(text, max(1, (maxW-4)/glyphW))
	if len(lines) == 0 {
		return
	}
	band := image.Rect(x, y, x+maxW, y+len(lines)*lineH+4)
	draw.Draw(img, band, &image.Uniform{C: color.RGBA{R: 10, G: 10, B: 10, A: 200}}, image.Point{}, draw.Over)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0xE3, G: 0xD0, B: 0x95, A: 255}),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(y + 12 + i*lineH)}
		d.DrawString(line)
	}
}

func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
