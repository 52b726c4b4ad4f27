package pdfops

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// defaultPageAspect is US Letter (11in / 8.5in), used when the MediaBox is
// missing.
const defaultPageAspect = 11.0 / 8.5

const (
	previewWidth     = 160
	previewMinHeight = 120
	previewMaxHeight = 280
)

// There is no pure-Go PDF rasterizer, so previews are rendered as a page card
// at the document's aspect ratio with the first-page text layer drawn onto it.
// A document with no text layer still gets a blank card; nil only on a failed
// encode, and callers tolerate absence.
func renderPreview(name string, pageCount int, excerpt string, aspect float64) []byte {
	height := int(previewWidth * aspect)
	if height < previewMinHeight {
		height = previewMinHeight
	}
	if height > previewMaxHeight {
		height = previewMaxHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, previewWidth, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawBorder(img, color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff})

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x3c, G: 0x3c, B: 0x3c, A: 0xff}),
		Face: face,
	}

	const margin = 8
	lineHeight := face.Height + 3
	maxChars := (previewWidth - 2*margin) / face.Advance
	maxLines := (height - 2*margin) / lineHeight

	y := margin + face.Ascent
	for _, line := range wrapText(excerpt, maxChars, maxLines) {
		d.Dot = fixed.P(margin, y)
		d.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func drawBorder(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.Set(x, b.Min.Y, c)
		img.Set(x, b.Max.Y-1, c)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.Set(b.Min.X, y, c)
		img.Set(b.Max.X-1, y, c)
	}
}

// wrapText breaks s into word-wrapped lines of at most maxChars characters,
// returning at most maxLines lines. Words longer than a line are hard-split.
func wrapText(s string, maxChars, maxLines int) []string {
	if maxChars <= 0 || maxLines <= 0 {
		return nil
	}

	var lines []string
	var current string

	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range bytes.Fields([]byte(s)) {
		w := string(word)
		for len(w) > maxChars {
			flush()
			lines = append(lines, w[:maxChars])
			w = w[maxChars:]
			if len(lines) >= maxLines {
				return lines[:maxLines]
			}
		}
		switch {
		case current == "":
			current = w
		case len(current)+1+len(w) <= maxChars:
			current += " " + w
		default:
			flush()
			current = w
		}
		if len(lines) >= maxLines {
			return lines[:maxLines]
		}
	}
	flush()

	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
