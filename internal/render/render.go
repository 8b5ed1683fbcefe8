// Package render draws the date text onto an image.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"photostamp/internal/config"
)

// Margin is the gap in pixels kept between the text and the image edges.
const Margin = 10

// shadowDepth is how far the drop shadow extends right and down.
const shadowDepth = 2

// Box measures text as drawn with face, including the drop shadow. ink is
// the glyph bounding box relative to the dot at the start of the baseline.
func Box(face font.Face, text string) (size image.Point, ink image.Rectangle) {
	b, _ := font.BoundString(face, text)
	ink = image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	return image.Pt(ink.Dx()+shadowDepth, ink.Dy()+shadowDepth), ink
}

// Place returns the top-left corner of a box of the given size inside bounds.
func Place(bounds image.Rectangle, size image.Point, pos config.Position, margin int) image.Point {
	w, h := bounds.Dx(), bounds.Dy()
	right := max(w-size.X-margin, margin)
	bottom := max(h-size.Y-margin, margin)

	var p image.Point
	switch pos {
	case config.TopLeft:
		p = image.Pt(margin, margin)
	case config.TopRight:
		p = image.Pt(right, margin)
	case config.Center:
		p = image.Pt((w-size.X)/2, (h-size.Y)/2)
	case config.BottomLeft:
		p = image.Pt(margin, bottom)
	default:
		p = image.Pt(right, bottom)
	}
	return p.Add(bounds.Min)
}

// Draw returns a copy of img with text drawn in the given style. The source
// image is not modified. Text that does not fit is clipped at the edges.
func Draw(img image.Image, text string, face font.Face, style config.Style) *image.RGBA {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(face)

	size, ink := Box(face, text)
	at := Place(img.Bounds(), size, style.Position, Margin)

	// Baseline origin that puts the ink box's top-left at at.
	x := float64(at.X - ink.Min.X)
	y := float64(at.Y - ink.Min.Y)

	dc.SetColor(shadow(style.Color))
	for d := 1; d <= shadowDepth; d++ {
		dc.DrawString(text, x+float64(d), y+float64(d))
	}
	dc.SetColor(style.Color)
	dc.DrawString(text, x, y)

	return dc.Image().(*image.RGBA)
}

func shadow(c color.NRGBA) color.NRGBA {
	return color.NRGBA{A: min(120, c.A)}
}
