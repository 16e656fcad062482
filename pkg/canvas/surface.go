package canvas

import (
	"image"
	"image/draw"
)

// Point is a pointer position in surface pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Surface is a fixed-size RGBA pixel buffer. A fresh surface is fully transparent.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the backing image. Writes to it are visible on the surface.
func (s *Surface) Image() *image.RGBA { return s.img }

// Bounds returns the surface rectangle, always anchored at the origin.
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// Empty reports whether no pixel has been painted.
func (s *Surface) Empty() bool {
	for i := 3; i < len(s.img.Pix); i += 4 {
		if s.img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// DrawImage paints src at the origin at its native size, clipped to the
// surface. No resampling is performed.
func (s *Surface) DrawImage(src image.Image) {
	draw.Draw(s.img, s.img.Rect, src, src.Bounds().Min, draw.Over)
}
