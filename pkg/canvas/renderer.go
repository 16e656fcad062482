package canvas

import (
	"github.com/fogleman/gg"

	"github.com/matzehuels/lovecontract/pkg/contract"
)

// Renderer draws strokes on the surface it is bound to.
// It is not safe for concurrent use.
type Renderer struct {
	surface *Surface
	dc      *gg.Context
	last    Point
	drawing bool
}

// NewRenderer returns a renderer with no surface bound.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Bind attaches the renderer to surface, ending any stroke in progress.
func (r *Renderer) Bind(surface *Surface) {
	r.drawing = false
	r.surface = surface
	r.dc = nil
	if surface == nil {
		return
	}
	dc := gg.NewContextForRGBA(surface.Image())
	dc.SetColor(contract.StrokeColor)
	dc.SetLineWidth(contract.StrokeWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	r.dc = dc
}

// Unbind detaches the surface. Subsequent stroke calls are ignored.
func (r *Renderer) Unbind() { r.Bind(nil) }

// Surface returns the bound surface or nil.
func (r *Renderer) Surface() *Surface { return r.surface }

// Bound reports whether a surface is attached.
func (r *Renderer) Bound() bool { return r.dc != nil }

// Drawing reports whether a stroke is in progress.
func (r *Renderer) Drawing() bool { return r.drawing }

// BeginStroke starts a new stroke at p.
func (r *Renderer) BeginStroke(p Point) {
	if r.dc == nil {
		return
	}
	r.last = p
	r.drawing = true
}

// ExtendStroke draws a segment from the last point to p and moves the last
// point to p.
func (r *Renderer) ExtendStroke(p Point) {
	if r.dc == nil || !r.drawing {
		return
	}
	r.dc.DrawLine(r.last.X, r.last.Y, p.X, p.Y)
	r.dc.Stroke()
	r.last = p
}

// EndStroke finishes the current stroke. Pixels are kept.
func (r *Renderer) EndStroke() {
	r.drawing = false
}

// DrawStroke is BeginStroke, ExtendStroke for the remaining points, EndStroke.
func (r *Renderer) DrawStroke(points []Point) {
	if len(points) == 0 {
		return
	}
	r.BeginStroke(points[0])
	for _, p := range points[1:] {
		r.ExtendStroke(p)
	}
	r.EndStroke()
}
