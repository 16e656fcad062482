// Package canvas turns pointer positions into hand-drawn signature strokes.
//
// A [Surface] is a fixed-size RGBA pixel buffer. Capture surfaces are 600x300,
// display surfaces 280x100 (see package contract). A [Renderer] is bound to at
// most one surface at a time and draws connected line segments on it:
//
//	surface := canvas.NewSurface(contract.CaptureWidth, contract.CaptureHeight)
//	r := canvas.NewRenderer()
//	r.Bind(surface)
//	r.BeginStroke(canvas.Pt(10, 10))
//	r.ExtendStroke(canvas.Pt(40, 30))
//	r.ExtendStroke(canvas.Pt(80, 20))
//	r.EndStroke()
//
// Every ExtendStroke call strokes a single segment from the previous point and
// then starts over from the new point, so long strokes never re-rasterize the
// whole path. The stroke style is fixed: [contract.StrokeColor],
// [contract.StrokeWidth], round caps and joins.
//
// Calls made while no surface is bound, or ExtendStroke without BeginStroke,
// are silently ignored. Coordinates outside the surface are clipped by the
// rasterizer.
package canvas
