// Package raster provides an anti-aliased drawing surface over an RGBA
// buffer: filled and stroked paths, gradient paints and text.
package raster

import (
	"image"
	"math"

	"lightplan/pkg/geometry"

	"github.com/srwiley/rasterx"
)

// Path is a sequence of subpaths in canvas pixel coordinates.
type Path struct {
	p rasterx.Path

	minX, minY, maxX, maxY float64
	hasBounds              bool
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

func (p *Path) extend(x, y float64) {
	if !p.hasBounds {
		p.minX, p.maxX, p.minY, p.maxY = x, x, y, y
		p.hasBounds = true
		return
	}
	p.minX = math.Min(p.minX, x)
	p.maxX = math.Max(p.maxX, x)
	p.minY = math.Min(p.minY, y)
	p.maxY = math.Max(p.maxY, y)
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) *Path {
	p.extend(x, y)
	p.p.Start(rasterx.ToFixedP(x, y))
	return p
}

// LineTo adds a straight segment.
func (p *Path) LineTo(x, y float64) *Path {
	p.extend(x, y)
	p.p.Line(rasterx.ToFixedP(x, y))
	return p
}

// QuadTo adds a quadratic Bezier segment with control point (cx, cy).
func (p *Path) QuadTo(cx, cy, x, y float64) *Path {
	p.extend(cx, cy)
	p.extend(x, y)
	p.p.QuadBezier(rasterx.ToFixedP(cx, cy), rasterx.ToFixedP(x, y))
	return p
}

// Close closes the current subpath.
func (p *Path) Close() *Path {
	p.p.Stop(true)
	return p
}

// Ellipse adds a closed ellipse rotated by rot degrees about its center.
func (p *Path) Ellipse(cx, cy, rx, ry, rot float64) *Path {
	r := math.Max(rx, ry)
	p.extend(cx-r, cy-r)
	p.extend(cx+r, cy+r)
	rasterx.AddEllipse(cx, cy, rx, ry, rot, &p.p)
	return p
}

// Circle adds a closed circle.
func (p *Path) Circle(cx, cy, r float64) *Path {
	return p.Ellipse(cx, cy, r, r, 0)
}

// Rect adds a closed axis-aligned rectangle.
func (p *Path) Rect(x, y, w, h float64) *Path {
	return p.MoveTo(x, y).LineTo(x+w, y).LineTo(x+w, y+h).LineTo(x, y+h).Close()
}

// Polygon adds a closed polygon through pts. Fewer than two points add nothing.
func (p *Path) Polygon(pts ...geometry.Point2D) *Path {
	if len(pts) < 2 {
		return p
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	return p.Close()
}

// Polyline adds an open polyline through pts.
func (p *Path) Polyline(pts ...geometry.Point2D) *Path {
	if len(pts) < 2 {
		return p
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	return p
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	return p == nil || len(p.p) == 0
}

// Bounds returns the integer rectangle covering every point and control
// point of the path, grown by pad on each side.
func (p *Path) Bounds(pad float64) image.Rectangle {
	if p.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(p.minX-pad)),
		int(math.Floor(p.minY-pad)),
		int(math.Ceil(p.maxX+pad))+1,
		int(math.Ceil(p.maxY+pad))+1,
	)
}
