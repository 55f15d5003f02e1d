// Package stroke rasterizes pen, eraser and shape strokes onto RGBA images.
package stroke

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/example/doodle/internal/raster"
)

// Kind selects the geometry produced from a pointer path.
type Kind int

const (
	// Freehand strokes every sampled point.
	Freehand Kind = iota
	// Eraser is Freehand painted in white.
	Eraser
	// Rectangle outlines the box spanned by the first and last points.
	Rectangle
	// Circle rings the first point, passing through the last.
	Circle
	// Line joins the first and last points.
	Line
)

var kindNames = [...]string{"freehand", "eraser", "rectangle", "circle", "line"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Style carries the paint settings read at render time.
type Style struct {
	Color color.RGBA
	Width float64
}

// Renderer draws strokes. The zero value is ready to use and reuses its
// rasterizer and coverage buffers between calls.
type Renderer struct {
	z    *vector.Rasterizer
	mask *image.Alpha
	seg  []byte
}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render paints the stroke described by kind and path over dst.
// Freehand and Eraser use every point; the shapes use only the first and
// last. Points may lie anywhere outside dst; non-finite points are skipped.
func (r *Renderer) Render(dst *image.RGBA, kind Kind, path []raster.Point, style Style) {
	b := dst.Bounds()
	if len(path) == 0 || b.Empty() {
		return
	}
	h := style.Width / 2
	if h <= 0 {
		h = 0.5
	}
	m := h + 1
	clip := area{-m, -m, float64(b.Dx()) + m, float64(b.Dy()) + m}
	col := style.Color

	switch kind {
	case Freehand, Eraser:
		if kind == Eraser {
			col = raster.White
		}
		var pts []raster.Point
		for _, p := range path {
			if finite(p) {
				pts = append(pts, p)
			}
		}
		if len(pts) > 0 {
			r.polyline(dst, joinStraight(pts), h, clip, col)
		}
		return
	case Rectangle, Circle, Line:
	default:
		return
	}

	start, end := path[0], path[len(path)-1]
	if !finite(start) || !finite(end) {
		return
	}
	z := r.rasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	switch kind {
	case Rectangle:
		rectangle(z, start, end, h, clip)
	case Circle:
		ring(z, start, start.Dist(end), h, clip)
	case Line:
		a, e, ok := clipSegment(start, end, clip)
		if !ok {
			return
		}
		capsule(z, a, e, h)
	}
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func (r *Renderer) rasterizer(w, h int) *vector.Rasterizer {
	if r.z == nil {
		r.z = vector.NewRasterizer(w, h)
	} else {
		r.z.Reset(w, h)
	}
	return r.z
}

// polyline paints pts as one stroke with round caps and joins. Each segment
// is rasterized on its own and merged into a coverage mask by maximum, so
// pixels where neighbouring segments overlap are covered once.
func (r *Renderer) polyline(dst *image.RGBA, pts []raster.Point, h float64, clip area, col color.RGBA) {
	b := dst.Bounds()
	size := image.Rect(0, 0, b.Dx(), b.Dy())
	if r.mask == nil || r.mask.Rect != size {
		r.mask = image.NewAlpha(size)
	} else {
		clear(r.mask.Pix)
	}
	last := len(pts) - 1
	for i := 0; i < max(last, 1); i++ {
		a, e, ok := clipSegment(pts[i], pts[min(i+1, last)], clip)
		if ok {
			r.mergeCapsule(a, e, h)
		}
	}
	draw.DrawMask(dst, b, image.NewUniform(col), image.Point{}, r.mask, image.Point{}, draw.Over)
}

// mergeCapsule rasterizes one round-capped segment over its bounding box and
// raises the mask to its coverage.
func (r *Renderer) mergeCapsule(a, e raster.Point, h float64) {
	bbox := image.Rect(
		int(math.Floor(min(a.X, e.X)-h)), int(math.Floor(min(a.Y, e.Y)-h)),
		int(math.Ceil(max(a.X, e.X)+h)), int(math.Ceil(max(a.Y, e.Y)+h)),
	).Intersect(r.mask.Rect)
	if bbox.Empty() {
		return
	}
	w, ht := bbox.Dx(), bbox.Dy()
	z := r.rasterizer(w, ht)
	z.DrawOp = draw.Src
	off := raster.Pt(float64(bbox.Min.X), float64(bbox.Min.Y))
	capsule(z, a.Sub(off), e.Sub(off), h)

	if cap(r.seg) < w*ht {
		r.seg = make([]byte, w*ht)
	}
	seg := &image.Alpha{Pix: r.seg[:w*ht], Stride: w, Rect: image.Rect(0, 0, w, ht)}
	z.Draw(seg, seg.Rect, image.Opaque, image.Point{})

	for y := 0; y < ht; y++ {
		row := r.mask.Pix[(bbox.Min.Y+y)*r.mask.Stride+bbox.Min.X:][:w]
		for x, v := range seg.Pix[y*w : (y+1)*w] {
			if v > row[x] {
				row[x] = v
			}
		}
	}
}
