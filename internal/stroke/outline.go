package stroke

import (
	"math"

	"golang.org/x/image/vector"

	"github.com/example/doodle/internal/raster"
)

// Outlines are emitted as closed paths with a consistent orientation so that
// overlapping pieces of one stroke union together under the rasterizer's
// absolute-value coverage. Holes are emitted with the opposite orientation.

// slack bounds how far outside the rasterizer a vertex may land.
const slack = 1 << 12

func fit(v float64, size int) float32 {
	return float32(min(max(v, -slack), float64(size)+slack))
}

func moveTo(z *vector.Rasterizer, x, y float64) {
	s := z.Size()
	z.MoveTo(fit(x, s.X), fit(y, s.Y))
}

func lineTo(z *vector.Rasterizer, x, y float64) {
	s := z.Size()
	z.LineTo(fit(x, s.X), fit(y, s.Y))
}

func cubeTo(z *vector.Rasterizer, x1, y1, x2, y2, x3, y3 float64) {
	s := z.Size()
	z.CubeTo(fit(x1, s.X), fit(y1, s.Y), fit(x2, s.X), fit(y2, s.Y), fit(x3, s.X), fit(y3, s.Y))
}

// area is an axis-aligned rectangle in rasterizer coordinates.
type area struct{ x0, y0, x1, y1 float64 }

func (a area) clamp(p raster.Point) raster.Point {
	return raster.Pt(min(max(p.X, a.x0), a.x1), min(max(p.Y, a.y0), a.y1))
}

func (a area) corners() [4]raster.Point {
	return [4]raster.Point{
		raster.Pt(a.x0, a.y0), raster.Pt(a.x1, a.y0),
		raster.Pt(a.x1, a.y1), raster.Pt(a.x0, a.y1),
	}
}

func finite(p raster.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// clipSegment trims the segment p-q to c (Liang-Barsky). Endpoints already
// inside c are returned unchanged.
func clipSegment(p, q raster.Point, c area) (raster.Point, raster.Point, bool) {
	d := q.Sub(p)
	if !finite(d) {
		return p, q, false
	}
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-d.X, p.X - c.x0},
		{d.X, c.x1 - p.X},
		{-d.Y, p.Y - c.y0},
		{d.Y, c.y1 - p.Y},
	} {
		switch dir, dist := e[0], e[1]; {
		case dir == 0:
			if dist < 0 {
				return p, q, false
			}
		case dir < 0:
			t0 = max(t0, dist/dir)
		default:
			t1 = min(t1, dist/dir)
		}
	}
	if t0 > t1 {
		return p, q, false
	}
	a, b := p, q
	if t0 > 0 {
		a = c.clamp(raster.Pt(p.X+t0*d.X, p.Y+t0*d.Y))
	}
	if t1 < 1 {
		b = c.clamp(raster.Pt(p.X+t1*d.X, p.Y+t1*d.Y))
	}
	return a, b, true
}

// joinStraight drops repeated points and points that continue the previous
// segment in the same direction, so a path sampled along a straight line
// renders exactly like its two ends.
func joinStraight(pts []raster.Point) []raster.Point {
	out := make([]raster.Point, 0, len(pts))
	for _, p := range pts {
		n := len(out)
		if n > 0 && out[n-1] == p {
			continue
		}
		if n >= 2 {
			u, v := out[n-1].Sub(out[n-2]), p.Sub(out[n-1])
			cross := u.X*v.Y - u.Y*v.X
			dot := u.X*v.X + u.Y*v.Y
			if dot > 0 && math.Abs(cross) <= 1e-9*math.Hypot(u.X, u.Y)*math.Hypot(v.X, v.Y) {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// arc continues the current path along a circle around (cx,cy) starting at
// angle a0 and turning by sweep radians. The pen must already sit on the
// start point.
func arc(z *vector.Rasterizer, cx, cy, r, a0, sweep float64) {
	n := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2)))
	if n == 0 {
		return
	}
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4) * r
	a := a0
	for i := 0; i < n; i++ {
		b := a + step
		sa, ca := math.Sincos(a)
		sb, cb := math.Sincos(b)
		x0, y0 := cx+r*ca, cy+r*sa
		x3, y3 := cx+r*cb, cy+r*sb
		cubeTo(z, x0-k*sa, y0+k*ca, x3+k*sb, y3-k*cb, x3, y3)
		a = b
	}
}

// disc adds a full circle wound the same way as capsule, or the opposite
// way when reverse is set.
func disc(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	if r <= 0 {
		return
	}
	sweep := -2 * math.Pi
	if reverse {
		sweep = -sweep
	}
	moveTo(z, cx+r, cy)
	arc(z, cx, cy, r, 0, sweep)
	z.ClosePath()
}

// capsule adds the outline of a segment from a to b with half width h and
// round ends. A zero length segment becomes a dot.
func capsule(z *vector.Rasterizer, a, b raster.Point, h float64) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		disc(z, a.X, a.Y, h, false)
		return
	}
	dx, dy := d.X/l, d.Y/l
	nx, ny := -dy, dx
	an := math.Atan2(ny, nx)

	moveTo(z, a.X+nx*h, a.Y+ny*h)
	lineTo(z, b.X+nx*h, b.Y+ny*h)
	arc(z, b.X, b.Y, h, an, -math.Pi)
	lineTo(z, a.X-nx*h, a.Y-ny*h)
	arc(z, a.X, a.Y, h, an+math.Pi, -math.Pi)
	z.ClosePath()
}

// rectangle adds the stroked outline of the rectangle spanned by p and q
// with mitered corners. Drag direction does not matter. Edges beyond c are
// pulled onto it.
func rectangle(z *vector.Rasterizer, p, q raster.Point, h float64, c area) {
	x0, x1 := math.Min(p.X, q.X), math.Max(p.X, q.X)
	y0, y1 := math.Min(p.Y, q.Y), math.Max(p.Y, q.Y)
	if x0 == x1 && y0 == y1 {
		return
	}
	lo, hi := c.clamp(raster.Pt(x0, y0)), c.clamp(raster.Pt(x1, y1))
	x0, y0, x1, y1 = lo.X, lo.Y, hi.X, hi.Y
	box(z, x0-h, y0-h, x1+h, y1+h, false)
	if x1-x0 > 2*h && y1-y0 > 2*h {
		box(z, x0+h, y0+h, x1-h, y1-h, true)
	}
}

func box(z *vector.Rasterizer, x0, y0, x1, y1 float64, reverse bool) {
	moveTo(z, x0, y0)
	if reverse {
		lineTo(z, x0, y1)
		lineTo(z, x1, y1)
		lineTo(z, x1, y0)
	} else {
		lineTo(z, x1, y0)
		lineTo(z, x1, y1)
		lineTo(z, x0, y1)
	}
	z.ClosePath()
}

// ring adds a circle of radius r around o stroked with half width h. Only
// the part that can reach c is emitted: nothing when the ring misses c, and
// an annular sector spanning c when o lies outside it.
func ring(z *vector.Rasterizer, o raster.Point, r, h float64, c area) {
	outer, inner := r+h, r-h
	near := o.Dist(c.clamp(o))
	far := 0.0
	for _, k := range c.corners() {
		far = max(far, o.Dist(k))
	}
	if near > outer || inner >= far {
		return
	}
	if near == 0 || inner <= 0 {
		disc(z, o.X, o.Y, outer, false)
		disc(z, o.X, o.Y, inner, true)
		return
	}

	base := math.Atan2((c.y0+c.y1)/2-o.Y, (c.x0+c.x1)/2-o.X)
	lo, hi := 0.0, 0.0
	for _, k := range c.corners() {
		a := math.Remainder(math.Atan2(k.Y-o.Y, k.X-o.X)-base, 2*math.Pi)
		lo, hi = min(lo, a), max(hi, a)
	}
	a0, a1 := base+lo, base+hi
	s0, c0 := math.Sincos(a0)
	s1, c1 := math.Sincos(a1)
	moveTo(z, o.X+outer*c1, o.Y+outer*s1)
	arc(z, o.X, o.Y, outer, a1, a0-a1)
	lineTo(z, o.X+inner*c0, o.Y+inner*s0)
	arc(z, o.X, o.Y, inner, a0, a1-a0)
	z.ClosePath()
}
