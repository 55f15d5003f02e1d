package raster

import (
	"fmt"
	"image"
)

// FloodFill replaces the 4-connected region of pixels exactly matching the
// seed color with fillHex and returns the number of pixels written.
//
// The fill color is resolved before anything is touched, so an invalid
// color leaves the buffer unchanged. Filling a region with its own color
// is a no-op. The traversal uses an explicit stack and never recurses.
func FloodFill(b *Buffer, seed image.Point, fillHex string) (int, error) {
	target, err := b.At(seed.X, seed.Y)
	if err != nil {
		return 0, fmt.Errorf("flood fill seed: %w", err)
	}
	fill, err := ParseHex(fillHex)
	if err != nil {
		return 0, fmt.Errorf("flood fill: %w", err)
	}
	if target == fill {
		return 0, nil
	}

	w, h := b.Width(), b.Height()
	pix := b.img.Pix
	visited := make([]bool, w*h)
	stack := []image.Point{seed}
	filled := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
			continue
		}
		idx := p.Y*w + p.X
		if visited[idx] {
			continue
		}
		visited[idx] = true
		o := idx * 4
		if pix[o] != target.R || pix[o+1] != target.G || pix[o+2] != target.B || pix[o+3] != target.A {
			continue
		}
		pix[o], pix[o+1], pix[o+2], pix[o+3] = fill.R, fill.G, fill.B, fill.A
		filled++
		stack = append(stack,
			image.Pt(p.X+1, p.Y),
			image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1),
			image.Pt(p.X, p.Y-1),
		)
	}
	return filled, nil
}
