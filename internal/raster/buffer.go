// Package raster holds the editable pixel buffer and the pixel level
// operations performed on it.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the buffer.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrSizeMismatch is returned when a snapshot does not match the buffer dimensions.
	ErrSizeMismatch = errors.New("snapshot size mismatch")
)

// Buffer is a fixed size RGBA pixel grid with a top-left origin.
// Pixel data is row-major with four bytes per pixel.
type Buffer struct {
	img *image.RGBA
}

// New allocates a transparent buffer of w×h pixels. Negative sizes are
// treated as zero.
func New(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// FromImage copies src into a new buffer anchored at the origin.
func FromImage(src image.Image) *Buffer {
	b := src.Bounds()
	buf := New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			buf.img.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return buf
}

// Width reports the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height reports the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Bounds returns the buffer rectangle, always anchored at (0,0).
func (b *Buffer) Bounds() image.Rectangle { return b.img.Rect }

// RGBA exposes the backing image for rendering. Writes through it mutate
// the buffer.
func (b *Buffer) RGBA() *image.RGBA { return b.img }

func (b *Buffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width() && y < b.Height()
}

// At returns the color at (x,y).
func (b *Buffer) At(x, y int) (color.RGBA, error) {
	if !b.inside(x, y) {
		return color.RGBA{}, fmt.Errorf("get (%d,%d) in %dx%d: %w", x, y, b.Width(), b.Height(), ErrOutOfBounds)
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}, nil
}

// Set overwrites all four channels at (x,y).
func (b *Buffer) Set(x, y int, c color.RGBA) error {
	if !b.inside(x, y) {
		return fmt.Errorf("set (%d,%d) in %dx%d: %w", x, y, b.Width(), b.Height(), ErrOutOfBounds)
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	return nil
}

// Fill paints every pixel with c.
func (b *Buffer) Fill(c color.RGBA) {
	pix := b.img.Pix
	for i := 0; i+4 <= len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// Snapshot copies the whole pixel grid.
func (b *Buffer) Snapshot() Snapshot {
	pix := make([]byte, len(b.img.Pix))
	copy(pix, b.img.Pix)
	return Snapshot{w: b.Width(), h: b.Height(), pix: pix}
}

// Restore overwrites the buffer with the contents of s.
func (b *Buffer) Restore(s Snapshot) error {
	if s.w != b.Width() || s.h != b.Height() {
		return fmt.Errorf("restore %dx%d into %dx%d: %w", s.w, s.h, b.Width(), b.Height(), ErrSizeMismatch)
	}
	copy(b.img.Pix, s.pix)
	return nil
}

// Resized returns a new w×h buffer holding the overlapping top-left region
// of b. Newly exposed pixels are transparent and content past the new edges
// is dropped.
func (b *Buffer) Resized(w, h int) *Buffer {
	nb := New(w, h)
	copyRows(nb.img.Pix, nb.Width(), nb.Height(), b.img.Pix, b.Width(), b.Height())
	return nb
}

// copyRows copies the overlapping top-left rectangle between two tightly
// packed RGBA grids.
func copyRows(dst []byte, dw, dh int, src []byte, sw, sh int) {
	cw := min(dw, sw) * 4
	ch := min(dh, sh)
	for y := 0; y < ch; y++ {
		copy(dst[y*dw*4:y*dw*4+cw], src[y*sw*4:y*sw*4+cw])
	}
}

// Snapshot is an immutable copy of a buffer's pixels.
type Snapshot struct {
	w, h int
	pix  []byte
}

// Width reports the snapshot width.
func (s Snapshot) Width() int { return s.w }

// Height reports the snapshot height.
func (s Snapshot) Height() int { return s.h }

// IsZero reports whether s was never taken.
func (s Snapshot) IsZero() bool { return s.pix == nil }

// Resized returns a copy of s cropped or padded to w×h using the same
// top-left anchoring as Buffer.Resized.
func (s Snapshot) Resized(w, h int) Snapshot {
	w, h = max(w, 0), max(h, 0)
	pix := make([]byte, w*h*4)
	copyRows(pix, w, h, s.pix, s.w, s.h)
	return Snapshot{w: w, h: h, pix: pix}
}

// Image returns a new image holding the snapshot pixels.
func (s Snapshot) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	copy(img.Pix, s.pix)
	return img
}
