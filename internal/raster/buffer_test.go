package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestBufferBounds(t *testing.T) {
	b := New(4, 3)
	if got := len(b.RGBA().Pix); got != 4*3*4 {
		t.Fatalf("pix len = %d, want %d", got, 4*3*4)
	}
	cases := []struct {
		x, y int
		ok   bool
	}{
		{0, 0, true},
		{3, 2, true},
		{-1, 0, false},
		{4, 0, false},
		{0, -1, false},
		{0, 3, false},
	}
	for _, c := range cases {
		_, err := b.At(c.x, c.y)
		if c.ok && err != nil {
			t.Errorf("At(%d,%d) unexpected error: %v", c.x, c.y, err)
		}
		if !c.ok && !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("At(%d,%d) error = %v, want ErrOutOfBounds", c.x, c.y, err)
		}
		err = b.Set(c.x, c.y, White)
		if !c.ok && !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set(%d,%d) error = %v, want ErrOutOfBounds", c.x, c.y, err)
		}
	}
}

func TestSetOverwritesAllChannels(t *testing.T) {
	b := New(2, 2)
	want := color.RGBA{R: 1, G: 2, B: 3, A: 4}
	if err := b.Set(1, 1, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := b.At(1, 1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got != want {
		t.Fatalf("At(1,1) = %v, want %v", got, want)
	}
	if c, _ := b.At(0, 0); c != (color.RGBA{}) {
		t.Fatalf("initial pixel = %v, want transparent", c)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	b := New(3, 3)
	b.Fill(White)
	s := b.Snapshot()
	before := append([]byte(nil), b.RGBA().Pix...)

	red := color.RGBA{R: 255, A: 255}
	_ = b.Set(1, 1, red)
	if err := b.Restore(s); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !bytes.Equal(b.RGBA().Pix, before) {
		t.Fatalf("restore did not bring back the snapshot")
	}

	_ = b.Set(0, 0, red)
	if got := s.Image().RGBAAt(0, 0); got != White {
		t.Fatalf("snapshot changed after buffer write: %v", got)
	}
}

func TestRestoreSizeMismatch(t *testing.T) {
	s := New(2, 2).Snapshot()
	err := New(3, 2).Restore(s)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Restore error = %v, want ErrSizeMismatch", err)
	}
}

func TestResizedKeepsTopLeft(t *testing.T) {
	b := New(4, 4)
	red := color.RGBA{R: 255, A: 255}
	_ = b.Set(1, 1, red)
	_ = b.Set(3, 3, red)

	grown := b.Resized(6, 5)
	if grown.Width() != 6 || grown.Height() != 5 {
		t.Fatalf("grown size = %dx%d", grown.Width(), grown.Height())
	}
	if c, _ := grown.At(1, 1); c != red {
		t.Fatalf("grown (1,1) = %v, want %v", c, red)
	}
	if c, _ := grown.At(5, 4); c != (color.RGBA{}) {
		t.Fatalf("exposed pixel = %v, want transparent", c)
	}

	shrunk := b.Resized(2, 2)
	if c, _ := shrunk.At(1, 1); c != red {
		t.Fatalf("shrunk (1,1) = %v, want %v", c, red)
	}
	if _, err := shrunk.At(3, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("cropped pixel still addressable: %v", err)
	}

	s := b.Snapshot().Resized(2, 2)
	if err := shrunk.Restore(s); err != nil {
		t.Fatalf("Restore resized snapshot: %v", err)
	}
	if !bytes.Equal(shrunk.RGBA().Pix, b.Resized(2, 2).RGBA().Pix) {
		t.Fatalf("snapshot resize differs from buffer resize")
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 12))
	src.SetRGBA(11, 10, color.RGBA{G: 200, A: 255})
	b := FromImage(src)
	if b.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", b.Bounds())
	}
	if c, _ := b.At(1, 0); c != (color.RGBA{G: 200, A: 255}) {
		t.Fatalf("At(1,0) = %v", c)
	}
}
