// Package export writes canvases to image and document formats.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// DefaultFilename is used when no output path is configured.
const DefaultFilename = "drawing.png"

// PNG encodes img as PNG.
func PNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// PDF writes a single page document sized to img, one point per pixel, with
// img placed edge to edge.
func PDF(w io.Writer, img image.Image, title string) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("pdf: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("pdf: encode page image: %w", err)
	}

	wd, ht := float64(b.Dx()), float64(b.Dy())
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	if title != "" {
		p.SetTitle(title, true)
	}
	p.SetCreator("doodle", true)
	p.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("canvas", opts, &buf)
	p.ImageOptions("canvas", 0, 0, wd, ht, false, opts, 0, "")
	if err := p.Output(w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

// Format names an output encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// FormatFor picks the encoding from a file extension. Paths without an
// extension are written as PNG.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".png":
		return FormatPNG, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", ext)
	}
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return PNG(w, img)
	case FormatPDF:
		return PDF(w, img, "drawing")
	}
	return fmt.Errorf("unsupported output format %q", f)
}

// WriteFile saves img to path, choosing the format from the extension.
// An empty path means DefaultFilename.
func WriteFile(path string, img image.Image) (string, error) {
	if path == "" {
		path = DefaultFilename
	}
	f, err := FormatFor(path)
	if err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}
