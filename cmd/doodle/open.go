package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/example/doodle/internal/appstate"
	"github.com/example/doodle/internal/clipboard"
	"github.com/example/doodle/internal/export"
	"github.com/example/doodle/internal/script"
	"github.com/example/doodle/internal/session"
)

// readClipboardFn is replaced in tests.
var readClipboardFn = clipboard.ReadImage

// openCmd opens the drawing window.
type openCmd struct {
	width      int
	height     int
	output     string
	file       string
	fromPaste  bool
	tool       string
	color      string
	pen        int
	background string
	*root
	fs *flag.FlagSet
}

func (o *openCmd) FlagSet() *flag.FlagSet {
	return o.fs
}

func parseOpenCmd(args []string, r *root) (*openCmd, error) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	o := &openCmd{root: r, fs: fs}
	w, h := 1024, 768
	if r != nil && r.config != nil {
		w, h = r.config.Canvas.Width, r.config.Canvas.Height
	}
	fs.IntVar(&o.width, "width", w, "canvas width in pixels")
	fs.IntVar(&o.height, "height", h, "canvas height in pixels")
	fs.StringVar(&o.output, "output", "", "file written by ctrl+s (.png or .pdf, default drawing.png)")
	fs.StringVar(&o.file, "file", "", "PNG image to draw on")
	fs.BoolVar(&o.fromPaste, "paste", false, "start from the image on the clipboard")
	fs.StringVar(&o.tool, "tool", "", "initial tool")
	fs.StringVar(&o.color, "color", "", "initial color (#rrggbb or name)")
	fs.IntVar(&o.pen, "pen", 0, fmt.Sprintf("initial pen width (%d-%d)", session.MinWidth, session.MaxWidth))
	fs.StringVar(&o.background, "background", "white", "canvas background color, or transparent")
	fs.Usage = usageFunc(o)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: o}
	}
	if o.file != "" && o.fromPaste {
		return nil, errors.New("-file and -paste cannot be combined")
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d: %w", o.width, o.height, session.ErrInvalidSize)
	}
	return o, nil
}

// sessionOptions turns the flags into session options.
func (o *openCmd) sessionOptions() ([]session.Option, error) {
	bg, err := backgroundOption(o.background)
	if err != nil {
		return nil, err
	}
	opts := []session.Option{bg}
	if o.tool != "" {
		t, err := session.ParseTool(o.tool)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithTool(t))
	}
	if o.color != "" {
		hex, err := script.ResolveColor(o.color)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithColor(hex))
	}
	if o.pen != 0 {
		opts = append(opts, session.WithWidth(o.pen))
	}

	var src image.Image
	switch {
	case o.file != "":
		f, err := os.Open(o.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", o.file, err)
		}
		src = img
	case o.fromPaste:
		img, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		src = img
	}
	if src != nil {
		opts = append(opts, session.WithImage(src))
	}
	return opts, nil
}

func (o *openCmd) Run() error {
	opts, err := o.sessionOptions()
	if err != nil {
		return err
	}
	s := o.newSession(o.width, o.height, opts...)
	out := o.outputPath(o.output)
	if out == "" {
		out = o.outputPath(export.DefaultFilename)
	}
	// a configured color outside the palette still gets a swatch
	if _, err := appstate.EnsurePaletteColor(s.Color()); err != nil {
		return err
	}
	st := appstate.New(
		appstate.WithSession(s),
		appstate.WithOutput(out),
		appstate.WithTheme(o.activeTheme),
		appstate.WithNotifier(o.notifier),
	)
	st.Run()
	return nil
}
