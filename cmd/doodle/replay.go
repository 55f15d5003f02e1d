package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/example/doodle/internal/clipboard"
	"github.com/example/doodle/internal/export"
	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/script"
	"github.com/example/doodle/internal/session"
)

// writeClipboardFn is replaced in tests.
var writeClipboardFn = clipboard.WriteImage

// replayCmd runs a drawing script without opening a window.
type replayCmd struct {
	source      string
	width       int
	height      int
	output      string
	toClipboard bool
	background  string
	*root
	fs *flag.FlagSet
}

func (c *replayCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	c := &replayCmd{root: r, fs: fs}
	w, h := 1024, 768
	if r != nil && r.config != nil {
		w, h = r.config.Canvas.Width, r.config.Canvas.Height
	}
	fs.IntVar(&c.width, "width", w, "canvas width in pixels")
	fs.IntVar(&c.height, "height", h, "canvas height in pixels")
	fs.StringVar(&c.output, "output", "", "write the final canvas to this file (.png or .pdf)")
	fs.BoolVar(&c.toClipboard, "copy", false, "copy the final canvas to the clipboard")
	fs.StringVar(&c.background, "background", "white", "canvas background color, or transparent")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.source = fs.Arg(0)
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d: %w", c.width, c.height, session.ErrInvalidSize)
	}
	return c, nil
}

func (c *replayCmd) open() (io.ReadCloser, error) {
	if c.source == "-" {
		return io.NopCloser(c.stdin), nil
	}
	return os.Open(c.source)
}

// runner wires a script runner to the session and the root's outputs.
func (r *root) runner(s *session.Session) *script.Runner {
	return &script.Runner{
		Session: s,
		Out:     r.stdout,
		Export: func(path string) (string, error) {
			return r.export(path, s.Image())
		},
		Copy: func() error {
			return r.copy(s.Image())
		},
	}
}

func (r *root) export(path string, img image.Image) (string, error) {
	written, err := export.WriteFile(r.outputPath(path), img)
	if err != nil {
		return "", err
	}
	r.notifySave(written)
	return written, nil
}

func (r *root) copy(img image.Image) error {
	if err := writeClipboardFn(img); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	r.notifyCopy("")
	return nil
}

func backgroundOption(spec string) (session.Option, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" || spec == "transparent" {
		return nil, nil
	}
	hex, err := script.ResolveColor(spec)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	c, err := raster.ParseHex(hex)
	if err != nil {
		return nil, err
	}
	return session.WithBackground(c), nil
}

func (c *replayCmd) Run() error {
	in, err := c.open()
	if err != nil {
		return err
	}
	cmds, err := script.Parse(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", c.source, err)
	}
	bg, err := backgroundOption(c.background)
	if err != nil {
		return err
	}
	s := c.newSession(c.width, c.height, bg)
	if err := c.runner(s).Run(cmds); err != nil {
		return fmt.Errorf("%s: %w", c.source, err)
	}
	if c.output == "" && !c.toClipboard {
		return nil
	}
	var errs []error
	if c.output != "" {
		written, err := c.export(c.output, s.Image())
		if err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(c.stdout, "saved %s\n", written)
		}
	}
	if c.toClipboard {
		if err := c.copy(s.Image()); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintln(c.stdout, "copied to clipboard")
		}
	}
	return errors.Join(errs...)
}
