package main

import (
	"flag"
	"fmt"

	"github.com/example/doodle/internal/appstate"
	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/session"
)

type colorsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) Run() error {
	palette := appstate.PaletteColors()
	if len(palette) == 0 {
		fmt.Fprintln(c.stdout, "no colors available")
		return nil
	}
	def := session.DefaultColor
	if c.config != nil && c.config.Drawing.Color != "" {
		def = c.config.Drawing.Color
	}
	defColor, _ := raster.ParseHex(def)
	fmt.Fprintln(c.stdout, "available palette colors (* marks the default color):")
	for idx, entry := range palette {
		marker := " "
		if entry.Color == defColor {
			marker = "*"
		}
		hex := raster.Hex(entry.Color)
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", entry.Color.R, entry.Color.G, entry.Color.B)
		fmt.Fprintf(c.stdout, "%s %2d: %-12s %s %s\n", marker, idx, entry.Name, hex, block)
	}
	fmt.Fprintln(c.stdout, "any #rrggbb value or SVG color name is accepted as well")
	return nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

type widthsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseWidthsCmd(args []string, r *root) (*widthsCmd, error) {
	fs := flag.NewFlagSet("widths", flag.ExitOnError)
	cmd := &widthsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *widthsCmd) Run() error {
	def := session.DefaultWidth
	if c.config != nil && c.config.Drawing.Width > 0 {
		def = c.config.Drawing.Width
	}
	fmt.Fprintf(c.stdout, "available stroke widths, %d-%dpx (* marks the default width):\n", session.MinWidth, session.MaxWidth)
	for _, width := range appstate.WidthOptions() {
		marker := " "
		if width == def {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %3dpx\n", marker, width)
	}
	return nil
}

func (c *widthsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

type toolsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseToolsCmd(args []string, r *root) (*toolsCmd, error) {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	cmd := &toolsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

var toolKeys = map[session.Tool]string{
	session.ToolFreehand:  "p",
	session.ToolRectangle: "r",
	session.ToolCircle:    "c",
	session.ToolLine:      "l",
	session.ToolEraser:    "e",
	session.ToolFill:      "f",
}

func (c *toolsCmd) Run() error {
	def := session.ToolFreehand
	if c.config != nil {
		if t, err := session.ParseTool(c.config.Drawing.Tool); err == nil {
			def = t
		}
	}
	fmt.Fprintln(c.stdout, "available tools (* marks the default tool, key selects it in the window):")
	for _, t := range session.Tools {
		marker := " "
		if t == def {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %-10s %s\n", marker, t, toolKeys[t])
	}
	return nil
}

func (c *toolsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}
