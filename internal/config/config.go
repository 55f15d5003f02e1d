package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/doodle/internal/theme"
)

// Canvas holds the initial canvas size.
type Canvas struct {
	Width  int
	Height int
}

// Drawing holds the initial tool settings.
type Drawing struct {
	Tool         string
	Color        string
	Width        int
	HistoryDepth int
}

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Output  string
	Canvas  Canvas
	Drawing Drawing
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme: "", // empty falls back to the environment, then the built-in theme
		Canvas: Canvas{
			Width:  1024,
			Height: 768,
		},
		Drawing: Drawing{
			Tool:  "freehand",
			Color: "#000000",
			Width: 2,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Output != "" {
		fmt.Fprintf(&sb, "output = %s\n", c.Output)
	}
	sb.WriteString("\n")

	sb.WriteString("[canvas]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Canvas.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Canvas.Height)
	sb.WriteString("\n")

	sb.WriteString("[drawing]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Drawing.Tool)
	fmt.Fprintf(&sb, "color = %s\n", c.Drawing.Color)
	fmt.Fprintf(&sb, "width = %d\n", c.Drawing.Width)
	fmt.Fprintf(&sb, "history_depth = %d\n", c.Drawing.HistoryDepth)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_ = theme.Encode(&sb, c.Themes[name])
		sb.WriteString("\n")
	}

	return sb.String()
}
