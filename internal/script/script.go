// Package script drives a drawing session from a line oriented command
// language, for headless rendering and the interactive shell.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/session"
)

// Command is one parsed script line.
type Command struct {
	Line int
	Name string
	Args []string
	Nums []float64 // Args as numbers for numeric commands
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type syntax struct {
	min, max int
	numeric  bool
	usage    string
}

var commands = map[string]syntax{
	"tool":   {1, 1, false, "tool <freehand|rectangle|circle|line|eraser|fill>"},
	"color":  {1, 1, false, "color <#rrggbb|name>"},
	"width":  {1, 1, true, "width <1-20>"},
	"down":   {2, 2, true, "down <x> <y>"},
	"move":   {2, 2, true, "move <x> <y>"},
	"up":     {0, 0, false, "up"},
	"leave":  {0, 0, false, "leave"},
	"drag":   {4, 5, true, "drag <x0> <y0> <x1> <y1> [steps]"},
	"click":  {2, 2, true, "click <x> <y>"},
	"undo":   {0, 0, false, "undo"},
	"redo":   {0, 0, false, "redo"},
	"clear":  {0, 0, false, "clear"},
	"resize": {2, 2, true, "resize <width> <height>"},
	"export": {0, 1, false, "export [path]"},
	"copy":   {0, 0, false, "copy"},
	"status": {0, 0, false, "status"},
}

// Usage lists the syntax of every command, sorted by name.
func Usage() []string {
	out := make([]string, 0, len(commands))
	for _, s := range commands {
		out = append(out, s.usage)
	}
	sort.Strings(out)
	return out
}

// ErrSyntax marks malformed script lines.
var ErrSyntax = errors.New("syntax error")

// ParseLine parses a single line. Blank lines and lines starting with '#'
// yield ok=false.
func ParseLine(n int, line string) (cmd Command, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Command{}, false, nil
	}
	name := strings.ToLower(fields[0])
	syn, known := commands[name]
	if !known {
		return Command{}, false, fmt.Errorf("line %d: unknown command %q: %w", n, fields[0], ErrSyntax)
	}
	args := fields[1:]
	if len(args) < syn.min || len(args) > syn.max {
		return Command{}, false, fmt.Errorf("line %d: usage: %s: %w", n, syn.usage, ErrSyntax)
	}
	cmd = Command{Line: n, Name: name, Args: args}
	if syn.numeric {
		for _, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return Command{}, false, fmt.Errorf("line %d: %q is not a number: %w", n, a, ErrSyntax)
			}
			cmd.Nums = append(cmd.Nums, v)
		}
	}
	return cmd, true, nil
}

// Parse reads a whole script.
func Parse(r io.Reader) ([]Command, error) {
	var out []Command
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		cmd, ok, err := ParseLine(n, sc.Text())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cmd)
		}
	}
	return out, sc.Err()
}

// ResolveColor accepts "#rrggbb", "rrggbb" or an SVG color name and returns
// "#RRGGBB".
func ResolveColor(s string) (string, error) {
	if c, err := raster.ParseHex(s); err == nil {
		return raster.Hex(c), nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return raster.Hex(c), nil
	}
	return "", fmt.Errorf("%q: %w", s, raster.ErrInvalidColor)
}

// Runner executes commands against a session.
type Runner struct {
	Session *session.Session
	Out     io.Writer

	// Export saves the canvas; path may be empty for the default name. It
	// returns the path written.
	Export func(path string) (string, error)
	// Copy places the canvas on the clipboard.
	Copy func() error
}

// Run executes cmds in order and stops at the first failure.
func (r *Runner) Run(cmds []Command) error {
	for _, c := range cmds {
		if err := r.Exec(c); err != nil {
			return fmt.Errorf("line %d: %s: %w", c.Line, c.Name, err)
		}
	}
	return nil
}

// DefaultDragSteps is the number of moves generated by drag.
const DefaultDragSteps = 10

// Exec executes a single command.
func (r *Runner) Exec(c Command) error {
	s := r.Session
	switch c.Name {
	case "tool":
		t, err := session.ParseTool(c.Args[0])
		if err != nil {
			return err
		}
		s.SelectTool(t)
	case "color":
		hex, err := ResolveColor(c.Args[0])
		if err != nil {
			return err
		}
		return s.SetColor(hex)
	case "width":
		s.SetWidth(int(c.Nums[0]))
	case "down":
		s.PointerDown(raster.Pt(c.Nums[0], c.Nums[1]))
	case "move":
		s.PointerMove(raster.Pt(c.Nums[0], c.Nums[1]))
	case "up":
		s.PointerUp()
	case "leave":
		s.PointerLeave()
	case "click":
		p := raster.Pt(c.Nums[0], c.Nums[1])
		s.PointerDown(p)
		s.PointerUp()
	case "drag":
		steps := DefaultDragSteps
		if len(c.Nums) == 5 {
			steps = int(c.Nums[4])
		}
		if steps < 1 {
			return fmt.Errorf("steps must be at least 1")
		}
		drag(s, raster.Pt(c.Nums[0], c.Nums[1]), raster.Pt(c.Nums[2], c.Nums[3]), steps)
	case "undo":
		if !s.Undo() {
			r.printf("nothing to undo\n")
		}
	case "redo":
		if !s.Redo() {
			r.printf("nothing to redo\n")
		}
	case "clear":
		s.Clear()
	case "resize":
		return s.Resize(int(c.Nums[0]), int(c.Nums[1]))
	case "export":
		if r.Export == nil {
			return fmt.Errorf("export is not available")
		}
		path := ""
		if len(c.Args) == 1 {
			path = c.Args[0]
		}
		written, err := r.Export(path)
		if err != nil {
			return err
		}
		r.printf("saved %s\n", written)
	case "copy":
		if r.Copy == nil {
			return fmt.Errorf("copy is not available")
		}
		if err := r.Copy(); err != nil {
			return err
		}
		r.printf("copied to clipboard\n")
	case "status":
		r.printf("%s\n", Status(s))
	default:
		return fmt.Errorf("unknown command %q", c.Name)
	}
	return nil
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

func drag(s *session.Session, from, to raster.Point, steps int) {
	s.PointerDown(from)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.PointerMove(raster.Pt(from.X+(to.X-from.X)*t, from.Y+(to.Y-from.Y)*t))
	}
	s.PointerUp()
}

// Status summarises the session settings on one line.
func Status(s *session.Session) string {
	w, h := s.Size()
	undo, redo := s.HistoryLen()
	return fmt.Sprintf("tool=%s color=%s width=%d size=%dx%d undo=%d redo=%d state=%s",
		s.Tool(), s.Color(), s.Width(), w, h, undo, redo, s.State())
}
