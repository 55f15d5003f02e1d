package main

import (
	"bufio"
	"flag"
	"fmt"
	"strings"

	"github.com/example/doodle/internal/script"
	"github.com/example/doodle/internal/session"
)

// commandList collects repeated -e flags.
type commandList []string

func (c *commandList) String() string { return strings.Join(*c, "; ") }

func (c *commandList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// interactiveCmd reads drawing commands from stdin, one per line.
type interactiveCmd struct {
	width      int
	height     int
	background string
	execs      commandList
	*root
	fs *flag.FlagSet
}

func (c *interactiveCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	c := &interactiveCmd{root: r, fs: fs}
	w, h := 1024, 768
	if r != nil && r.config != nil {
		w, h = r.config.Canvas.Width, r.config.Canvas.Height
	}
	fs.IntVar(&c.width, "width", w, "canvas width in pixels")
	fs.IntVar(&c.height, "height", h, "canvas height in pixels")
	fs.StringVar(&c.background, "background", "white", "canvas background color, or transparent")
	fs.Var(&c.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: c}
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d: %w", c.width, c.height, session.ErrInvalidSize)
	}
	return c, nil
}

func (c *interactiveCmd) Run() error {
	bg, err := backgroundOption(c.background)
	if err != nil {
		return err
	}
	s := c.newSession(c.width, c.height, bg)
	run := c.runner(s)

	if len(c.execs) > 0 {
		for i, line := range c.execs {
			done, err := c.executeLine(run, i+1, line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	fmt.Fprintln(c.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(c.stdin)
	n := 0
	for {
		fmt.Fprint(c.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		n++
		done, err := c.executeLine(run, n, scanner.Text())
		if err != nil {
			fmt.Fprintln(c.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

// executeLine runs one command. It reports whether the session should end.
func (c *interactiveCmd) executeLine(run *script.Runner, n int, line string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true, nil
	case "help", "?":
		for _, u := range script.Usage() {
			fmt.Fprintf(c.stdout, "  %s\n", u)
		}
		fmt.Fprintln(c.stdout, "  exit")
		return false, nil
	}
	cmd, ok, err := script.ParseLine(n, line)
	if err != nil || !ok {
		return false, err
	}
	if err := run.Exec(cmd); err != nil {
		return false, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return false, nil
}
