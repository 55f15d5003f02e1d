package main

import (
	"bytes"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/doodle/internal/config"
	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/script"
	"github.com/example/doodle/internal/session"
)

type testRoot struct {
	*root
	out, errOut *bytes.Buffer
}

func newTestRoot(t *testing.T, stdin string) testRoot {
	t.Helper()
	var out, errOut bytes.Buffer
	r := &root{
		fs:      flag.NewFlagSet("doodle", flag.ContinueOnError),
		program: "doodle",
		config:  config.New(),
		stdin:   strings.NewReader(stdin),
		stdout:  &out,
		stderr:  &errOut,
	}
	r.fs.SetOutput(&errOut)
	r.fs.StringVar(&r.themeName, "theme", "", "color theme")
	return testRoot{root: r, out: &out, errOut: &errOut}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestReplayWritesOutput(t *testing.T) {
	tr := newTestRoot(t, "")
	src := writeScript(t, "tool rect\ncolor red\ndrag 5 5 25 25\n")
	out := filepath.Join(t.TempDir(), "out.png")

	cmd, err := parseReplayCmd([]string{"-width", "32", "-height", "32", "-output", out, src}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("output size = %v", b)
	}
	if got := color.RGBAModel.Convert(img.At(5, 5)); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("corner = %v, want red", got)
	}
	if got := color.RGBAModel.Convert(img.At(15, 15)); got != raster.White {
		t.Fatalf("center = %v, want white", got)
	}
	if !strings.Contains(tr.out.String(), "saved "+out) {
		t.Fatalf("stdout = %q", tr.out.String())
	}
}

func TestReplayFromStdinCopies(t *testing.T) {
	tr := newTestRoot(t, "click 2 2\nstatus\n")
	var copied image.Image
	original := writeClipboardFn
	writeClipboardFn = func(img image.Image) error { copied = img; return nil }
	t.Cleanup(func() { writeClipboardFn = original })

	cmd, err := parseReplayCmd([]string{"-width", "8", "-height", "4", "-copy", "-"}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if copied == nil || copied.Bounds().Dx() != 8 {
		t.Fatalf("clipboard image = %v", copied)
	}
	for _, want := range []string{"size=8x4 undo=1", "copied to clipboard"} {
		if !strings.Contains(tr.out.String(), want) {
			t.Errorf("stdout %q missing %q", tr.out.String(), want)
		}
	}
}

func TestReplayCopyError(t *testing.T) {
	tr := newTestRoot(t, "")
	sentinel := errors.New("no display")
	original := writeClipboardFn
	writeClipboardFn = func(image.Image) error { return sentinel }
	t.Cleanup(func() { writeClipboardFn = original })

	cmd, err := parseReplayCmd([]string{"-copy", "-"}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "failed to copy to clipboard"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestReplayScriptErrors(t *testing.T) {
	tr := newTestRoot(t, "")
	src := writeScript(t, "tool pen\nspray 1 1\n")
	cmd, err := parseReplayCmd([]string{src}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if !errors.Is(err, script.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if !strings.Contains(err.Error(), src) || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error %q lacks file and line", err)
	}

	src = writeScript(t, "color nope\n")
	cmd, _ = parseReplayCmd([]string{src}, tr.root)
	if err := cmd.Run(); !errors.Is(err, raster.ErrInvalidColor) {
		t.Fatalf("expected invalid color, got %v", err)
	}
}

func TestParseReplayUsage(t *testing.T) {
	tr := newTestRoot(t, "")
	_, err := parseReplayCmd(nil, tr.root)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if want := "Usage: doodle replay"; !strings.Contains(uerr.Error(), want) {
		t.Fatalf("help %q does not contain %q", uerr.Error(), want)
	}
	if !strings.Contains(uerr.Error(), "-output") {
		t.Fatalf("help does not list flags: %q", uerr.Error())
	}

	_, err = parseReplayCmd([]string{"-width", "0", "x"}, tr.root)
	if !errors.Is(err, session.ErrInvalidSize) {
		t.Fatalf("expected invalid size, got %v", err)
	}
}

func TestInteractiveExecs(t *testing.T) {
	tr := newTestRoot(t, "")
	cmd, err := parseInteractiveCmd([]string{"-width", "10", "-height", "10", "-e", "undo", "-e", "tool circle", "-e", "status"}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"nothing to undo", "tool=circle", "size=10x10"} {
		if !strings.Contains(tr.out.String(), want) {
			t.Errorf("stdout %q missing %q", tr.out.String(), want)
		}
	}

	cmd, _ = parseInteractiveCmd([]string{"-e", "bogus"}, tr.root)
	if err := cmd.Run(); !errors.Is(err, script.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestInteractiveSession(t *testing.T) {
	tr := newTestRoot(t, "help\nwidth 7\nnonsense\nstatus\nexit\nstatus\n")
	cmd, err := parseInteractiveCmd([]string{"-width", "6", "-height", "6"}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := tr.out.String()
	if !strings.Contains(out, "drag <x0> <y0> <x1> <y1> [steps]") {
		t.Errorf("help output missing drag usage: %q", out)
	}
	if strings.Count(out, "width=7") != 1 {
		t.Errorf("expected exactly one status line after exit: %q", out)
	}
	if !strings.Contains(tr.errOut.String(), "line 3") {
		t.Errorf("stderr %q does not report the bad line", tr.errOut.String())
	}
}

func TestParseOpenFlags(t *testing.T) {
	tr := newTestRoot(t, "")
	if _, err := parseOpenCmd([]string{"-file", "a.png", "-paste"}, tr.root); err == nil {
		t.Fatalf("expected error combining -file and -paste")
	}
	if _, err := parseOpenCmd([]string{"extra"}, tr.root); err == nil {
		t.Fatalf("expected usage error for extra arguments")
	}
	cmd, err := parseOpenCmd(nil, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.width != 1024 || cmd.height != 768 {
		t.Fatalf("default size = %dx%d", cmd.width, cmd.height)
	}
}

func TestOpenSessionOptions(t *testing.T) {
	tr := newTestRoot(t, "")
	original := readClipboardFn
	readClipboardFn = func() (image.Image, error) { return image.NewRGBA(image.Rect(0, 0, 40, 30)), nil }
	t.Cleanup(func() { readClipboardFn = original })

	cmd, err := parseOpenCmd([]string{"-paste", "-tool", "line", "-color", "navy", "-pen", "9"}, tr.root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts, err := cmd.sessionOptions()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	s := cmd.newSession(cmd.width, cmd.height, opts...)
	if w, h := s.Size(); w != 40 || h != 30 {
		t.Fatalf("size = %dx%d, want the clipboard image size", w, h)
	}
	if s.Tool() != session.ToolLine || s.Color() != "#000080" || s.Width() != 9 {
		t.Fatalf("session = %s %s %d", s.Tool(), s.Color(), s.Width())
	}

	cmd, _ = parseOpenCmd([]string{"-tool", "spray"}, tr.root)
	if _, err := cmd.sessionOptions(); err == nil {
		t.Fatalf("expected unknown tool error")
	}
	cmd, _ = parseOpenCmd([]string{"-background", "nope"}, tr.root)
	if _, err := cmd.sessionOptions(); !errors.Is(err, raster.ErrInvalidColor) {
		t.Fatalf("expected invalid background, got %v", err)
	}
}

func TestConfigDrivesSession(t *testing.T) {
	tr := newTestRoot(t, "")
	tr.config.Drawing = config.Drawing{Tool: "eraser", Color: "#123456", Width: 5, HistoryDepth: 1}
	s := tr.newSession(4, 4)
	if s.Tool() != session.ToolEraser || s.Color() != "#123456" || s.Width() != 5 {
		t.Fatalf("session = %s %s %d", s.Tool(), s.Color(), s.Width())
	}
	s.Clear()
	s.Clear()
	if undo, _ := s.HistoryLen(); undo != 1 {
		t.Fatalf("history depth not applied: %d", undo)
	}
}

func TestOutputPath(t *testing.T) {
	tr := newTestRoot(t, "")
	if got := tr.outputPath("a.png"); got != "a.png" {
		t.Fatalf("outputPath = %q", got)
	}
	tr.config.SaveDir = "/tmp/drawings"
	tr.config.Output = "default.pdf"
	if got := tr.outputPath("a.png"); got != filepath.Join("/tmp/drawings", "a.png") {
		t.Fatalf("outputPath = %q", got)
	}
	if got := tr.outputPath(""); got != filepath.Join("/tmp/drawings", "default.pdf") {
		t.Fatalf("outputPath(\"\") = %q", got)
	}
	abs := filepath.Join(t.TempDir(), "x.png")
	if got := tr.outputPath(abs); got != abs {
		t.Fatalf("absolute path rewritten to %q", got)
	}
}

func TestListCommands(t *testing.T) {
	tr := newTestRoot(t, "")
	for _, run := range []func() error{
		func() error { c, err := parseColorsCmd(nil, tr.root); return joinRun(c, err) },
		func() error { c, err := parseWidthsCmd(nil, tr.root); return joinRun(c, err) },
		func() error { c, err := parseToolsCmd(nil, tr.root); return joinRun(c, err) },
	} {
		if err := run(); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	out := tr.out.String()
	for _, want := range []string{"*  0: Black", "#FF0000", "*   2px", "* freehand", "fill       f"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := parseToolsCmd([]string{"x"}, tr.root); err == nil {
		t.Fatalf("expected usage error")
	}
}

func joinRun(c runnable, err error) error {
	if err != nil {
		return err
	}
	return c.Run()
}

func TestRootRun(t *testing.T) {
	tr := newTestRoot(t, "")
	err := tr.Run(nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) || !strings.Contains(uerr.Error(), "replay") {
		t.Fatalf("expected root usage, got %v", err)
	}

	tr = newTestRoot(t, "")
	if err := tr.Run([]string{"frobnicate"}); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error for unknown command, got %v", err)
	}

	tr = newTestRoot(t, "")
	if err := tr.Run([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(tr.out.String(), "doodle version "+version) {
		t.Fatalf("version output = %q", tr.out.String())
	}

	tr = newTestRoot(t, "")
	if err := tr.Run([]string{"config", "print"}); err != nil {
		t.Fatalf("config print: %v", err)
	}
	if !strings.Contains(tr.out.String(), "[drawing]") {
		t.Fatalf("config output = %q", tr.out.String())
	}
	if err := tr.Run([]string{"config", "bogus"}); err == nil {
		t.Fatalf("expected error for unknown config command")
	}
}

func TestResolveTheme(t *testing.T) {
	tr := newTestRoot(t, "")
	t.Setenv("DOODLE_THEME", "dark")
	if th := tr.resolveTheme(); th.Name != "Dark" {
		t.Fatalf("theme from env = %q", th.Name)
	}
	tr.themeName = "high_contrast"
	if th := tr.resolveTheme(); th.Name == "Dark" {
		t.Fatalf("flag did not override env")
	}
	tr.themeName = "missing-theme"
	if th := tr.resolveTheme(); th.Name != "Default" {
		t.Fatalf("missing theme fell back to %q", th.Name)
	}
	if !strings.Contains(tr.errOut.String(), "missing-theme") {
		t.Fatalf("no warning for missing theme: %q", tr.errOut.String())
	}
}
