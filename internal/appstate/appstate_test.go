package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/session"
)

func testLayout() layout {
	return layout{toolbarWidth: 50, width: 300, height: 600, tools: len(session.Tools), swatches: 16}
}

func TestLayoutHit(t *testing.T) {
	l := testLayout()
	cases := []struct {
		p    image.Point
		reg  region
		idx  int
		name string
	}{
		{image.Pt(10, 10), regionTool, 0, "first tool"},
		{image.Pt(10, 30), regionTool, 1, "second tool"},
		{image.Pt(25, 170), regionSwatch, 3, "swatch"},
		{image.Pt(10, 330), regionWidth, 2, "width row"},
		{image.Pt(45, 150), regionToolbar, -1, "gap beside swatches"},
		{image.Pt(10, 290), regionToolbar, -1, "gap above widths"},
		{image.Pt(200, 10), regionCanvas, 0, "canvas"},
		{image.Pt(10, 590), regionShortcut, -1, "shortcut bar"},
		{image.Pt(200, 590), regionShortcut, -1, "shortcut bar right of toolbar"},
		{image.Pt(-5, 10), regionNone, -1, "outside"},
	}
	for _, tc := range cases {
		reg, idx := l.hit(tc.p)
		if reg != tc.reg || idx != tc.idx {
			t.Errorf("%s: hit(%v) = %d,%d; want %d,%d", tc.name, tc.p, reg, idx, tc.reg, tc.idx)
		}
	}
}

func TestLayoutCanvasMapping(t *testing.T) {
	l := testLayout()
	if w, h := l.canvasSize(); w != 250 || h != 576 {
		t.Fatalf("canvasSize = %dx%d, want 250x576", w, h)
	}
	if p := l.toCanvas(60.5, 7); p != raster.Pt(10.5, 7) {
		t.Fatalf("toCanvas = %v", p)
	}
	small := layout{toolbarWidth: 50, width: 20, height: 10}
	if w, h := small.canvasSize(); w != 0 || h != 0 {
		t.Fatalf("canvasSize of tiny window = %dx%d, want 0x0", w, h)
	}
}

func TestToolbarWidthFitsLabels(t *testing.T) {
	w := toolbarWidthFor("C:Circle", "a much longer label than the rest")
	if w <= minToolbarWidth {
		t.Fatalf("toolbar width %d does not grow for long labels", w)
	}
	if got := toolbarWidthFor("P"); got != toolbarWidthFor() {
		t.Fatalf("short label changed the width to %d", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   key.Event
		want KeyShortcut
	}{
		{key.Event{Rune: 'Z', Modifiers: key.ModControl | key.ModShift}, KeyShortcut{Rune: 'z', Modifiers: key.ModControl | key.ModShift}},
		{key.Event{Rune: 0x1a, Modifiers: key.ModControl}, KeyShortcut{Rune: 'z', Modifiers: key.ModControl}},
		{key.Event{Rune: -1, Code: key.CodeS, Modifiers: key.ModControl}, KeyShortcut{Rune: 's', Modifiers: key.ModControl}},
		{key.Event{Rune: '+', Code: key.CodeEqualSign, Modifiers: key.ModShift}, KeyShortcut{Rune: '+'}},
		{key.Event{Rune: 'P', Modifiers: key.ModShift}, KeyShortcut{Rune: 'p'}},
		{key.Event{Rune: 'q', Modifiers: key.ModAlt}, KeyShortcut{Rune: 'q'}},
		{key.Event{Rune: -1, Code: key.CodeEscape}, KeyShortcut{Code: key.CodeEscape}},
	}
	for _, tc := range cases {
		if got := normalizeKey(tc.in); got != tc.want {
			t.Errorf("normalizeKey(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestKeymap(t *testing.T) {
	keys := keymap()
	cases := []struct {
		ks   KeyShortcut
		want string
	}{
		{KeyShortcut{Rune: 'z', Modifiers: key.ModControl}, "undo"},
		{KeyShortcut{Rune: 'z', Modifiers: key.ModControl | key.ModShift}, "redo"},
		{KeyShortcut{Rune: 'y', Modifiers: key.ModControl}, "redo"},
		{KeyShortcut{Rune: 'c', Modifiers: key.ModControl}, "copy"},
		{KeyShortcut{Rune: 'c'}, "tool:circle"},
		{KeyShortcut{Rune: '='}, "width:wider"},
		{KeyShortcut{Rune: 'q'}, "quit"},
	}
	for _, tc := range cases {
		if got := keys[tc.ks]; got != tc.want {
			t.Errorf("keymap[%+v] = %q, want %q", tc.ks, got, tc.want)
		}
	}
	for _, tool := range session.Tools {
		if _, ok := keyBindings["tool:"+tool.String()]; !ok {
			t.Errorf("no key selects %s", tool)
		}
	}
}

func TestStepWidth(t *testing.T) {
	cases := []struct{ current, dir, want int }{
		{2, 1, 4},
		{2, -1, 1},
		{1, -1, 1},
		{20, 1, 20},
		{3, -1, 2},
		{3, 1, 4},
	}
	for _, tc := range cases {
		if got := stepWidth(tc.current, tc.dir); got != tc.want {
			t.Errorf("stepWidth(%d, %d) = %d, want %d", tc.current, tc.dir, got, tc.want)
		}
	}
}

func TestEnsurePaletteColor(t *testing.T) {
	before := len(PaletteColors())
	idx, err := EnsurePaletteColor("#ff0000")
	if err != nil || idx != 2 {
		t.Fatalf("EnsurePaletteColor(red) = %d, %v", idx, err)
	}
	if _, err := EnsurePaletteColor("nope"); !errors.Is(err, raster.ErrInvalidColor) {
		t.Fatalf("invalid color error = %v", err)
	}
	if len(PaletteColors()) != before {
		t.Fatalf("palette grew for an existing color")
	}
	if got := paletteIndex("#FFFFFF"); got != 1 {
		t.Fatalf("paletteIndex(white) = %d", got)
	}
}

func newTestApp(t *testing.T, w, h int) *AppState {
	t.Helper()
	s := session.New(w, h, session.WithBackground(raster.White))
	return New(WithSession(s), WithOutput(filepath.Join(t.TempDir(), "out.png")))
}

func TestPerformActions(t *testing.T) {
	a := newTestApp(t, 20, 20)
	if msg, _ := a.perform("undo"); msg != "nothing to undo" {
		t.Fatalf("undo on empty history = %q", msg)
	}
	a.perform("tool:rectangle")
	if a.Session.Tool() != session.ToolRectangle {
		t.Fatalf("tool = %v", a.Session.Tool())
	}
	a.perform("width:wider")
	if a.Session.Width() != 4 {
		t.Fatalf("width = %d, want 4", a.Session.Width())
	}
	if msg, _ := a.perform("clear"); msg != "cleared" || !a.Session.CanUndo() {
		t.Fatalf("clear = %q, can undo %v", msg, a.Session.CanUndo())
	}
	a.perform("undo")
	if msg, _ := a.perform("redo"); msg != "" {
		t.Fatalf("redo = %q", msg)
	}
	if _, quit := a.perform("quit"); !quit {
		t.Fatalf("quit did not request close")
	}
}

func TestPerformSaveAndCopy(t *testing.T) {
	a := newTestApp(t, 8, 8)
	msg, _ := a.perform("save")
	if !strings.HasPrefix(msg, "saved ") {
		t.Fatalf("save message = %q", msg)
	}
	if _, err := os.Stat(a.Output); err != nil {
		t.Fatalf("saved file: %v", err)
	}

	var copied image.Image
	a.copyImage = func(img image.Image) error { copied = img; return nil }
	if msg, _ := a.perform("copy"); msg != "image copied to clipboard" || copied == nil {
		t.Fatalf("copy message %q, copied %v", msg, copied != nil)
	}
	a.copyImage = func(image.Image) error { return errors.New("no clipboard") }
	if msg, _ := a.perform("copy"); msg != "copy failed" {
		t.Fatalf("failed copy message = %q", msg)
	}
}

func TestPointerDrawsOnCanvas(t *testing.T) {
	a := newTestApp(t, 100, 100)
	a.Session.SelectTool(session.ToolLine)
	if err := a.Session.SetColor("#ff0000"); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	l := layout{toolbarWidth: 50, width: 150, height: 100 + bottomHeight, tools: len(session.Tools), swatches: 16}

	send := func(x, y float32, b mouse.Button, d mouse.Direction) {
		p := image.Pt(int(x), int(y))
		reg, idx := l.hit(p)
		a.handlePointer(l, mouse.Event{X: x, Y: y, Button: b, Direction: d}, reg, idx, nil)
	}
	send(60, 50, mouse.ButtonLeft, mouse.DirPress)
	if a.Session.State() != session.StateDrawing {
		t.Fatalf("state after press = %v", a.Session.State())
	}
	send(140, 50, mouse.ButtonNone, mouse.DirNone)
	send(140, 50, mouse.ButtonLeft, mouse.DirRelease)
	if a.Session.State() != session.StateIdle {
		t.Fatalf("state after release = %v", a.Session.State())
	}
	red := color.RGBA{R: 255, A: 255}
	if c, _ := a.Session.Buffer().At(50, 50); c != red {
		t.Fatalf("line pixel = %v, want red", c)
	}
	if c, _ := a.Session.Buffer().At(50, 80); c != raster.White {
		t.Fatalf("pixel off the line = %v, want white", c)
	}
}

func TestPointerLeavingCanvasEndsStroke(t *testing.T) {
	a := newTestApp(t, 100, 100)
	l := layout{toolbarWidth: 50, width: 150, height: 100 + bottomHeight, tools: len(session.Tools), swatches: 16}
	a.handlePointer(l, mouse.Event{X: 70, Y: 20, Button: mouse.ButtonLeft, Direction: mouse.DirPress}, regionCanvas, 0, nil)
	a.handlePointer(l, mouse.Event{X: 10, Y: 20, Direction: mouse.DirNone}, regionTool, 0, nil)
	if a.Session.State() != session.StateIdle {
		t.Fatalf("state after leaving = %v", a.Session.State())
	}
	if undo, _ := a.Session.HistoryLen(); undo != 1 {
		t.Fatalf("undo depth = %d, want 1", undo)
	}
}

func TestPointerSelectsFromToolbar(t *testing.T) {
	a := newTestApp(t, 100, 100)
	l := testLayout()
	var buttons []*CacheButton
	for _, tool := range session.Tools {
		buttons = append(buttons, &CacheButton{Button: &ToolButton{tool: tool, onSelect: a.Session.SelectTool}})
	}
	press := func(p image.Point) {
		reg, idx := l.hit(p)
		a.handlePointer(l, mouse.Event{X: float32(p.X), Y: float32(p.Y), Button: mouse.ButtonLeft, Direction: mouse.DirPress}, reg, idx, buttons)
	}
	press(image.Pt(10, 5*buttonHeight+2))
	if a.Session.Tool() != session.ToolFill {
		t.Fatalf("tool = %v, want fill", a.Session.Tool())
	}
	press(l.swatchRect(4).Min.Add(image.Pt(2, 2)))
	if a.Session.Color() != "#0000FF" {
		t.Fatalf("color = %s, want blue", a.Session.Color())
	}
	press(l.widthRect(5).Min.Add(image.Pt(2, 2)))
	if a.Session.Width() != 12 {
		t.Fatalf("width = %d, want 12", a.Session.Width())
	}
}

func TestDrawToolbarMarksSelection(t *testing.T) {
	a := newTestApp(t, 10, 10)
	l := testLayout()
	dst := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	var buttons []*CacheButton
	for _, tool := range session.Tools {
		buttons = append(buttons, &CacheButton{Button: &ToolButton{label: toolLabel(tool), tool: tool, theme: a.Theme}})
	}
	drawToolbar(dst, l, a.Theme, buttons, session.ToolLine, "#000000", 2, hover{region: regionNone, index: -1})
	r := l.toolRect(3)
	if got := dst.RGBAAt(r.Max.X-2, r.Max.Y-2); got != a.Theme.ButtonBackgroundPress {
		t.Fatalf("active tool background = %v", got)
	}
	r = l.toolRect(0)
	if got := dst.RGBAAt(r.Max.X-2, r.Max.Y-2); got != a.Theme.ButtonBackground {
		t.Fatalf("idle tool background = %v", got)
	}
	sw := l.swatchRect(0).Inset(-1)
	if got := dst.RGBAAt(sw.Min.X, sw.Min.Y); got != a.Theme.Selection {
		t.Fatalf("selected swatch outline = %v", got)
	}
}

func TestPainterStopWaitsForFrame(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	p := startPainter(func(ctx context.Context, st paintState) {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	p.submit(paintState{status: "frame"})
	<-started
	p.stop()
	if !finished.Load() {
		t.Fatalf("stop returned while a frame was still drawing")
	}
}

func TestPainterCancelsStaleFrame(t *testing.T) {
	var mu sync.Mutex
	var drawn []string
	started := make(chan struct{}, 2)
	p := startPainter(func(ctx context.Context, st paintState) {
		started <- struct{}{}
		if st.status == "slow" {
			<-ctx.Done()
		}
		mu.Lock()
		drawn = append(drawn, st.status)
		mu.Unlock()
	})
	p.submit(paintState{status: "slow"})
	<-started
	p.submit(paintState{status: "fast"})
	<-started
	p.stop()

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(drawn, ",") != "slow,fast" {
		t.Fatalf("drawn = %v, want [slow fast]", drawn)
	}
}
