package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/doodle/internal/clipboard"
	"github.com/example/doodle/internal/export"
	"github.com/example/doodle/internal/notify"
	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/session"
	"github.com/example/doodle/internal/theme"
)

// AppState holds the window configuration around a drawing session.
type AppState struct {
	Session  *session.Session
	Output   string
	Title    string
	Theme    *theme.Theme
	Notifier *notify.Notifier

	// copyImage places the canvas on the clipboard, replaced in tests.
	copyImage func(image.Image) error

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSession sets the session shown in the window.
func WithSession(s *session.Session) Option { return func(a *AppState) { a.Session = s } }

// WithOutput sets the file written by the save action.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithTheme sets the colors of the window chrome.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.Theme = th } }

// WithNotifier sets the notifier used for save and copy events.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options. Without a session a
// blank 800x600 canvas is used.
func New(opts ...Option) *AppState {
	a := &AppState{
		Output:    export.DefaultFilename,
		Title:     "Doodle",
		Theme:     theme.Default(),
		copyImage: clipboard.WriteImage,
	}
	for _, o := range opts {
		o(a)
	}
	if a.Session == nil {
		a.Session = session.New(800, 600, session.WithBackground(raster.White))
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// keyBindings maps action names to their keyboard shortcuts.
var keyBindings = map[string]shortcutList{
	"undo":           {{Rune: 'z', Modifiers: key.ModControl}},
	"redo":           {{Rune: 'y', Modifiers: key.ModControl}, {Rune: 'z', Modifiers: key.ModControl | key.ModShift}},
	"save":           {{Rune: 's', Modifiers: key.ModControl}},
	"copy":           {{Rune: 'c', Modifiers: key.ModControl}},
	"clear":          {{Rune: 'n', Modifiers: key.ModControl}},
	"tool:freehand":  {{Rune: 'p'}},
	"tool:rectangle": {{Rune: 'r'}},
	"tool:circle":    {{Rune: 'c'}},
	"tool:line":      {{Rune: 'l'}},
	"tool:eraser":    {{Rune: 'e'}},
	"tool:fill":      {{Rune: 'f'}},
	"width:wider":    {{Rune: '+'}, {Rune: '='}},
	"width:narrower": {{Rune: '-'}},
	"quit":           {{Rune: 'q'}},
}

// keymap inverts keyBindings for event lookup.
func keymap() map[KeyShortcut]string {
	out := map[KeyShortcut]string{}
	for name, keys := range keyBindings {
		for _, sc := range keys.KeyboardShortcuts() {
			out[sc] = name
		}
	}
	return out
}

// perform runs a named action against the session. It returns a message
// for the overlay, which may be empty, and whether the window should close.
func (a *AppState) perform(action string) (string, bool) {
	s := a.Session
	switch action {
	case "undo":
		if !s.Undo() {
			return "nothing to undo", false
		}
	case "redo":
		if !s.Redo() {
			return "nothing to redo", false
		}
	case "clear":
		s.Clear()
		return "cleared", false
	case "save":
		path, err := export.WriteFile(a.Output, s.Image())
		if err != nil {
			log.Printf("save: %v", err)
			return "save failed", false
		}
		a.Notifier.Save(path)
		msg := fmt.Sprintf("saved %s", path)
		log.Print(msg)
		return msg, false
	case "copy":
		if err := a.copyImage(s.Image()); err != nil {
			log.Printf("copy: %v", err)
			return "copy failed", false
		}
		a.Notifier.Copy("")
		msg := "image copied to clipboard"
		log.Print(msg)
		return msg, false
	case "width:wider":
		s.SetWidth(stepWidth(s.Width(), 1))
	case "width:narrower":
		s.SetWidth(stepWidth(s.Width(), -1))
	case "quit":
		return "", true
	default:
		if name, ok := strings.CutPrefix(action, "tool:"); ok {
			t, err := session.ParseTool(name)
			if err != nil {
				log.Printf("%s: %v", action, err)
				return "", false
			}
			s.SelectTool(t)
			return "", false
		}
		log.Printf("unknown action %q", action)
	}
	return "", false
}

// status is the summary shown at the end of the shortcut bar.
func status(s *session.Session) string {
	w, h := s.Size()
	return fmt.Sprintf("%s %s %dpx %dx%d", s.Tool(), s.Color(), s.Width(), w, h)
}

// handlePointer routes a mouse event that landed at region reg. It reports
// whether the window needs repainting.
func (a *AppState) handlePointer(l layout, e mouse.Event, reg region, idx int, buttons []*CacheButton) bool {
	s := a.Session
	if s.State() == session.StateDrawing {
		switch {
		case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
			if reg == regionCanvas {
				s.PointerMove(l.toCanvas(e.X, e.Y))
			}
			s.PointerUp()
		case reg != regionCanvas:
			s.PointerLeave()
		case e.Direction == mouse.DirNone:
			s.PointerMove(l.toCanvas(e.X, e.Y))
		default:
			return false
		}
		return true
	}
	if e.Button != mouse.ButtonLeft || e.Direction != mouse.DirPress {
		return false
	}
	switch reg {
	case regionCanvas:
		s.PointerDown(l.toCanvas(e.X, e.Y))
	case regionTool:
		buttons[idx].Activate()
	case regionSwatch:
		if err := s.SetColor(raster.Hex(paletteColorAt(idx))); err != nil {
			log.Printf("color: %v", err)
		}
	case regionWidth:
		s.SetWidth(widths[idx])
	default:
		return false
	}
	return true
}

type paintState struct {
	layout       layout
	canvas       *image.RGBA
	tool         session.Tool
	color        string
	width        int
	hover        hover
	shortcuts    []Shortcut
	hoverShort   int
	status       string
	message      string
	messageUntil time.Time
	buttons      []*CacheButton
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main drives the window until it is closed or quit is requested.
func (a *AppState) Main(s screen.Screen) {
	defer a.notifyClose()
	th := a.Theme

	var buttons []*CacheButton
	var labels []string
	for _, t := range session.Tools {
		labels = append(labels, toolLabel(t))
		buttons = append(buttons, &CacheButton{Button: &ToolButton{
			label:    toolLabel(t),
			tool:     t,
			theme:    th,
			onSelect: a.Session.SelectTool,
		}})
	}
	cw, ch := a.Session.Size()
	l := layout{toolbarWidth: toolbarWidthFor(labels...), tools: len(buttons), swatches: paletteLen()}
	l.width = l.toolbarWidth + cw
	l.height = ch + bottomHeight

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: l.width, Height: l.height, Title: a.Title})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	var message string
	var messageUntil time.Time
	var quit bool
	show := func(msg string) {
		if msg == "" {
			return
		}
		message = msg
		messageUntil = time.Now().Add(2 * time.Second)
	}
	run := func(action string) {
		msg, q := a.perform(action)
		show(msg)
		quit = quit || q
		w.Send(paint.Event{})
	}

	shortcuts := []Shortcut{
		{label: "^Z:undo", action: func() { run("undo") }, theme: th},
		{label: "^Y:redo", action: func() { run("redo") }, theme: th},
		{label: "^N:clear", action: func() { run("clear") }, theme: th},
		{label: "^S:save", action: func() { run("save") }, theme: th},
		{label: "^C:copy", action: func() { run("copy") }, theme: th},
		{label: "Q:quit", action: func() { run("quit") }, theme: th},
	}
	placeShortcuts(l, shortcuts)
	keys := keymap()

	frames := startPainter(func(ctx context.Context, st paintState) { drawFrame(ctx, s, w, st, th) })
	defer frames.stop()

	hov := hover{region: regionNone, index: -1}
	hoverShort := -1

	for !quit {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			l.width, l.height = e.WidthPx, e.HeightPx
			placeShortcuts(l, shortcuts)
			nw, nh := l.canvasSize()
			if cw, ch := a.Session.Size(); nw > 0 && nh > 0 && (nw != cw || nh != ch) {
				if err := a.Session.Resize(nw, nh); err != nil {
					log.Printf("resize: %v", err)
				}
			}
			w.Send(paint.Event{})
		case paint.Event:
			frames.submit(paintState{
				layout:       l,
				canvas:       cloneRGBA(a.Session.Image()),
				tool:         a.Session.Tool(),
				color:        a.Session.Color(),
				width:        a.Session.Width(),
				hover:        hov,
				shortcuts:    append([]Shortcut(nil), shortcuts...),
				hoverShort:   hoverShort,
				status:       status(a.Session),
				message:      message,
				messageUntil: messageUntil,
				buttons:      buttons,
			})
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
				w.Send(paint.Event{})
				continue
			}
			reg, idx := l.hit(p)
			if reg == regionShortcut {
				idx = shortcutAt(shortcuts, p)
			}
			drawing := a.Session.State() == session.StateDrawing
			repaint := false
			if reg == regionShortcut && !drawing {
				if idx != hoverShort {
					hoverShort = idx
					repaint = true
				}
				if idx >= 0 && e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					shortcuts[idx].Activate()
				}
			} else if hoverShort != -1 {
				hoverShort = -1
				repaint = true
			}
			if next := (hover{region: reg, index: idx}); next != hov {
				hov = next
				repaint = true
			}
			if (drawing || reg != regionShortcut) && a.handlePointer(l, e, reg, idx, buttons) {
				repaint = true
			}
			if repaint {
				w.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if action, ok := keys[normalizeKey(e)]; ok {
				run(action)
			}
		case error:
			log.Printf("window: %v", e)
		}
	}
}

// painter renders frames on its own goroutine. A newer frame cancels the
// one in progress, at most frameDropThreshold times in a row.
type painter struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	drops  int
	ch     chan paintState
	done   chan struct{}
}

func startPainter(render func(context.Context, paintState)) *painter {
	p := &painter{ch: make(chan paintState, 1), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for st := range p.ch {
			ctx, cancel := context.WithCancel(context.Background())
			p.mu.Lock()
			p.cancel = cancel
			p.mu.Unlock()
			render(ctx, st)
			p.mu.Lock()
			p.cancel = nil
			if ctx.Err() == nil {
				p.drops = 0
			}
			p.mu.Unlock()
			cancel()
		}
	}()
	return p
}

// submit queues st, replacing any frame not yet started.
func (p *painter) submit(st paintState) {
	p.mu.Lock()
	if p.cancel != nil && p.drops < frameDropThreshold {
		p.cancel()
		p.drops++
	}
	p.mu.Unlock()
	select {
	case p.ch <- st:
	default:
		select {
		case <-p.ch:
		default:
		}
		p.ch <- st
	}
}

// stop cancels the frame in progress and returns once the painter has
// exited. Nothing may be submitted afterwards.
func (p *painter) stop() {
	close(p.ch)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	<-p.done
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, th *theme.Theme) {
	l := st.layout
	b, err := s.NewBuffer(image.Point{l.width, l.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()

	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)
	area := l.canvasRect()
	canvas := st.canvas.Bounds().Add(area.Min).Intersect(area)
	drawBackdrop(dst, canvas, th)
	draw.Draw(dst, canvas, st.canvas, image.Point{}, draw.Over)
	if ctx.Err() != nil {
		return
	}

	drawToolbar(dst, l, th, st.buttons, st.tool, st.color, st.width, st.hover)
	drawShortcuts(dst, l, st.shortcuts, st.hoverShort, st.status, th)
	if ctx.Err() != nil {
		return
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
		wmsg := d.MeasureString(st.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		px := (l.width - wmsg) / 2
		py := (l.height-ascent-descent)/2 + ascent
		rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
		bg := th.ToolbarBackground
		bg.A = 230
		draw.Draw(dst, rect, &image.Uniform{color.NRGBA{bg.R, bg.G, bg.B, bg.A}}, image.Point{}, draw.Over)
		drawRect(dst, rect, th.ButtonBorder, 2)
		d.Dot = fixed.P(px, py)
		d.DrawString(st.message)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
