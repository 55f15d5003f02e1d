// Package session implements the drawing state machine that turns pointer
// events into edits on a raster buffer with undo and redo.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/google/uuid"

	"github.com/example/doodle/internal/history"
	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/stroke"
)

// Pen width limits and the settings of a new session.
const (
	// MinWidth is the thinnest pen width in pixels.
	MinWidth = 1
	// MaxWidth is the widest pen width in pixels.
	MaxWidth = 20
	// DefaultWidth is the pen width of a new session.
	DefaultWidth = 2
	// DefaultColor is the pen color of a new session.
	DefaultColor = "#000000"
)

// ErrInvalidSize is returned by Resize for non-positive dimensions.
var ErrInvalidSize = errors.New("invalid canvas size")

// State is the pointer state of a session.
type State int

const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	if s == StateDrawing {
		return "drawing"
	}
	return "idle"
}

// Session owns a canvas, its history and the active tool settings.
// A Session is not safe for concurrent use.
type Session struct {
	id string

	tool     Tool
	colorHex string
	color    color.RGBA
	width    int

	buf      *raster.Buffer
	hist     *history.Stack
	renderer *stroke.Renderer

	state     State
	preStroke raster.Snapshot
	path      []raster.Point

	logger   *log.Logger
	onChange func()
}

// Option configures a Session.
type Option func(*Session)

// WithTool sets the initial tool.
func WithTool(t Tool) Option { return func(s *Session) { s.tool = t } }

// WithColor sets the initial stroke color. Invalid values are ignored.
func WithColor(hex string) Option { return func(s *Session) { _ = s.SetColor(hex) } }

// WithWidth sets the initial pen width.
func WithWidth(w int) Option { return func(s *Session) { s.SetWidth(w) } }

// WithHistoryDepth caps the number of undo steps kept. Zero means unbounded.
func WithHistoryDepth(n int) Option { return func(s *Session) { s.hist.MaxDepth = n } }

// WithBackground fills the initial canvas with c.
func WithBackground(c color.RGBA) Option { return func(s *Session) { s.buf.Fill(c) } }

// WithImage starts the session from a copy of img, taking its size.
func WithImage(img image.Image) Option {
	return func(s *Session) { s.buf = raster.FromImage(img) }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithOnChange registers fn to be called after every visible change to the
// canvas.
func WithOnChange(fn func()) Option { return func(s *Session) { s.onChange = fn } }

// New creates a session with a transparent w×h canvas.
func New(w, h int, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		tool:     ToolFreehand,
		colorHex: DefaultColor,
		color:    color.RGBA{A: 0xff},
		width:    DefaultWidth,
		buf:      raster.New(w, h),
		hist:     history.New(0),
		renderer: stroke.NewRenderer(),
		logger:   log.Default(),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

// ID identifies the session in logs and exported metadata.
func (s *Session) ID() string { return s.id }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SelectTool makes t active. Selecting the active tool changes nothing.
// Switching tools while a stroke is in progress ends the stroke.
func (s *Session) SelectTool(t Tool) {
	if t == s.tool {
		return
	}
	if _, ok := toolNames[t]; !ok {
		return
	}
	s.endStroke()
	s.tool = t
}

// Color returns the active color as "#RRGGBB".
func (s *Session) Color() string { return s.colorHex }

// SetColor sets the stroke and fill color from a hex string. On error the
// previous color stays active.
func (s *Session) SetColor(hex string) error {
	c, err := raster.ParseHex(hex)
	if err != nil {
		return err
	}
	s.color = c
	s.colorHex = raster.Hex(c)
	return nil
}

// Width returns the pen width in pixels.
func (s *Session) Width() int { return s.width }

// SetWidth sets the pen width, clamped to [MinWidth, MaxWidth], and returns
// the value applied.
func (s *Session) SetWidth(w int) int {
	s.width = min(max(w, MinWidth), MaxWidth)
	return s.width
}

// State reports whether a stroke is in progress.
func (s *Session) State() State { return s.state }

// Image returns the live canvas.
func (s *Session) Image() *image.RGBA { return s.buf.RGBA() }

// Buffer returns the canvas buffer.
func (s *Session) Buffer() *raster.Buffer { return s.buf }

// Size returns the canvas dimensions.
func (s *Session) Size() (w, h int) { return s.buf.Width(), s.buf.Height() }

// CanUndo reports whether Undo has anything to restore.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo has anything to restore.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// HistoryLen returns the number of undo and redo steps held.
func (s *Session) HistoryLen() (undo, redo int) { return s.hist.Len() }

// PointerDown starts a stroke at p, or flood fills at p with the fill tool.
func (s *Session) PointerDown(p raster.Point) {
	s.endStroke()
	if s.tool == ToolFill {
		s.fill(p)
		return
	}
	snap := s.buf.Snapshot()
	s.hist.PushUndo(snap)
	s.preStroke = snap
	s.path = append(s.path[:0], p)
	s.state = StateDrawing
}

// PointerMove redraws the stroke in progress from its pre-stroke snapshot
// through p. It does nothing when idle.
func (s *Session) PointerMove(p raster.Point) {
	if s.state != StateDrawing {
		return
	}
	kind, ok := s.tool.strokeKind()
	if !ok {
		return
	}
	if kind == stroke.Freehand || kind == stroke.Eraser {
		s.path = append(s.path, p)
	} else {
		s.path = append(s.path[:1], p)
	}
	if err := s.buf.Restore(s.preStroke); err != nil {
		s.logger.Printf("session %s: preview: %v", s.id, err)
		return
	}
	s.renderer.Render(s.buf.RGBA(), kind, s.path, stroke.Style{Color: s.color, Width: float64(s.width)})
	s.changed()
}

// PointerUp ends the stroke in progress. The last preview is the result.
func (s *Session) PointerUp() { s.endStroke() }

// PointerLeave is PointerUp for a pointer leaving the canvas.
func (s *Session) PointerLeave() { s.endStroke() }

func (s *Session) endStroke() {
	if s.state != StateDrawing {
		return
	}
	s.state = StateIdle
	s.preStroke = raster.Snapshot{}
	s.path = s.path[:0]
}

func (s *Session) fill(p raster.Point) {
	seed := p.Pixel()
	if !seed.In(s.buf.Bounds()) {
		return
	}
	s.hist.PushUndo(s.buf.Snapshot())
	if _, err := raster.FloodFill(s.buf, seed, s.colorHex); err != nil {
		s.logger.Printf("session %s: fill at %v: %v", s.id, seed, err)
		return
	}
	s.changed()
}

// Undo restores the state before the most recent edit. It reports false
// when there is nothing to undo.
func (s *Session) Undo() bool {
	s.endStroke()
	prev, ok := s.hist.Undo(s.buf.Snapshot())
	if !ok {
		return false
	}
	return s.restore(prev, "undo")
}

// Redo reapplies the most recently undone edit.
func (s *Session) Redo() bool {
	s.endStroke()
	next, ok := s.hist.Redo(s.buf.Snapshot())
	if !ok {
		return false
	}
	return s.restore(next, "redo")
}

func (s *Session) restore(snap raster.Snapshot, op string) bool {
	if err := s.buf.Restore(snap); err != nil {
		s.logger.Printf("session %s: %s: %v", s.id, op, err)
		return false
	}
	s.changed()
	return true
}

// Clear paints the canvas white as an undoable edit.
func (s *Session) Clear() {
	s.endStroke()
	s.hist.PushUndo(s.buf.Snapshot())
	s.buf.Fill(raster.White)
	s.changed()
}

// Resize reallocates the canvas to w×h keeping the top-left content.
// Stored history and any stroke in progress are cropped or padded the same
// way so they stay restorable.
func (s *Session) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", w, h, ErrInvalidSize)
	}
	if w == s.buf.Width() && h == s.buf.Height() {
		return nil
	}
	s.buf = s.buf.Resized(w, h)
	if s.state == StateDrawing {
		s.preStroke = s.preStroke.Resized(w, h)
	}
	s.hist.Rebase(func(snap raster.Snapshot) raster.Snapshot { return snap.Resized(w, h) })
	s.changed()
	return nil
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
