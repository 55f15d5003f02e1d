package appstate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/doodle/internal/raster"
	"github.com/example/doodle/internal/session"
	"github.com/example/doodle/internal/theme"
)

const (
	bottomHeight = 24
	buttonHeight = 24
	swatchSize   = 16
	swatchStep   = 18
	widthRowH    = 16
	sectionGap   = 4

	minToolbarWidth = 48
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// PaletteColor is a named swatch offered by the toolbar.
type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var (
	paletteMu sync.RWMutex
	palette   = []color.RGBA{
		{0, 0, 0, 255},       // black
		{255, 255, 255, 255}, // white
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{255, 255, 0, 255},
		{0, 255, 255, 255},
		{255, 0, 255, 255},
		{128, 0, 0, 255},
		{0, 128, 0, 255},
		{0, 0, 128, 255},
		{128, 128, 0, 255},
		{0, 128, 128, 255},
		{128, 0, 128, 255},
		{192, 192, 192, 255},
		{128, 128, 128, 255},
	}
	paletteNames = []string{
		"Black",
		"White",
		"Red",
		"Lime",
		"Blue",
		"Yellow",
		"Cyan",
		"Magenta",
		"Maroon",
		"Green",
		"Navy",
		"Olive",
		"Teal",
		"Purple",
		"Silver",
		"Gray",
	}
)

var widths = []int{1, 2, 4, 6, 8, 12, 20}

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// PaletteColors returns the toolbar swatches with their display names.
func PaletteColors() []PaletteColor {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	out := make([]PaletteColor, len(palette))
	for i := range palette {
		out[i] = PaletteColor{Name: paletteNames[i], Color: palette[i]}
	}
	return out
}

// EnsurePaletteColor makes sure hex is offered as a swatch and returns its
// index. Unknown colors are appended under their hex name.
func EnsurePaletteColor(hex string) (int, error) {
	col, err := raster.ParseHex(hex)
	if err != nil {
		return 0, err
	}
	paletteMu.Lock()
	defer paletteMu.Unlock()
	for idx, existing := range palette {
		if existing == col {
			return idx, nil
		}
	}
	palette = append(palette, col)
	paletteNames = append(paletteNames, raster.Hex(col))
	return len(palette) - 1, nil
}

// paletteIndex returns the swatch matching hex or -1.
func paletteIndex(hex string) int {
	col, err := raster.ParseHex(hex)
	if err != nil {
		return -1
	}
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	for i, p := range palette {
		if p == col {
			return i
		}
	}
	return -1
}

func paletteLen() int {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return len(palette)
}

func paletteColorAt(idx int) color.RGBA {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	if len(palette) == 0 {
		return color.RGBA{}
	}
	idx = max(0, min(idx, len(palette)-1))
	return palette[idx]
}

// WidthOptions returns a copy of the widths offered by the toolbar.
func WidthOptions() []int {
	out := make([]int, len(widths))
	copy(out, widths)
	return out
}

// widthIndex returns the option closest to w without exceeding it.
func widthIndex(w int) int {
	idx := 0
	for i, o := range widths {
		if o <= w {
			idx = i
		}
	}
	return idx
}

// stepWidth moves dir options up or down from the current width.
func stepWidth(current, dir int) int {
	idx := widthIndex(current)
	if widths[idx] < current && dir < 0 {
		return widths[idx]
	}
	idx = max(0, min(idx+dir, len(widths)-1))
	return widths[idx]
}

// toolLabel is the toolbar caption of t, prefixed with its key.
func toolLabel(t session.Tool) string {
	switch t {
	case session.ToolFreehand:
		return "P:Pen"
	case session.ToolRectangle:
		return "R:Rect"
	case session.ToolCircle:
		return "C:Circle"
	case session.ToolLine:
		return "L:Line"
	case session.ToolEraser:
		return "E:Erase"
	case session.ToolFill:
		return "F:Fill"
	}
	return strings.ToUpper(t.String())
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// normalizeKey folds case and drops shift from plain keys so that '+' and
// 'P' resolve the same way on every layout. Letters are matched by rune even
// when the driver only reports a key code or a control character.
func normalizeKey(e key.Event) KeyShortcut {
	r := e.Rune
	switch {
	case r > 0 && r < 0x20 && e.Modifiers&key.ModControl != 0:
		r = 'a' + r - 1
	case r <= 0 && e.Code >= key.CodeA && e.Code <= key.CodeZ:
		r = 'a' + rune(e.Code-key.CodeA)
	}
	ks := KeyShortcut{Code: e.Code, Modifiers: e.Modifiers & (key.ModControl | key.ModShift)}
	if r > 0 {
		ks = KeyShortcut{Rune: unicode.ToLower(r), Modifiers: ks.Modifiers}
	}
	if ks.Modifiers&key.ModControl == 0 {
		ks.Modifiers &^= key.ModShift
	}
	return ks
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

func buttonFill(th *theme.Theme, state ButtonState) color.RGBA {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover
	case StatePressed:
		return th.ButtonBackgroundPress
	}
	return th.ButtonBackground
}

// Shortcut is a labelled action in the bottom bar.
type Shortcut struct {
	label  string
	action func()
	rect   image.Rectangle
	theme  *theme.Theme
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, s.rect, &image.Uniform{buttonFill(s.theme, state)}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, s.theme.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(s.theme.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func (s *Shortcut) SetRect(r image.Rectangle) { s.rect = r }

func (s *Shortcut) Activate() {
	if s.action != nil {
		s.action()
	}
}

// ToolButton represents a toolbar button that selects a drawing tool.
type ToolButton struct {
	label string
	tool  session.Tool
	rect  image.Rectangle
	theme *theme.Theme
	// onSelect is called when the button is activated.
	onSelect func(session.Tool)
}

func (tb *ToolButton) Draw(dst *image.RGBA, state ButtonState) {
	draw.Draw(dst, tb.rect, &image.Uniform{buttonFill(tb.theme, state)}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(tb.theme.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *ToolButton) Rect() image.Rectangle { return tb.rect }

func (tb *ToolButton) SetRect(r image.Rectangle) { tb.rect = r }

func (tb *ToolButton) Activate() {
	if tb.onSelect != nil {
		tb.onSelect(tb.tool)
	}
}

// toolbarWidthFor sizes the toolbar so every label and the title fit.
func toolbarWidthFor(labels ...string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	w := minToolbarWidth
	for _, lbl := range append([]string{"Doodle"}, labels...) {
		w = max(w, d.MeasureString(lbl).Ceil()+8)
	}
	return w
}

// region identifies the part of the window under the pointer.
type region int

const (
	regionCanvas region = iota
	regionTool
	regionSwatch
	regionWidth
	regionShortcut
	regionToolbar
	regionNone
)

// layout holds the geometry of the window chrome. The canvas occupies
// everything right of the toolbar and above the shortcut bar, with buffer
// pixel (0,0) at the top-left of that area.
type layout struct {
	toolbarWidth int
	width        int
	height       int
	tools        int
	swatches     int
}

func (l layout) canvasRect() image.Rectangle {
	w, h := l.canvasSize()
	return image.Rectangle{Min: image.Pt(l.toolbarWidth, 0), Max: image.Pt(l.toolbarWidth+w, h)}
}

// canvasSize is the buffer size matching the window.
func (l layout) canvasSize() (int, int) {
	return max(l.width-l.toolbarWidth, 0), max(l.height-bottomHeight, 0)
}

func (l layout) toolRect(i int) image.Rectangle {
	y := i * buttonHeight
	return image.Rect(0, y, l.toolbarWidth, y+buttonHeight)
}

func (l layout) paletteCols() int { return max(1, (l.toolbarWidth-4)/swatchStep) }

func (l layout) paletteTop() int { return l.tools*buttonHeight + sectionGap }

func (l layout) swatchRect(i int) image.Rectangle {
	cols := l.paletteCols()
	x := 4 + (i%cols)*swatchStep
	y := l.paletteTop() + (i/cols)*swatchStep
	return image.Rect(x, y, x+swatchSize, y+swatchSize)
}

func (l layout) widthsTop() int {
	rows := (l.swatches + l.paletteCols() - 1) / l.paletteCols()
	return l.paletteTop() + rows*swatchStep + sectionGap
}

func (l layout) widthRect(i int) image.Rectangle {
	y := l.widthsTop() + i*widthRowH
	return image.Rect(0, y, l.toolbarWidth, y+widthRowH)
}

// hit reports the region containing p and the index of the element within it.
func (l layout) hit(p image.Point) (region, int) {
	switch {
	case p.In(l.canvasRect()):
		return regionCanvas, 0
	case p.Y >= l.height-bottomHeight:
		return regionShortcut, -1
	case p.X < 0 || p.X >= l.toolbarWidth || p.Y < 0:
		return regionNone, -1
	}
	if i := p.Y / buttonHeight; i < l.tools {
		return regionTool, i
	}
	for i := 0; i < l.swatches; i++ {
		if p.In(l.swatchRect(i)) {
			return regionSwatch, i
		}
	}
	if p.Y >= l.widthsTop() {
		if i := (p.Y - l.widthsTop()) / widthRowH; i < len(widths) {
			return regionWidth, i
		}
	}
	return regionToolbar, -1
}

// toCanvas maps a window position to buffer coordinates.
func (l layout) toCanvas(x, y float32) raster.Point {
	return raster.Pt(float64(x)-float64(l.toolbarWidth), float64(y))
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

var backdropCache *image.RGBA

// drawBackdrop fills r of dst with a cached checkerboard so transparent
// canvas pixels stay visible.
func drawBackdrop(dst *image.RGBA, r image.Rectangle, th *theme.Theme) {
	size := image.Rectangle{Max: r.Size()}
	if backdropCache == nil || backdropCache.Bounds() != size {
		backdropCache = image.NewRGBA(size)
		drawCheckerboard(backdropCache, size, 8, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, r, backdropCache, image.Point{}, draw.Src)
}

func drawRect(dst *image.RGBA, r image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	for i := 0; i < thick; i++ {
		in := r.Inset(i)
		if in.Empty() {
			return
		}
		draw.Draw(dst, image.Rect(in.Min.X, in.Min.Y, in.Max.X, in.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Min.X, in.Max.Y-1, in.Max.X, in.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Min.X, in.Min.Y, in.Min.X+1, in.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(in.Max.X-1, in.Min.Y, in.Max.X, in.Max.Y), u, image.Point{}, draw.Src)
	}
}

type hover struct {
	region region
	index  int
}

func drawToolbar(dst *image.RGBA, l layout, th *theme.Theme, buttons []*CacheButton, current session.Tool, colorHex string, width int, h hover) {
	draw.Draw(dst, image.Rect(0, 0, l.toolbarWidth, l.height-bottomHeight),
		&image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i, cb := range buttons {
		cb.SetRect(l.toolRect(i))
		state := StateDefault
		if cb.Button.(*ToolButton).tool == current {
			state = StatePressed
		} else if h.region == regionTool && h.index == i {
			state = StateHover
		}
		cb.Draw(dst, state)
	}

	selected := paletteIndex(colorHex)
	for i := 0; i < l.swatches; i++ {
		rect := l.swatchRect(i)
		draw.Draw(dst, rect, &image.Uniform{paletteColorAt(i)}, image.Point{}, draw.Src)
		if h.region == regionSwatch && h.index == i {
			draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
		}
		if i == selected {
			drawRect(dst, rect.Inset(-1), th.Selection, 2)
		}
	}

	col, err := raster.ParseHex(colorHex)
	if err != nil {
		col = th.ButtonText
	}
	for i, w := range widths {
		rect := l.widthRect(i)
		state := StateDefault
		if w == width {
			state = StatePressed
		} else if h.region == regionWidth && h.index == i {
			state = StateHover
		}
		draw.Draw(dst, rect, &image.Uniform{buttonFill(th, state)}, image.Point{}, draw.Src)
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13, Dot: fixed.P(4, rect.Min.Y+12)}
		d.DrawString(fmt.Sprintf("%d", w))
		lineH := min(w, widthRowH-4)
		y := rect.Min.Y + (widthRowH-lineH)/2
		draw.Draw(dst, image.Rect(30, y, l.toolbarWidth-4, y+lineH), &image.Uniform{col}, image.Point{}, draw.Src)
	}
}

// placeShortcuts lays the shortcut buttons out left to right along the
// bottom bar.
func placeShortcuts(l layout, shortcuts []Shortcut) {
	x := 4
	y := l.height - bottomHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for i := range shortcuts {
		sc := &shortcuts[i]
		w := meas.MeasureString(sc.label).Ceil()
		sc.SetRect(image.Rect(x-2, y-14, x+w+2, y+4))
		x = sc.rect.Max.X + 8
	}
}

func drawShortcuts(dst *image.RGBA, l layout, shortcuts []Shortcut, hoverIdx int, status string, th *theme.Theme) {
	rect := image.Rect(0, l.height-bottomHeight, l.width, l.height)
	draw.Draw(dst, rect, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	x := 4
	for i := range shortcuts {
		state := StateDefault
		if i == hoverIdx {
			state = StateHover
		}
		shortcuts[i].Draw(dst, state)
		x = shortcuts[i].rect.Max.X + 8
	}
	if status != "" {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
			Dot: fixed.P(x+8, l.height-bottomHeight+16)}
		d.DrawString(status)
	}
}

// shortcutAt returns the index of the shortcut containing p or -1.
func shortcutAt(shortcuts []Shortcut, p image.Point) int {
	for i, sc := range shortcuts {
		if p.In(sc.rect) {
			return i
		}
	}
	return -1
}
