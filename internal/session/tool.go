package session

import (
	"fmt"
	"strings"

	"github.com/example/doodle/internal/stroke"
)

// Tool is the active drawing tool.
type Tool int

const (
	ToolFreehand Tool = iota
	ToolRectangle
	ToolCircle
	ToolLine
	ToolEraser
	ToolFill
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolFreehand, ToolRectangle, ToolCircle, ToolLine, ToolEraser, ToolFill}

var toolNames = map[Tool]string{
	ToolFreehand:  "freehand",
	ToolRectangle: "rectangle",
	ToolCircle:    "circle",
	ToolLine:      "line",
	ToolEraser:    "eraser",
	ToolFill:      "fill",
}

// aliases accepted by ParseTool in addition to the canonical names.
var toolAliases = map[string]Tool{
	"pen":    ToolFreehand,
	"pencil": ToolFreehand,
	"rect":   ToolRectangle,
	"bucket": ToolFill,
}

func (t Tool) String() string {
	if n, ok := toolNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool resolves a tool name, case-insensitively.
func ParseTool(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range toolNames {
		if n == name {
			return t, nil
		}
	}
	if t, ok := toolAliases[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// strokeKind maps a pointer-driven tool to its renderer geometry.
func (t Tool) strokeKind() (stroke.Kind, bool) {
	switch t {
	case ToolFreehand:
		return stroke.Freehand, true
	case ToolRectangle:
		return stroke.Rectangle, true
	case ToolCircle:
		return stroke.Circle, true
	case ToolLine:
		return stroke.Line, true
	case ToolEraser:
		return stroke.Eraser, true
	}
	return 0, false
}
