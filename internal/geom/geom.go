// Package geom holds the rectangle maths shared by the window manager and the
// pointer-tracking helpers.
package geom

import "fmt"

type Point struct {
	X int
	Y int
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

type Size struct {
	Width  int
	Height int
}

type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Pos() Point {
	return Point{X: r.X, Y: r.Y}
}

func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Valid reports whether both dimensions are at least one pixel.
func (r Rect) Valid() bool {
	return r.Width >= 1 && r.Height >= 1
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Edges is the per-edge sign vector of a drag. Each field is -1, 0 or +1 and
// scales the pointer displacement applied to that edge.
type Edges struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

var (
	// Translate moves every edge with the pointer.
	Translate = Edges{Top: 1, Right: 1, Bottom: 1, Left: 1}
	// CenterScale grows or shrinks all four edges in lock-step about the
	// window's center.
	CenterScale = Edges{Top: 1, Right: 1, Bottom: -1, Left: -1}
)

// Anchor is the pointer position and window rectangle captured when a drag
// starts.
type Anchor struct {
	Pointer Point
	Window  Rect
	Edges   Edges
}

func NewAnchor(pointer Point, window Rect, edges Edges) Anchor {
	return Anchor{
		Pointer: pointer,
		Window:  window,
		Edges:   edges,
	}
}

// Apply computes the window rectangle for the pointer at p. The result only
// depends on the anchor and p. It returns false when the width or height
// would drop below one pixel.
func (a Anchor) Apply(p Point) (Rect, bool) {
	d := p.Sub(a.Pointer)
	e := a.Edges

	r := Rect{
		X:      a.Window.X + d.X*e.Left,
		Y:      a.Window.Y + d.Y*e.Top,
		Width:  a.Window.Width + d.X*e.Right - d.X*e.Left,
		Height: a.Window.Height - d.Y*e.Top + d.Y*e.Bottom,
	}
	if !r.Valid() {
		return Rect{}, false
	}

	return r, true
}
