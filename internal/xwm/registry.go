package xwm

import (
	"sort"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/jezek/xgb/xproto"
)

type Flags uint8

const (
	// FlagOverrideRedirect marks a window that opted out of management when it
	// was created.
	FlagOverrideRedirect Flags = 1 << iota
	// FlagFullscreen suspends geometry caching while the window covers the
	// screen.
	FlagFullscreen
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

type Record struct {
	Window xproto.Window
	Parent xproto.Window
	Flags  Flags
	// Rect is the last geometry reported by the server.
	Rect geom.Rect
}

// Stacking offset used to cascade windows placed at the origin.
var (
	offsetBase    = geom.Point{X: 60, Y: 20}
	offsetStep    = 5
	offsetCeiling = geom.Point{X: 100, Y: 80}
)

// Registry is the window manager's view of every window it has seen created.
// It is only touched from the control loop.
type Registry struct {
	records map[xproto.Window]*Record
	screen  geom.Size
	offset  geom.Point
}

func NewRegistry(screen geom.Size) *Registry {
	return &Registry{
		records: make(map[xproto.Window]*Record),
		screen:  screen,
		offset:  offsetBase,
	}
}

// Create records a new window. An existing record for the same id is replaced.
func (r *Registry) Create(win, parent xproto.Window, overrideRedirect bool, rect geom.Rect) *Record {
	rec := &Record{
		Window: win,
		Parent: parent,
		Rect:   rect,
	}
	if overrideRedirect {
		rec.Flags |= FlagOverrideRedirect
	}
	r.records[win] = rec
	return rec
}

// Destroy removes the record of win and reports whether one existed.
func (r *Registry) Destroy(win xproto.Window) bool {
	if _, ok := r.records[win]; !ok {
		return false
	}
	delete(r.records, win)
	return true
}

// Configure caches rect for win. It reports false when the notification was
// ignored because the window is unknown, override-redirect or fullscreen.
func (r *Registry) Configure(win xproto.Window, rect geom.Rect) bool {
	rec, ok := r.Managed(win)
	if !ok || rec.Flags.Has(FlagFullscreen) {
		return false
	}
	rec.Rect = rect
	return true
}

// Map decides the placement of a freshly mapped window. A window asking for
// the origin with a size smaller than the screen is cascaded from the top
// right corner. It returns the position to request and whether one is needed.
// The cached rect is left alone until the server confirms the move.
func (r *Registry) Map(win xproto.Window) (geom.Point, bool) {
	rec, ok := r.Managed(win)
	if !ok {
		return geom.Point{}, false
	}

	rect := rec.Rect
	if rect.X != 0 || rect.Y != 0 || rect.Width >= r.screen.Width || rect.Height >= r.screen.Height {
		return geom.Point{}, false
	}

	pos := geom.Point{
		X: r.screen.Width - rect.Width - r.offset.X,
		Y: r.offset.Y,
	}

	r.offset.X += offsetStep
	r.offset.Y += offsetStep
	if r.offset.X > offsetCeiling.X {
		r.offset.X = offsetBase.X
	}
	if r.offset.Y > offsetCeiling.Y {
		r.offset.Y = offsetBase.Y
	}

	return pos, true
}

// ToggleFullscreen flips win between fullscreen and its cached geometry and
// returns the rectangle to request.
func (r *Registry) ToggleFullscreen(win xproto.Window) (geom.Rect, bool) {
	rec, ok := r.Managed(win)
	if !ok {
		return geom.Rect{}, false
	}

	if rec.Flags.Has(FlagFullscreen) {
		rec.Flags &^= FlagFullscreen
		return rec.Rect, true
	}

	rec.Flags |= FlagFullscreen
	return geom.Rect{Width: r.screen.Width, Height: r.screen.Height}, true
}

func (r *Registry) Lookup(win xproto.Window) (Record, bool) {
	rec, ok := r.records[win]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Managed returns the record of win unless it is unknown or override-redirect.
func (r *Registry) Managed(win xproto.Window) (*Record, bool) {
	rec, ok := r.records[win]
	if !ok || rec.Flags.Has(FlagOverrideRedirect) {
		return nil, false
	}
	return rec, true
}

func (r *Registry) Len() int {
	return len(r.records)
}

// Windows returns a copy of every record ordered by window id.
func (r *Registry) Windows() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window < out[j].Window })
	return out
}

func (r *Registry) Offset() geom.Point {
	return r.offset
}
