// Package tracker follows the pointer and drags one window with it. It is the
// body of the y_move and y_resize helper processes.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/jezek/xgb/xproto"
)

// Interval between pointer samples.
const Interval = 50 * time.Millisecond

type Kind int

const (
	KindMove Kind = iota
	KindResize
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Edges returns the sign vector used by this kind of drag.
func (k Kind) Edges() geom.Edges {
	if k == KindResize {
		return geom.CenterScale
	}
	return geom.Translate
}

// Session is the part of the display connection a tracker needs.
type Session interface {
	// QueryPointer returns the root-relative pointer position and the child
	// window under it.
	QueryPointer() (geom.Point, xproto.Window, error)
	Geometry(win xproto.Window) (geom.Rect, error)
	MoveWindow(win xproto.Window, pos geom.Point) error
	MoveResizeWindow(win xproto.Window, rect geom.Rect) error
}

type Tracker struct {
	session Session
	kind    Kind
	win     xproto.Window
	anchor  geom.Anchor
	last    geom.Point
}

// New captures the drag anchor for win. A zero win selects the window
// currently under the pointer.
func New(session Session, kind Kind, win xproto.Window) (*Tracker, error) {
	pointer, child, err := session.QueryPointer()
	if err != nil {
		return nil, fmt.Errorf("query pointer: %w", err)
	}
	if win == 0 {
		win = child
	}
	if win == 0 {
		return nil, fmt.Errorf("no window under pointer")
	}

	rect, err := session.Geometry(win)
	if err != nil {
		return nil, fmt.Errorf("get geometry of %d: %w", win, err)
	}

	return &Tracker{
		session: session,
		kind:    kind,
		win:     win,
		anchor:  geom.NewAnchor(pointer, rect, kind.Edges()),
		last:    pointer,
	}, nil
}

func (t *Tracker) Window() xproto.Window {
	return t.win
}

func (t *Tracker) Anchor() geom.Anchor {
	return t.anchor
}

// Step samples the pointer once and issues at most one configure request.
// It reports whether a request was sent.
func (t *Tracker) Step() (bool, error) {
	pointer, _, err := t.session.QueryPointer()
	if err != nil {
		return false, fmt.Errorf("query pointer: %w", err)
	}
	if pointer == t.last {
		return false, nil
	}
	t.last = pointer

	rect, ok := t.anchor.Apply(pointer)
	if !ok {
		return false, nil
	}

	switch t.kind {
	case KindResize:
		err = t.session.MoveResizeWindow(t.win, rect)
	default:
		err = t.session.MoveWindow(t.win, rect.Pos())
	}
	if err != nil {
		return false, fmt.Errorf("configure %d: %w", t.win, err)
	}

	return true, nil
}

// Run steps every interval until ctx is done or a request fails.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	slog := slog.With("kind", t.kind.String(), "window", t.win)
	slog.Debug("tracking", "anchor", t.anchor.Window.String(), "pointer", t.anchor.Pointer.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := t.Step(); err != nil {
				return err
			}
		}
	}
}
