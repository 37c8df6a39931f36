// Package xsession is the display connection shared by the window manager and
// the pointer-tracking helpers.
package xsession

import (
	"errors"
	"fmt"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var ErrConnect = errors.New("cannot connect to display")

type Session struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	root   xproto.Window

	// Set up by Manage.
	atoms atoms
	gcs   gcs
}

// Connect opens a connection to display. An empty display uses $DISPLAY.
func Connect(display string) (*Session, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrConnect, display, err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)

	return &Session{
		conn:   conn,
		screen: screen,
		root:   screen.Root,
	}, nil
}

func (s *Session) Close() {
	s.conn.Close()
}

func (s *Session) Conn() *xgb.Conn {
	return s.conn
}

func (s *Session) Root() xproto.Window {
	return s.root
}

func (s *Session) Screen() geom.Size {
	return geom.Size{
		Width:  int(s.screen.WidthInPixels),
		Height: int(s.screen.HeightInPixels),
	}
}

// WaitForEvent blocks until the next event or asynchronous error arrives.
func (s *Session) WaitForEvent() (xgb.Event, xgb.Error) {
	return s.conn.WaitForEvent()
}

func (s *Session) QueryPointer() (geom.Point, xproto.Window, error) {
	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		return geom.Point{}, 0, err
	}

	return geom.Point{X: int(reply.RootX), Y: int(reply.RootY)}, reply.Child, nil
}

func (s *Session) Geometry(win xproto.Window) (geom.Rect, error) {
	reply, err := xproto.GetGeometry(s.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return geom.Rect{}, err
	}

	return geom.Rect{
		X:      int(reply.X),
		Y:      int(reply.Y),
		Width:  int(reply.Width),
		Height: int(reply.Height),
	}, nil
}

func (s *Session) MoveWindow(win xproto.Window, pos geom.Point) error {
	return xproto.ConfigureWindowChecked(s.conn, win,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{coord(pos.X), coord(pos.Y)}).Check()
}

func (s *Session) MoveResizeWindow(win xproto.Window, rect geom.Rect) error {
	return xproto.ConfigureWindowChecked(s.conn, win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{coord(rect.X), coord(rect.Y), uint32(rect.Width), uint32(rect.Height)}).Check()
}

// coord encodes a signed position as the server expects it in a value list.
func coord(v int) uint32 {
	return uint32(int32(v))
}

// IsWindowGone reports whether err says the target window no longer exists.
// Clients can destroy their windows at any time, so requests against them
// race with the DestroyNotify that is still queued.
func IsWindowGone(err error) bool {
	var (
		windowErr   xproto.WindowError
		drawableErr xproto.DrawableError
	)
	return errors.As(err, &windowErr) || errors.As(err, &drawableErr)
}
