package xsession

import (
	"fmt"
	"log/slog"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/alexkh/ywm/internal/xcursor"
	"github.com/jezek/xgb/xproto"
)

const (
	// Buttons grabbed on the root window.
	ButtonMove byte = 8
	ButtonAux  byte = 9

	KeyReturn    xproto.Keycode = 36
	KeyBackSpace xproto.Keycode = 22
)

const rootEventMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskPropertyChange |
	xproto.EventMaskVisibilityChange

// _NET_ACTIVE_WINDOW source indication for requests that are neither from an
// application nor a pager.
const sourceOther = 2

type atoms struct {
	wmProtocols     xproto.Atom
	wmDeleteWindow  xproto.Atom
	netActiveWindow xproto.Atom
	netWMName       xproto.Atom
}

func (s *Session) internAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// Manage prepares the root window for window management: atoms, event mask,
// cursor, button and key grabs and the status line graphics contexts.
func (s *Session) Manage() error {
	var err error
	for _, a := range []struct {
		atom *xproto.Atom
		name string
	}{
		{&s.atoms.wmProtocols, "WM_PROTOCOLS"},
		{&s.atoms.wmDeleteWindow, "WM_DELETE_WINDOW"},
		{&s.atoms.netActiveWindow, "_NET_ACTIVE_WINDOW"},
		{&s.atoms.netWMName, "_NET_WM_NAME"},
	} {
		if *a.atom, err = s.internAtom(a.name); err != nil {
			return err
		}
	}

	if err := xproto.ChangeWindowAttributesChecked(s.conn, s.root,
		xproto.CwEventMask, []uint32{rootEventMask}).Check(); err != nil {
		return fmt.Errorf("select root events: %w", err)
	}

	if err := xcursor.SetWindowCursor(s.conn, s.root, xcursor.LeftPtr); err != nil {
		return fmt.Errorf("set root cursor: %w", err)
	}

	for _, button := range []byte{ButtonMove, ButtonAux} {
		if err := xproto.GrabButtonChecked(s.conn, false, s.root,
			xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
			xproto.GrabModeAsync, xproto.GrabModeAsync,
			s.root, xproto.CursorNone, button, xproto.ModMaskAny).Check(); err != nil {
			return fmt.Errorf("grab button %d: %w", button, err)
		}
	}

	// Each binding is grabbed with and without NumLock (Mod2).
	for _, k := range []struct {
		key  xproto.Keycode
		mods uint16
	}{
		{KeyReturn, xproto.ModMask4},
		{KeyReturn, xproto.ModMask2 | xproto.ModMask4},
		{KeyBackSpace, xproto.ModMaskControl | xproto.ModMask1},
		{KeyBackSpace, xproto.ModMask2 | xproto.ModMaskControl | xproto.ModMask1},
	} {
		if err := xproto.GrabKeyChecked(s.conn, false, s.root, k.mods, k.key,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check(); err != nil {
			return fmt.Errorf("grab key %d: %w", k.key, err)
		}
	}

	if err := s.createGCs(); err != nil {
		return err
	}

	return nil
}

// checkWindow drops the error of a request whose target window has already
// been destroyed.
func checkWindow(request string, win xproto.Window, err error) error {
	if err == nil {
		return nil
	}
	if IsWindowGone(err) {
		slog.Debug("Window gone", "request", request, "window", win)
		return nil
	}
	return fmt.Errorf("%s %d: %w", request, win, err)
}

// SelectEnter asks for EnterNotify on win.
func (s *Session) SelectEnter(win xproto.Window) error {
	return checkWindow("select enter", win, xproto.ChangeWindowAttributesChecked(s.conn, win,
		xproto.CwEventMask, []uint32{xproto.EventMaskEnterWindow}).Check())
}

func (s *Session) Move(win xproto.Window, pos geom.Point) error {
	return checkWindow("move", win, s.MoveWindow(win, pos))
}

func (s *Session) MoveResize(win xproto.Window, rect geom.Rect) error {
	return checkWindow("move resize", win, s.MoveResizeWindow(win, rect))
}

func (s *Session) Raise(win xproto.Window) error {
	return checkWindow("raise", win, xproto.ConfigureWindowChecked(s.conn, win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check())
}

func (s *Session) Focus(win xproto.Window) error {
	return checkWindow("focus", win, xproto.SetInputFocusChecked(s.conn,
		xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime).Check())
}

// ActivateWindow sends the EWMH _NET_ACTIVE_WINDOW request for win to the
// root window.
func (s *Session) ActivateWindow(win xproto.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   s.atoms.netActiveWindow,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceOther, xproto.TimeCurrentTime, 0, 0, 0}),
	}

	return checkWindow("activate", win, xproto.SendEventChecked(s.conn, false, s.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes())).Check())
}

func (s *Session) GrabPointer() error {
	reply, err := xproto.GrabPointer(s.conn, false, s.root,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		s.root, xproto.CursorNone, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return fmt.Errorf("grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		slog.Warn("Pointer grab refused", "status", reply.Status)
	}
	return nil
}

func (s *Session) UngrabPointer() error {
	if err := xproto.UngrabPointerChecked(s.conn, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("ungrab pointer: %w", err)
	}
	return nil
}

// KillClient forcibly disconnects the client owning win.
func (s *Session) KillClient(win xproto.Window) error {
	return checkWindow("kill client", win, xproto.KillClientChecked(s.conn, uint32(win)).Check())
}

// SendDelete asks the client owning win to close it through WM_DELETE_WINDOW.
func (s *Session) SendDelete(win xproto.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   s.atoms.wmProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(s.atoms.wmDeleteWindow), xproto.TimeCurrentTime, 0, 0, 0}),
	}

	return checkWindow("delete", win, xproto.SendEventChecked(s.conn, false, win,
		xproto.EventMaskNoEvent, string(ev.Bytes())).Check())
}

// WindowName returns _NET_WM_NAME, or WM_NAME when the former is empty.
func (s *Session) WindowName(win xproto.Window) (string, error) {
	for _, prop := range []xproto.Atom{s.atoms.netWMName, xproto.AtomWmName} {
		reply, err := xproto.GetProperty(s.conn, false, win, prop,
			xproto.GetPropertyTypeAny, 0, 200).Reply()
		if err != nil {
			return "", checkWindow("get name", win, err)
		}
		if len(reply.Value) > 0 {
			return string(reply.Value), nil
		}
	}
	return "", nil
}
