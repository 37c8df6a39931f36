package xwm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/alexkh/ywm/internal/helper"
	"github.com/alexkh/ywm/internal/tracker"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/k0kubun/pp"
)

func init() {
	pp.ColoringEnabled = false
}

// Bindings.
const (
	buttonPrimary    xproto.Button = 8
	buttonSecondary  xproto.Button = 9
	buttonTertiary   xproto.Button = 3
	buttonMiddle     xproto.Button = 2
	buttonQuaternary xproto.Button = 4
	buttonQuinary    xproto.Button = 5

	keyTerminal xproto.Keycode = 36
	keyQuit     xproto.Keycode = 22
)

// Display is the part of the display session the controller drives.
type Display interface {
	Root() xproto.Window
	Screen() geom.Size

	SelectEnter(win xproto.Window) error
	Move(win xproto.Window, pos geom.Point) error
	MoveResize(win xproto.Window, rect geom.Rect) error
	Raise(win xproto.Window) error
	Focus(win xproto.Window) error
	ActivateWindow(win xproto.Window) error
	GrabPointer() error
	UngrabPointer() error
	KillClient(win xproto.Window) error
	SendDelete(win xproto.Window) error
	WindowName(win xproto.Window) (string, error)
	DrawStatus(status, input, events string) error
}

// Helpers spawns and kills pointer-tracking helpers and launches commands.
type Helpers interface {
	Start(kind tracker.Kind, win xproto.Window) (helper.Handle, error)
	Stop(h helper.Handle) error
	Launch(argv []string) error
}

type Options struct {
	// Terminal is the command bound to Mod4+Return.
	Terminal []string
	// Diag receives the diagnostic log. Defaults to slog.Default.
	Diag *slog.Logger
}

// drag is the window grabbed from Normal mode and its live helper, if any.
type drag struct {
	window xproto.Window
	helper *helper.Handle
}

// Controller owns the mode, the registry and the drag session. Handle must
// only be called from a single goroutine.
type Controller struct {
	display  Display
	helpers  Helpers
	diag     *slog.Logger
	terminal []string

	registry *Registry
	mode     Mode
	drag     drag
	focus    xproto.Window
	status   Status

	snapshot atomic.Pointer[Snapshot]
}

func NewController(display Display, helpers Helpers, opts Options) *Controller {
	diag := opts.Diag
	if diag == nil {
		diag = slog.Default()
	}

	c := &Controller{
		display:  display,
		helpers:  helpers,
		diag:     diag,
		terminal: opts.Terminal,
		registry: NewRegistry(display.Screen()),
		mode:     ModeNormal,
	}
	c.publish()

	return c
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) Registry() *Registry {
	return c.registry
}

// Snapshot returns the state published after the last handled event.
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Run handles messages from eventC until ctx is done, the connection closes or
// a handler fails.
func (c *Controller) Run(ctx context.Context, eventC <-chan Msg) error {
	if err := c.draw(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-eventC:
			if !ok {
				return ErrDisconnected
			}
			if err := c.Handle(msg); err != nil {
				return err
			}
		}
	}
}

// Handle processes one message to completion and repaints the status line.
func (c *Controller) Handle(msg Msg) error {
	var ev xgb.Event
	switch msg := msg.(type) {
	case xgb.Error:
		return fmt.Errorf("protocol error: %w", msg)
	case xgb.Event:
		ev = msg
	default:
		slog.Debug("Ignoring message", "msg", pp.Sprint(msg))
		return nil
	}

	c.status.Record(eventCode(ev))

	if err := c.dispatch(ev); err != nil {
		return err
	}

	c.publish()
	return c.draw()
}

func eventCode(ev xgb.Event) byte {
	b := ev.Bytes()
	if len(b) == 0 {
		return 0
	}
	return b[0] & 0x7f
}

func (c *Controller) dispatch(ev xgb.Event) error {
	switch ev := ev.(type) {
	case xproto.ButtonPressEvent:
		return c.buttonPress(ev)
	case xproto.ButtonReleaseEvent:
		return c.buttonRelease(ev)
	case xproto.KeyPressEvent:
		c.status.Input = fmt.Sprintf("Key pressed: %d, %d", ev.Detail, ev.State)
		return nil
	case xproto.KeyReleaseEvent:
		return c.keyRelease(ev)
	case xproto.CreateNotifyEvent:
		return c.createNotify(ev)
	case xproto.DestroyNotifyEvent:
		c.destroyNotify(ev)
		return nil
	case xproto.ConfigureNotifyEvent:
		c.registry.Configure(ev.Window, geom.Rect{
			X:      int(ev.X),
			Y:      int(ev.Y),
			Width:  int(ev.Width),
			Height: int(ev.Height),
		})
		return nil
	case xproto.MapNotifyEvent:
		return c.mapNotify(ev)
	case xproto.EnterNotifyEvent:
		return c.enterNotify(ev)
	case xproto.ExposeEvent:
		// Repainted after every event.
		return nil
	default:
		slog.Debug("Unhandled event", "event", pp.Sprint(ev))
		return nil
	}
}

func (c *Controller) setMode(mode Mode) {
	if mode != c.mode {
		c.diag.Info("Mode changed", "from", c.mode.String(), "to", mode.String(), "window", c.drag.window)
	}
	c.mode = mode
}

func (c *Controller) buttonPress(ev xproto.ButtonPressEvent) error {
	c.status.Input = fmt.Sprintf("Button pressed: %d, %d", ev.Detail, ev.State)

	switch c.mode {
	case ModeNormal:
		switch ev.Detail {
		case buttonPrimary:
			if ev.Child == 0 {
				return nil
			}
			if err := c.grab(ev.Child); err != nil {
				return err
			}
			c.status.Text = fmt.Sprintf("Moving: %d", ev.Child)
			c.startHelper(tracker.KindMove)
			c.setMode(ModeMoving)
		case buttonSecondary:
			if ev.Child == 0 {
				return nil
			}
			if err := c.grab(ev.Child); err != nil {
				return err
			}
			c.status.Text = fmt.Sprintf("Aux mode: %d", ev.Child)
			c.setMode(ModeAuxiliary)
		}
	case ModeMoving:
		win := c.drag.window
		switch ev.Detail {
		case buttonTertiary:
			c.status.Text = fmt.Sprintf("Resizing: %d", win)
			if err := c.stopHelper(); err != nil {
				return err
			}
			c.startHelper(tracker.KindResize)
			c.setMode(ModeResizing)
		case buttonMiddle:
			if err := c.stopHelper(); err != nil {
				return err
			}
			return c.toggleFullscreen(win)
		case buttonQuaternary:
			c.diag.Info("Killing client", "window", win)
			return c.display.KillClient(win)
		case buttonQuinary:
			c.diag.Info("Closing window", "window", win)
			return c.display.SendDelete(win)
		}
	}

	return nil
}

func (c *Controller) buttonRelease(ev xproto.ButtonReleaseEvent) error {
	switch {
	case c.mode == ModeMoving && ev.Detail == buttonPrimary,
		c.mode == ModeResizing && ev.Detail == buttonPrimary:
		if err := c.stopHelper(); err != nil {
			return err
		}
		return c.release()
	case c.mode == ModeResizing && ev.Detail == buttonTertiary:
		c.status.Text = fmt.Sprintf("Moving: %d", c.drag.window)
		if err := c.stopHelper(); err != nil {
			return err
		}
		c.startHelper(tracker.KindMove)
		c.setMode(ModeMoving)
	case c.mode == ModeAuxiliary && ev.Detail == buttonSecondary:
		return c.release()
	}

	return nil
}

// grab starts a drag session on win: pointer grab, raise, activation and
// focus.
func (c *Controller) grab(win xproto.Window) error {
	c.drag = drag{window: win}

	if err := c.display.GrabPointer(); err != nil {
		return err
	}
	if err := c.display.Raise(win); err != nil {
		return err
	}
	if err := c.display.ActivateWindow(win); err != nil {
		return err
	}
	if err := c.display.Focus(win); err != nil {
		return err
	}
	c.focus = win

	return nil
}

// release ends the drag session and returns to Normal mode.
func (c *Controller) release() error {
	c.setMode(ModeNormal)
	c.drag = drag{}
	return c.display.UngrabPointer()
}

// startHelper spawns a helper for the drag window. A helper that fails to
// start leaves the drag without one.
func (c *Controller) startHelper(kind tracker.Kind) {
	h, err := c.helpers.Start(kind, c.drag.window)
	if err != nil {
		slog.Error("Failed to start helper", "error", err, "kind", kind.String(), "window", c.drag.window)
		c.diag.Error("Helper not started", "kind", kind.String(), "window", c.drag.window, "error", err)
		return
	}

	c.drag.helper = &h
	c.diag.Info("Helper started", "kind", kind.String(), "window", h.Window, "pid", h.PID)
}

func (c *Controller) stopHelper() error {
	h := c.drag.helper
	if h == nil {
		return nil
	}
	c.drag.helper = nil

	if err := c.helpers.Stop(*h); err != nil {
		return err
	}
	c.diag.Info("Helper stopped", "kind", h.Kind.String(), "window", h.Window, "pid", h.PID)

	return nil
}

func (c *Controller) toggleFullscreen(win xproto.Window) error {
	rect, ok := c.registry.ToggleFullscreen(win)
	if !ok {
		return nil
	}

	rec, _ := c.registry.Lookup(win)
	c.diag.Info("Fullscreen toggled", "window", win, "fullscreen", rec.Flags.Has(FlagFullscreen), "rect", rect.String())

	return c.display.MoveResize(win, rect)
}

func (c *Controller) keyRelease(ev xproto.KeyReleaseEvent) error {
	switch {
	case ev.Detail == keyTerminal && ev.State&xproto.ModMask4 != 0:
		if err := c.helpers.Launch(c.terminal); err != nil {
			slog.Error("Failed to launch terminal", "error", err, "command", c.terminal)
		}
	case ev.Detail == keyQuit && ev.State&xproto.ModMaskControl != 0 && ev.State&xproto.ModMask1 != 0:
		c.diag.Info("Session ended")
		return ErrQuit
	}

	return nil
}

func (c *Controller) createNotify(ev xproto.CreateNotifyEvent) error {
	c.registry.Create(ev.Window, ev.Parent, ev.OverrideRedirect, geom.Rect{
		X:      int(ev.X),
		Y:      int(ev.Y),
		Width:  int(ev.Width),
		Height: int(ev.Height),
	})
	c.diag.Info("Window created", "window", ev.Window, "parent", ev.Parent, "override_redirect", ev.OverrideRedirect)

	return c.display.SelectEnter(ev.Window)
}

func (c *Controller) destroyNotify(ev xproto.DestroyNotifyEvent) {
	if !c.registry.Destroy(ev.Window) {
		return
	}
	if c.focus == ev.Window {
		c.focus = 0
	}
	c.diag.Info("Window destroyed", "window", ev.Window)
}

func (c *Controller) mapNotify(ev xproto.MapNotifyEvent) error {
	c.diag.Info("Map notify", "event", ev.Event, "window", ev.Window)

	pos, ok := c.registry.Map(ev.Window)
	if !ok {
		return nil
	}

	return c.display.Move(ev.Window, pos)
}

// enterNotify gives input focus to the window under the pointer.
func (c *Controller) enterNotify(ev xproto.EnterNotifyEvent) error {
	if ev.Event == c.display.Root() {
		return nil
	}
	if _, ok := c.registry.Managed(ev.Event); !ok {
		c.diag.Debug("Enter on unmanaged window", "window", ev.Event)
		return nil
	}

	name, err := c.display.WindowName(ev.Event)
	if err != nil {
		return err
	}
	c.status.Text = name

	if err := c.display.Focus(ev.Event); err != nil {
		return err
	}
	c.focus = ev.Event
	c.diag.Info("Focus", "window", ev.Event, "name", name)

	return nil
}

func (c *Controller) draw() error {
	return c.display.DrawStatus(c.status.Text, c.status.Input, c.status.Events())
}

func (c *Controller) publish() {
	records := c.registry.Windows()
	windows := make([]WindowInfo, 0, len(records))
	for _, r := range records {
		windows = append(windows, newWindowInfo(r))
	}

	s := &Snapshot{
		Mode:      c.mode.String(),
		Focus:     uint32(c.focus),
		Status:    c.status.Text,
		Input:     c.status.Input,
		Events:    c.status.Events(),
		Offset:    c.registry.Offset(),
		Windows:   windows,
		UpdatedAt: time.Now(),
	}
	if c.drag.window != 0 {
		s.Drag = &DragInfo{Window: uint32(c.drag.window)}
		if h := c.drag.helper; h != nil {
			s.Drag.Helper = &HelperInfo{ID: h.ID, Kind: h.Kind.String(), PID: h.PID}
		}
	}

	c.snapshot.Store(s)
}
