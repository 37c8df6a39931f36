package xwm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/alexkh/ywm/internal/helper"
	"github.com/alexkh/ywm/internal/tracker"
	"github.com/google/uuid"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

const (
	root xproto.Window = 1
	winA xproto.Window = 0x400001
)

type fakeDisplay struct {
	calls  []string
	names  map[xproto.Window]string
	status []string
	err    error
}

func (d *fakeDisplay) record(format string, args ...any) error {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
	return d.err
}

func (d *fakeDisplay) Root() xproto.Window { return root }
func (d *fakeDisplay) Screen() geom.Size { return testScreen }

func (d *fakeDisplay) SelectEnter(win xproto.Window) error { return d.record("select %d", win) }
func (d *fakeDisplay) Move(win xproto.Window, pos geom.Point) error {
	return d.record("move %d %v", win, pos)
}
func (d *fakeDisplay) MoveResize(win xproto.Window, rect geom.Rect) error {
	return d.record("moveresize %d %v", win, rect)
}
func (d *fakeDisplay) Raise(win xproto.Window) error { return d.record("raise %d", win) }
func (d *fakeDisplay) Focus(win xproto.Window) error { return d.record("focus %d", win) }
func (d *fakeDisplay) ActivateWindow(win xproto.Window) error { return d.record("activate %d", win) }
func (d *fakeDisplay) GrabPointer() error { return d.record("grab") }
func (d *fakeDisplay) UngrabPointer() error { return d.record("ungrab") }
func (d *fakeDisplay) KillClient(win xproto.Window) error { return d.record("kill %d", win) }
func (d *fakeDisplay) SendDelete(win xproto.Window) error { return d.record("delete %d", win) }

func (d *fakeDisplay) WindowName(win xproto.Window) (string, error) {
	return d.names[win], nil
}

func (d *fakeDisplay) DrawStatus(status, input, events string) error {
	d.status = append(d.status, status+"|"+input+"|"+events)
	return nil
}

// take returns the calls recorded since the last take.
func (d *fakeDisplay) take() []string {
	calls := d.calls
	d.calls = nil
	return calls
}

type fakeHelpers struct {
	live     map[uuid.UUID]helper.Handle
	started  []string
	stopped  []string
	launched [][]string
	startErr error
	pid      int
}

func newFakeHelpers() *fakeHelpers {
	return &fakeHelpers{live: map[uuid.UUID]helper.Handle{}}
}

func (h *fakeHelpers) Start(kind tracker.Kind, win xproto.Window) (helper.Handle, error) {
	if h.startErr != nil {
		return helper.Handle{}, h.startErr
	}
	h.pid++
	handle := helper.Handle{ID: uuid.New(), Kind: kind, Window: win, PID: h.pid}
	h.live[handle.ID] = handle
	h.started = append(h.started, fmt.Sprintf("%s %d", kind, win))
	return handle, nil
}

func (h *fakeHelpers) Stop(handle helper.Handle) error {
	delete(h.live, handle.ID)
	h.stopped = append(h.stopped, fmt.Sprintf("%s %d", handle.Kind, handle.Window))
	return nil
}

func (h *fakeHelpers) Launch(argv []string) error {
	h.launched = append(h.launched, argv)
	return nil
}

func newTestController() (*Controller, *fakeDisplay, *fakeHelpers) {
	d := &fakeDisplay{names: map[xproto.Window]string{}}
	h := newFakeHelpers()
	c := NewController(d, h, Options{Terminal: []string{"xterm"}})
	return c, d, h
}

func press(button xproto.Button, child xproto.Window) xproto.ButtonPressEvent {
	return xproto.ButtonPressEvent{Detail: button, Root: root, Event: root, Child: child}
}

func release(button xproto.Button) xproto.ButtonReleaseEvent {
	return xproto.ButtonReleaseEvent{Detail: button, Root: root, Event: root}
}

func created(win xproto.Window, rect geom.Rect, override bool) xproto.CreateNotifyEvent {
	return xproto.CreateNotifyEvent{
		Parent:           root,
		Window:           win,
		X:                int16(rect.X),
		Y:                int16(rect.Y),
		Width:            uint16(rect.Width),
		Height:           uint16(rect.Height),
		OverrideRedirect: override,
	}
}

func configured(win xproto.Window, rect geom.Rect) xproto.ConfigureNotifyEvent {
	return xproto.ConfigureNotifyEvent{
		Event:  win,
		Window: win,
		X:      int16(rect.X),
		Y:      int16(rect.Y),
		Width:  uint16(rect.Width),
		Height: uint16(rect.Height),
	}
}

func mustHandle(t *testing.T, c *Controller, msgs ...Msg) {
	t.Helper()
	for _, msg := range msgs {
		if err := c.Handle(msg); err != nil {
			t.Fatalf("Handle(%T) error: %v", msg, err)
		}
	}
}

func wantMode(t *testing.T, c *Controller, mode Mode) {
	t.Helper()
	if c.Mode() != mode {
		t.Fatalf("mode = %s, want %s", c.Mode(), mode)
	}
}

func wantCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestController_MoveDrag(t *testing.T) {
	c, d, h := newTestController()

	mustHandle(t, c, press(buttonPrimary, winA))
	wantMode(t, c, ModeMoving)
	wantCalls(t, d.take(), "grab", "raise 4194305", "activate 4194305", "focus 4194305")
	wantCalls(t, h.started, "move 4194305")
	if len(h.live) != 1 {
		t.Fatalf("live helpers = %d, want 1", len(h.live))
	}

	mustHandle(t, c, release(buttonPrimary))
	wantMode(t, c, ModeNormal)
	wantCalls(t, d.take(), "ungrab")
	wantCalls(t, h.stopped, "move 4194305")
	if len(h.live) != 0 {
		t.Fatalf("live helpers = %d, want 0", len(h.live))
	}
}

func TestController_PressWithoutChildIgnored(t *testing.T) {
	c, d, h := newTestController()

	mustHandle(t, c, press(buttonPrimary, 0), press(buttonSecondary, 0))
	wantMode(t, c, ModeNormal)
	wantCalls(t, d.take())
	if len(h.started) != 0 {
		t.Fatalf("started = %q", h.started)
	}
}

func TestController_ResizeCycle(t *testing.T) {
	c, d, h := newTestController()

	mustHandle(t, c, press(buttonPrimary, winA), press(buttonTertiary, winA))
	wantMode(t, c, ModeResizing)
	wantCalls(t, h.started, "move 4194305", "resize 4194305")
	wantCalls(t, h.stopped, "move 4194305")

	mustHandle(t, c, release(buttonTertiary))
	wantMode(t, c, ModeMoving)
	wantCalls(t, h.started, "move 4194305", "resize 4194305", "move 4194305")
	wantCalls(t, h.stopped, "move 4194305", "resize 4194305")

	mustHandle(t, c, press(buttonTertiary, winA), release(buttonPrimary))
	wantMode(t, c, ModeNormal)
	if len(h.live) != 0 {
		t.Fatalf("live helpers = %d, want 0", len(h.live))
	}
	calls := d.take()
	if calls[len(calls)-1] != "ungrab" {
		t.Fatalf("calls = %q, want trailing ungrab", calls)
	}
}

func TestController_AtMostOneHelper(t *testing.T) {
	c, _, h := newTestController()

	msgs := []Msg{
		press(buttonPrimary, winA),
		press(buttonTertiary, winA),
		release(buttonTertiary),
		press(buttonTertiary, winA),
		press(buttonMiddle, winA),
		release(buttonTertiary),
		press(buttonPrimary, winA),
		release(buttonPrimary),
		press(buttonPrimary, winA),
	}
	for i, msg := range msgs {
		mustHandle(t, c, msg)
		if len(h.live) > 1 {
			t.Fatalf("after event %d: %d live helpers", i, len(h.live))
		}
	}
}

func TestController_AuxiliaryMode(t *testing.T) {
	c, d, h := newTestController()

	mustHandle(t, c, press(buttonSecondary, winA))
	wantMode(t, c, ModeAuxiliary)
	wantCalls(t, d.take(), "grab", "raise 4194305", "activate 4194305", "focus 4194305")
	if len(h.started) != 0 {
		t.Fatalf("started = %q, want none", h.started)
	}

	// Primary release does nothing in auxiliary mode.
	mustHandle(t, c, release(buttonPrimary))
	wantMode(t, c, ModeAuxiliary)

	mustHandle(t, c, release(buttonSecondary))
	wantMode(t, c, ModeNormal)
	wantCalls(t, d.take(), "ungrab")
}

func TestController_MiddlePressTogglesFullscreen(t *testing.T) {
	c, d, h := newTestController()
	orig := geom.Rect{X: 100, Y: 50, Width: 640, Height: 480}

	mustHandle(t, c, created(winA, orig, false), configured(winA, orig), press(buttonPrimary, winA))
	d.take()

	mustHandle(t, c, press(buttonMiddle, winA))
	wantMode(t, c, ModeMoving)
	wantCalls(t, d.take(), "moveresize 4194305 1920x1080+0+0")
	wantCalls(t, h.stopped, "move 4194305")
	rec, _ := c.Registry().Lookup(winA)
	if !rec.Flags.Has(FlagFullscreen) || rec.Rect != orig {
		t.Fatalf("record = %+v", rec)
	}

	// The server confirms the fullscreen geometry. It must not be cached.
	mustHandle(t, c, configured(winA, geom.Rect{Width: 1920, Height: 1080}))

	mustHandle(t, c, press(buttonMiddle, winA))
	wantCalls(t, d.take(), "moveresize 4194305 640x480+100+50")
	rec, _ = c.Registry().Lookup(winA)
	if rec.Flags.Has(FlagFullscreen) {
		t.Fatal("fullscreen flag still set")
	}
}

func TestController_KillAndClose(t *testing.T) {
	c, d, _ := newTestController()

	mustHandle(t, c, press(buttonPrimary, winA))
	d.take()

	mustHandle(t, c, press(buttonQuaternary, 0), press(buttonQuinary, 0))
	wantMode(t, c, ModeMoving)
	wantCalls(t, d.take(), "kill 4194305", "delete 4194305")
}

func TestController_DragButtonsIgnoredInNormalMode(t *testing.T) {
	c, d, h := newTestController()

	mustHandle(t, c,
		press(buttonTertiary, winA),
		press(buttonMiddle, winA),
		press(buttonQuaternary, winA),
		release(buttonPrimary),
		release(buttonSecondary),
	)
	wantMode(t, c, ModeNormal)
	wantCalls(t, d.take())
	if len(h.started)+len(h.stopped) != 0 {
		t.Fatal("helpers touched in normal mode")
	}
}

func TestController_HelperStartFailure(t *testing.T) {
	c, _, h := newTestController()
	h.startErr = errors.New("exec: not found")

	mustHandle(t, c, press(buttonPrimary, winA))
	wantMode(t, c, ModeMoving)
	if s := c.Snapshot(); s.Drag == nil || s.Drag.Helper != nil {
		t.Fatalf("drag = %+v, want drag without helper", s.Drag)
	}

	mustHandle(t, c, release(buttonPrimary))
	wantMode(t, c, ModeNormal)
	if len(h.stopped) != 0 {
		t.Fatalf("stopped = %q", h.stopped)
	}
}

func TestController_MapPlacesWindow(t *testing.T) {
	c, d, _ := newTestController()

	mustHandle(t, c, created(winA, geom.Rect{Width: 800, Height: 600}, false))
	wantCalls(t, d.take(), "select 4194305")

	mustHandle(t, c, xproto.MapNotifyEvent{Event: root, Window: winA})
	wantCalls(t, d.take(), "move 4194305 1060,20")
	if got := c.Registry().Offset(); got != (geom.Point{X: 65, Y: 25}) {
		t.Fatalf("offset = %v, want 65,25", got)
	}

	mustHandle(t, c, configured(winA, geom.Rect{X: 1060, Y: 20, Width: 800, Height: 600}))
	rec, _ := c.Registry().Lookup(winA)
	if rec.Rect != (geom.Rect{X: 1060, Y: 20, Width: 800, Height: 600}) {
		t.Fatalf("rect = %v", rec.Rect)
	}
}

func TestController_DestroyNotify(t *testing.T) {
	c, _, _ := newTestController()

	mustHandle(t, c,
		created(winA, geom.Rect{Width: 10, Height: 10}, false),
		xproto.DestroyNotifyEvent{Event: root, Window: winA},
		xproto.DestroyNotifyEvent{Event: root, Window: winA},
	)
	if c.Registry().Len() != 0 {
		t.Fatalf("registry size = %d, want 0", c.Registry().Len())
	}
}

func TestController_FocusFollowsMouse(t *testing.T) {
	c, d, _ := newTestController()
	d.names[winA] = "xterm"

	mustHandle(t, c,
		created(winA, geom.Rect{Width: 10, Height: 10}, false),
		created(winA+1, geom.Rect{Width: 10, Height: 10}, true),
	)
	d.take()

	mustHandle(t, c,
		xproto.EnterNotifyEvent{Root: root, Event: root},
		xproto.EnterNotifyEvent{Root: root, Event: winA + 1},
		xproto.EnterNotifyEvent{Root: root, Event: 0x500000},
	)
	wantCalls(t, d.take())

	mustHandle(t, c, xproto.EnterNotifyEvent{Root: root, Event: winA})
	wantCalls(t, d.take(), "focus 4194305")
	s := c.Snapshot()
	if s.Focus != uint32(winA) || s.Status != "xterm" {
		t.Fatalf("snapshot focus = %d status = %q", s.Focus, s.Status)
	}
	if last := d.status[len(d.status)-1]; !strings.HasPrefix(last, "xterm|") {
		t.Fatalf("status line = %q", last)
	}
}

func TestController_KeyBindings(t *testing.T) {
	tests := []struct {
		name     string
		ev       xproto.KeyReleaseEvent
		err      error
		launched int
	}{
		{"terminal", xproto.KeyReleaseEvent{Detail: keyTerminal, State: xproto.ModMask4}, nil, 1},
		{"terminal numlock", xproto.KeyReleaseEvent{Detail: keyTerminal, State: xproto.ModMask4 | xproto.ModMask2}, nil, 1},
		{"return alone", xproto.KeyReleaseEvent{Detail: keyTerminal}, nil, 0},
		{"quit", xproto.KeyReleaseEvent{Detail: keyQuit, State: xproto.ModMaskControl | xproto.ModMask1}, ErrQuit, 0},
		{"control only", xproto.KeyReleaseEvent{Detail: keyQuit, State: xproto.ModMaskControl}, nil, 0},
		{"alt only", xproto.KeyReleaseEvent{Detail: keyQuit, State: xproto.ModMask1}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, h := newTestController()
			if err := c.Handle(tt.ev); !errors.Is(err, tt.err) {
				t.Fatalf("Handle() = %v, want %v", err, tt.err)
			}
			if len(h.launched) != tt.launched {
				t.Fatalf("launched = %q", h.launched)
			}
			if tt.launched > 0 && !slices.Equal(h.launched[0], []string{"xterm"}) {
				t.Fatalf("launched = %q, want xterm", h.launched[0])
			}
		})
	}
}

func TestController_StatusLine(t *testing.T) {
	c, d, _ := newTestController()

	mustHandle(t, c, xproto.KeyPressEvent{Detail: 38, State: 4})
	last := d.status[len(d.status)-1]
	if last != "|Key pressed: 38, 4|Events:  2" {
		t.Fatalf("status line = %q", last)
	}

	mustHandle(t, c, xproto.ExposeEvent{Window: root}, xproto.PropertyNotifyEvent{Window: root})
	last = d.status[len(d.status)-1]
	if !strings.HasSuffix(last, "Events:  2 12 28") {
		t.Fatalf("status line = %q", last)
	}
}

func TestController_ProtocolErrorIsFatal(t *testing.T) {
	c, _, _ := newTestController()

	var xerr xgb.Error = xproto.WindowError{NiceName: "Window", BadValue: 7}
	if err := c.Handle(xerr); err == nil {
		t.Fatal("Handle(error) = nil")
	}
}

func TestController_RequestErrorIsFatal(t *testing.T) {
	c, d, _ := newTestController()
	d.err = errors.New("BadAccess")

	if err := c.Handle(press(buttonPrimary, winA)); err == nil {
		t.Fatal("Handle() = nil, want error")
	}
}

type fakeSource struct {
	msgs []Msg
}

func (s *fakeSource) WaitForEvent() (xgb.Event, xgb.Error) {
	if len(s.msgs) == 0 {
		return nil, nil
	}
	msg := s.msgs[0]
	s.msgs = s.msgs[1:]
	if err, ok := msg.(xgb.Error); ok {
		return nil, err
	}
	return msg.(xgb.Event), nil
}

func TestRun_UntilDisconnect(t *testing.T) {
	c, _, h := newTestController()
	src := &fakeSource{msgs: []Msg{press(buttonPrimary, winA), release(buttonPrimary)}}

	eventC := make(chan Msg)
	go ReceiveEvents(context.Background(), src, eventC)

	if err := c.Run(context.Background(), eventC); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("Run() = %v, want ErrDisconnected", err)
	}
	wantCalls(t, h.started, "move 4194305")
	wantCalls(t, h.stopped, "move 4194305")
}

func TestRun_StopsOnQuit(t *testing.T) {
	c, _, _ := newTestController()
	quit := xproto.KeyReleaseEvent{Detail: keyQuit, State: xproto.ModMaskControl | xproto.ModMask1}
	src := &fakeSource{msgs: []Msg{quit, press(buttonPrimary, winA)}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventC := make(chan Msg)
	go ReceiveEvents(ctx, src, eventC)

	if err := c.Run(ctx, eventC); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() = %v, want ErrQuit", err)
	}
	wantMode(t, c, ModeNormal)
}

func TestRun_ForwardsAsyncErrors(t *testing.T) {
	c, _, _ := newTestController()
	src := &fakeSource{msgs: []Msg{xproto.MatchError{NiceName: "Match"}}}

	eventC := make(chan Msg)
	go ReceiveEvents(context.Background(), src, eventC)

	err := c.Run(context.Background(), eventC)
	var match xproto.MatchError
	if !errors.As(err, &match) {
		t.Fatalf("Run() = %v, want MatchError", err)
	}
}

func TestSnapshot(t *testing.T) {
	c, _, _ := newTestController()

	mustHandle(t, c,
		created(winA, geom.Rect{X: 5, Y: 6, Width: 70, Height: 80}, false),
		press(buttonPrimary, winA),
	)

	s := c.Snapshot()
	if s.Mode != "moving" {
		t.Fatalf("Mode = %q", s.Mode)
	}
	if s.Drag == nil || s.Drag.Window != uint32(winA) || s.Drag.Helper == nil || s.Drag.Helper.Kind != "move" {
		t.Fatalf("Drag = %+v", s.Drag)
	}
	w, ok := s.Window(uint32(winA))
	if !ok || w.X != 5 || w.Height != 80 || w.Fullscreen || w.OverrideRedirect {
		t.Fatalf("Window() = %+v, %v", w, ok)
	}
	if _, ok := s.Window(99); ok {
		t.Fatal("Window(99) found")
	}
}
