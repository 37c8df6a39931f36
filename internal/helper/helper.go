// Package helper spawns and kills the pointer-tracking helper processes and
// launches detached commands such as terminals.
package helper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/alexkh/ywm/internal/tracker"
	"github.com/google/uuid"
	"github.com/jezek/xgb/xproto"
)

// Handle identifies one running helper process.
type Handle struct {
	ID      uuid.UUID
	Kind    tracker.Kind
	Window  xproto.Window
	PID     int
	Started time.Time
}

type Launcher struct {
	commands map[tracker.Kind]string
	lookPath func(string) (string, error)

	mu      sync.Mutex
	helpers map[uuid.UUID]child
	// Counts unreaped helpers.
	wg sync.WaitGroup
}

type child struct {
	handle Handle
	cmd    *exec.Cmd
}

// NewLauncher returns a launcher running the move and resize executables,
// each resolved through PATH when started.
func NewLauncher(move, resize string) *Launcher {
	return &Launcher{
		commands: map[tracker.Kind]string{
			tracker.KindMove:   move,
			tracker.KindResize: resize,
		},
		lookPath: exec.LookPath,
		helpers:  make(map[uuid.UUID]child),
	}
}

func (l *Launcher) String() string {
	return "helper.Launcher"
}

// Serve blocks until ctx is done and then kills every helper still alive.
func (l *Launcher) Serve(ctx context.Context) error {
	<-ctx.Done()

	for _, h := range l.Live() {
		if err := l.Stop(h); err != nil {
			slog.Error("Failed to stop helper", "error", err, "pid", h.PID)
		}
	}
	l.wg.Wait()

	return ctx.Err()
}

func (l *Launcher) command(kind tracker.Kind, win xproto.Window) (*exec.Cmd, error) {
	name, ok := l.commands[kind]
	if !ok || name == "" {
		return nil, fmt.Errorf("no %s helper configured", kind)
	}

	path, err := l.lookPath(name)
	if err != nil {
		return nil, err
	}

	return &exec.Cmd{
		Path: path,
		Args: []string{filepath.Base(name), strconv.FormatUint(uint64(win), 10)},
		Env:  os.Environ(),
	}, nil
}

// Start spawns the helper of kind for win without waiting for it.
func (l *Launcher) Start(kind tracker.Kind, win xproto.Window) (Handle, error) {
	cmd, err := l.command(kind, win)
	if err != nil {
		return Handle{}, fmt.Errorf("start %s helper: %w", kind, err)
	}
	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("start %s helper: %w", kind, err)
	}

	h := Handle{
		ID:      uuid.New(),
		Kind:    kind,
		Window:  win,
		PID:     cmd.Process.Pid,
		Started: time.Now(),
	}

	l.mu.Lock()
	l.helpers[h.ID] = child{handle: h, cmd: cmd}
	l.mu.Unlock()

	l.wg.Add(1)
	l.reap(cmd, func() {
		l.mu.Lock()
		delete(l.helpers, h.ID)
		l.mu.Unlock()
		l.wg.Done()
	})

	slog.Debug("Helper started", "kind", kind.String(), "window", win, "pid", h.PID, "id", h.ID)

	return h, nil
}

// Stop kills the helper outright. Stopping a helper that already exited is
// not an error.
func (l *Launcher) Stop(h Handle) error {
	l.mu.Lock()
	c, ok := l.helpers[h.ID]
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s helper %d: %w", h.Kind, h.PID, err)
	}

	slog.Debug("Helper killed", "kind", h.Kind.String(), "pid", h.PID, "id", h.ID)

	return nil
}

// Launch starts argv detached from the window manager. The process is reaped
// but never killed.
func (l *Launcher) Launch(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", argv[0], err)
	}

	l.reap(cmd, func() {})

	return nil
}

// Live returns the helpers that have not exited yet.
func (l *Launcher) Live() []Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Handle, 0, len(l.helpers))
	for _, c := range l.helpers {
		out = append(out, c.handle)
	}
	return out
}

func (l *Launcher) reap(cmd *exec.Cmd, done func()) {
	go func() {
		err := cmd.Wait()
		done()
		slog.Debug("Process exited", "pid", cmd.Process.Pid, "command", cmd.Args[0], "error", err)
	}()
}
