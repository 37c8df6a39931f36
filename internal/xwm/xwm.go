// Package xwm is the window manager control loop: the window registry, the
// operating mode state machine and the handlers that tie server events to both.
package xwm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jezek/xgb"
)

var (
	// ErrQuit is returned by the control loop when the user ends the session.
	ErrQuit = errors.New("quit")
	// ErrDisconnected is returned when the display connection goes away.
	ErrDisconnected = errors.New("display connection closed")
)

// Msg is a value read from the display connection: an xgb.Event or an
// xgb.Error for a failed request.
type Msg any

type EventSource interface {
	WaitForEvent() (xgb.Event, xgb.Error)
}

// ReceiveEvents forwards every event and asynchronous error from src to
// eventC until the connection closes or ctx is done. eventC is closed on exit.
func ReceiveEvents(ctx context.Context, src EventSource, eventC chan<- Msg) {
	defer close(eventC)
	slog := slog.With("func", "xwm.ReceiveEvents")

	for {
		ev, err := src.WaitForEvent()
		if ev == nil && err == nil {
			slog.Debug("exit: no event or error")
			return
		}

		var msg Msg = ev
		if err != nil {
			msg = err
		}

		select {
		case <-ctx.Done():
			return
		case eventC <- msg:
		}
	}
}
