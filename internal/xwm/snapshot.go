package xwm

import (
	"time"

	"github.com/alexkh/ywm/internal/geom"
	"github.com/google/uuid"
)

// Snapshot is an immutable copy of the controller state published after every
// event. It is safe to read from other goroutines.
type Snapshot struct {
	Mode      string       `json:"mode"`
	Focus     uint32       `json:"focus"`
	Drag      *DragInfo    `json:"drag,omitempty"`
	Status    string       `json:"status"`
	Input     string       `json:"input"`
	Events    string       `json:"events"`
	Offset    geom.Point   `json:"offset"`
	Windows   []WindowInfo `json:"windows"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type DragInfo struct {
	Window uint32 `json:"window"`
	// Helper is unset when no helper process is running for the drag.
	Helper *HelperInfo `json:"helper,omitempty"`
}

type HelperInfo struct {
	ID   uuid.UUID `json:"id"`
	Kind string    `json:"kind"`
	PID  int       `json:"pid"`
}

type WindowInfo struct {
	ID               uint32 `json:"id"`
	Parent           uint32 `json:"parent"`
	OverrideRedirect bool   `json:"override_redirect"`
	Fullscreen       bool   `json:"fullscreen"`
	X                int    `json:"x"`
	Y                int    `json:"y"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

func newWindowInfo(r Record) WindowInfo {
	return WindowInfo{
		ID:               uint32(r.Window),
		Parent:           uint32(r.Parent),
		OverrideRedirect: r.Flags.Has(FlagOverrideRedirect),
		Fullscreen:       r.Flags.Has(FlagFullscreen),
		X:                r.Rect.X,
		Y:                r.Rect.Y,
		Width:            r.Rect.Width,
		Height:           r.Rect.Height,
	}
}

// Window returns the entry for id.
func (s *Snapshot) Window(id uint32) (WindowInfo, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowInfo{}, false
}
