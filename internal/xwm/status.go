package xwm

import (
	"strconv"
	"strings"
)

// Number of event codes kept in the status trail.
const trailLen = 30

// Status is the text shown in the status strip.
type Status struct {
	// Text is the focused window title or the current mode message.
	Text string
	// Input describes the last key or button press.
	Input string
	trail []byte
}

// Record appends an event code to the trail, dropping the oldest one when
// full.
func (s *Status) Record(code byte) {
	if len(s.trail) == trailLen {
		copy(s.trail, s.trail[1:])
		s.trail = s.trail[:trailLen-1]
	}
	s.trail = append(s.trail, code)
}

func (s *Status) Events() string {
	var b strings.Builder
	b.WriteString("Events:")
	for _, code := range s.trail {
		b.WriteByte(' ')
		if code < 10 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(code)))
	}
	return b.String()
}
