package xsession

import (
	"fmt"
	"log/slog"

	"github.com/jezek/xgb/xproto"
)

const (
	StatusHeight = 20
	// Text baseline inside the status strip.
	statusBaseline = 10

	fontStatus = "-*-fixed-bold-r-*-*-13-*-*-*-*-*-ISO10646-1"
	fontSmall  = "-*-fixed-medium-r-*-*-7-*-*-*-*-*-ISO10646-1"
	// Always present on an X server.
	fontFallback = "fixed"

	// ImageText16 carries at most 255 characters.
	maxTextLen = 255
)

type gcs struct {
	clear  xproto.Gcontext
	status xproto.Gcontext
	small  xproto.Gcontext
}

func (s *Session) createGCs() error {
	var err error

	if s.gcs.clear, err = xproto.NewGcontextId(s.conn); err != nil {
		return err
	}
	if err := xproto.CreateGCChecked(s.conn, s.gcs.clear, xproto.Drawable(s.root),
		xproto.GcForeground, []uint32{s.screen.BlackPixel}).Check(); err != nil {
		return fmt.Errorf("create clear gc: %w", err)
	}

	if s.gcs.status, err = s.fontGC(fontStatus); err != nil {
		return err
	}
	if s.gcs.small, err = s.fontGC(fontSmall); err != nil {
		return err
	}

	return nil
}

// fontGC creates a white on black graphics context drawing with the font
// matching pattern, or with the fallback font if nothing matches.
func (s *Session) fontGC(pattern string) (xproto.Gcontext, error) {
	font, err := xproto.NewFontId(s.conn)
	if err != nil {
		return 0, err
	}

	if err := xproto.OpenFontChecked(s.conn, font, uint16(len(pattern)), pattern).Check(); err != nil {
		slog.Warn("Font not found, using fallback", "font", pattern, "fallback", fontFallback)
		if err := xproto.OpenFontChecked(s.conn, font, uint16(len(fontFallback)), fontFallback).Check(); err != nil {
			return 0, fmt.Errorf("open font %s: %w", fontFallback, err)
		}
	}
	defer xproto.CloseFont(s.conn, font)

	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return 0, err
	}

	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(s.root),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont,
		[]uint32{s.screen.WhitePixel, s.screen.BlackPixel, uint32(font)}).Check(); err != nil {
		return 0, fmt.Errorf("create font gc: %w", err)
	}

	return gc, nil
}

// DrawStatus clears the status strip at the top of the root window and paints
// the status text, the last input message and the event trail into it.
func (s *Session) DrawStatus(status, input, events string) error {
	width := s.screen.WidthInPixels

	if err := xproto.PolyFillRectangleChecked(s.conn, xproto.Drawable(s.root), s.gcs.clear,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: width, Height: StatusHeight}}).Check(); err != nil {
		return fmt.Errorf("clear status: %w", err)
	}

	for _, item := range []struct {
		gc   xproto.Gcontext
		x    int16
		text string
	}{
		{s.gcs.status, 0, status},
		{s.gcs.small, int16(width / 2), input},
		{s.gcs.small, int16(width / 8 * 5), events},
	} {
		if err := s.drawText(item.gc, item.x, statusBaseline, item.text); err != nil {
			return err
		}
	}

	return nil
}

func (s *Session) drawText(gc xproto.Gcontext, x, y int16, text string) error {
	chars := Char2b(text)
	if len(chars) == 0 {
		return nil
	}

	if err := xproto.ImageText16Checked(s.conn, byte(len(chars)), xproto.Drawable(s.root), gc,
		x, y, chars).Check(); err != nil {
		return fmt.Errorf("draw text: %w", err)
	}
	return nil
}

// Char2b converts UTF-8 text to 16 bit font indexes. Runes outside the basic
// multilingual plane are dropped and the result is cut to maxTextLen.
func Char2b(text string) []xproto.Char2b {
	chars := make([]xproto.Char2b, 0, len(text))
	for _, r := range text {
		if r > 0xffff {
			continue
		}
		if len(chars) == maxTextLen {
			break
		}
		chars = append(chars, xproto.Char2b{Byte1: byte(r >> 8), Byte2: byte(r)})
	}
	return chars
}
