// Package xcursor creates cursors from the core X "cursor" glyph font.
package xcursor

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Glyph indexes into the cursor font. Each cursor uses the glyph and the
// following one as its mask.
const (
	Fleur   uint16 = 52
	LeftPtr uint16 = 68
	Sizing  uint16 = 120
)

// Color is a 16 bit per channel RGB triple.
type Color struct {
	Red, Green, Blue uint16
}

var (
	Black = Color{}
	// Pale yellow background used for the root cursor.
	Cream = Color{Red: 52428, Green: 52428, Blue: 26214}
)

func Create(conn *xgb.Conn, glyph uint16) (xproto.Cursor, error) {
	return CreateColored(conn, glyph, Black, Cream)
}

func CreateColored(conn *xgb.Conn, glyph uint16, fore, back Color) (xproto.Cursor, error) {
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return 0, err
	}

	cursor, err := xproto.NewCursorId(conn)
	if err != nil {
		return 0, err
	}

	if err := xproto.OpenFontChecked(conn, font, uint16(len("cursor")), "cursor").Check(); err != nil {
		return 0, fmt.Errorf("open cursor font: %w", err)
	}
	defer xproto.CloseFont(conn, font)

	if err := xproto.CreateGlyphCursorChecked(conn, cursor, font, font,
		glyph, glyph+1,
		fore.Red, fore.Green, fore.Blue,
		back.Red, back.Green, back.Blue).Check(); err != nil {
		return 0, fmt.Errorf("create glyph cursor %d: %w", glyph, err)
	}

	return cursor, nil
}

// SetWindowCursor creates the glyph cursor and assigns it to win. The cursor
// resource is freed once assigned since the server keeps its own reference.
func SetWindowCursor(conn *xgb.Conn, win xproto.Window, glyph uint16) error {
	cursor, err := Create(conn, glyph)
	if err != nil {
		return err
	}
	defer xproto.FreeCursor(conn, cursor)

	return xproto.ChangeWindowAttributesChecked(conn, win, xproto.CwCursor, []uint32{uint32(cursor)}).Check()
}
