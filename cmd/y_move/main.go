package main

import (
	"github.com/alexkh/ywm/internal/tracker"
	"github.com/alexkh/ywm/internal/trackercmd"
)

func main() {
	trackercmd.Main("y_move", tracker.KindMove)
}
