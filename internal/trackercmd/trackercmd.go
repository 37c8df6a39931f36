// Package trackercmd is the command line shared by the y_move and y_resize
// helpers. The window manager starts one with the id of the window to drag
// and kills it when the drag ends.
package trackercmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/alexkh/ywm/internal/build"
	"github.com/alexkh/ywm/internal/tracker"
	"github.com/alexkh/ywm/internal/xsession"
	"github.com/alexkh/ywm/pkg/cliext"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/jezek/xgb/xproto"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type Options struct{}

func Main(name string, kind tracker.Kind) {
	godotenv.Load()

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, _ *Options) {
		slog.SetDefault(cliext.NewLogger(os.Stderr, slog.LevelInfo).With("helper", name))

		cliext.OnServe(hooks, func(ctx context.Context) error {
			win, err := ParseWindow(cli.Root().Flags().Args())
			if err != nil {
				return err
			}
			return Run(ctx, kind, win)
		}, func(err error) {
			if err != nil {
				slog.Error("Helper failed", "error", err)
				os.Exit(1)
			}
			os.Exit(0)
		})
	})

	cli.Root().Use = name + " [window]"
	cli.Root().Short = "Track the pointer and " + kind.String() + " a window"
	cli.Root().Version = build.Current.String()
	cli.Root().Args = cobra.MaximumNArgs(1)

	cli.Run()
}

// ParseWindow reads the optional decimal window id. No argument yields 0,
// meaning the window under the pointer.
func ParseWindow(args []string) (xproto.Window, error) {
	if len(args) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", args[0], err)
	}
	return xproto.Window(id), nil
}

// Run connects to $DISPLAY and drags win until ctx is done.
func Run(ctx context.Context, kind tracker.Kind, win xproto.Window) error {
	session, err := xsession.Connect("")
	if err != nil {
		return err
	}
	defer session.Close()

	t, err := tracker.New(session, kind, win)
	if err != nil {
		return err
	}
	return t.Run(ctx, tracker.Interval)
}
