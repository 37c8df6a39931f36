package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/alexkh/ywm/internal/api"
	"github.com/alexkh/ywm/internal/build"
	"github.com/alexkh/ywm/internal/config"
	"github.com/alexkh/ywm/internal/diag"
	"github.com/alexkh/ywm/internal/helper"
	"github.com/alexkh/ywm/internal/xsession"
	"github.com/alexkh/ywm/internal/xwm"
	"github.com/alexkh/ywm/pkg/cliext"
	"github.com/alexkh/ywm/pkg/sutureext"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
)

type Options struct {
	Debug   bool   `doc:"enable debug"`
	Config  string `doc:"config file, defaults to $XDG_CONFIG_HOME/ywm/config.yaml"`
	Display string `doc:"X display, defaults to $DISPLAY"`
}

func main() {
	godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		if options.Debug {
			slog.SetDefault(cliext.NewLogger(os.Stderr, slog.LevelDebug))
		} else {
			slog.SetDefault(cliext.NewLogger(os.Stderr, slog.LevelInfo))
		}

		cliext.OnServe(hooks, func(ctx context.Context) error {
			return run(ctx, options)
		}, func(err error) {
			code := exitCode(err)
			if code != 0 {
				slog.Error("Window manager stopped", "error", err, "code", code)
			}
			os.Exit(code)
		})
	})

	cli.Root().Use = "ywm"
	cli.Root().Version = build.Current.String()

	cli.Run()
}

// exitCode maps the reason run returned to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, xwm.ErrQuit), errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, xsession.ErrConnect):
		return 1
	case errors.Is(err, diag.ErrOpen):
		return 2
	default:
		return 3
	}
}

func run(ctx context.Context, options *Options) error {
	configPath := options.Config
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	store, err := config.NewStore(config.NewDriver(configPath))
	if err != nil {
		return err
	}
	cfg, err := store.GetConfig()
	if err != nil {
		return err
	}

	display := options.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}

	dlog, err := diag.Open(cfg.LogDir, display)
	if err != nil {
		return err
	}
	defer dlog.Close()
	dlog.Info("Starting", "version", build.Current.String(), "display", display, "config", configPath)

	session, err := xsession.Connect(display)
	if err != nil {
		dlog.Error("Failed to connect", "error", err)
		return err
	}
	defer session.Close()

	if err := session.Manage(); err != nil {
		dlog.Error("Failed to take over the root window", "error", err)
		return err
	}

	launcher := helper.NewLauncher(cfg.Helpers.Move, cfg.Helpers.Resize)
	controller := xwm.NewController(session, launcher, xwm.Options{
		Terminal: cfg.Terminal,
		Diag:     dlog.Logger,
	})

	superCtx, cancel := context.WithCancel(ctx)
	super := sutureext.New("ywm")
	sutureext.Add(super, launcher)
	if cfg.HTTP != "" {
		sutureext.Add(super, api.NewServer(cfg.HTTP, controller))
	}
	superErrC := super.ServeBackground(superCtx)
	defer func() {
		cancel()
		<-superErrC
	}()

	for _, argv := range cfg.Autostart {
		if err := launcher.Launch(argv); err != nil {
			slog.Error("Failed to autostart", "argv", argv, "error", err)
		}
	}

	eventC := make(chan xwm.Msg)
	go xwm.ReceiveEvents(ctx, session, eventC)

	err = controller.Run(ctx, eventC)
	dlog.Info("Stopping", "reason", err)
	return err
}
