// Package cliext holds the start/stop plumbing shared by the humacli commands.
package cliext

import (
	"context"
	"io"
	"log/slog"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/phsym/console-slog"
)

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level: level,
	}))
}

// OnServe runs serveFn once the CLI starts. A stop request cancels the
// context passed to serveFn and waits for it to return. When serveFn returns
// on its own, exit receives its error.
func OnServe(hooks humacli.Hooks, serveFn func(ctx context.Context) error, exit func(err error)) {
	stopC := make(chan struct{})
	hooks.OnStart(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errC := make(chan error, 1)
		go func() { errC <- serveFn(ctx) }()

		select {
		case <-stopC:
			cancel()
		case err := <-errC:
			exit(err)
			return
		}

		<-errC
		<-stopC
	})
	hooks.OnStop(func() {
		stopC <- struct{}{}
		stopC <- struct{}{}
	})
}
