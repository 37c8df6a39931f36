// Package api serves a read-only HTTP view of the window manager state.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexkh/ywm/internal/build"
	"github.com/alexkh/ywm/internal/xwm"
	"github.com/alexkh/ywm/pkg/chiext"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Source publishes controller snapshots.
type Source interface {
	Snapshot() *xwm.Snapshot
}

type Status struct {
	Version   string        `json:"version"`
	Mode      string        `json:"mode"`
	Focus     uint32        `json:"focus"`
	Drag      *xwm.DragInfo `json:"drag,omitempty"`
	Status    string        `json:"status"`
	Input     string        `json:"input"`
	Events    string        `json:"events"`
	Windows   int           `json:"windows"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type StatusOutput struct {
	Body Status
}

type WindowsOutput struct {
	Body []xwm.WindowInfo
}

type WindowInput struct {
	ID uint32 `path:"id" doc:"X window id"`
}

type WindowOutput struct {
	Body xwm.WindowInfo
}

func snapshot(src Source) (*xwm.Snapshot, error) {
	s := src.Snapshot()
	if s == nil {
		return nil, huma.Error503ServiceUnavailable("window manager not ready")
	}
	return s, nil
}

func Register(api huma.API, src Source) {
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Get the operating mode and status line",
	}, func(ctx context.Context, input *struct{}) (*StatusOutput, error) {
		s, err := snapshot(src)
		if err != nil {
			return nil, err
		}

		return &StatusOutput{Body: Status{
			Version:   build.Current.Version,
			Mode:      s.Mode,
			Focus:     s.Focus,
			Drag:      s.Drag,
			Status:    s.Status,
			Input:     s.Input,
			Events:    s.Events,
			Windows:   len(s.Windows),
			UpdatedAt: s.UpdatedAt,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-windows",
		Method:      http.MethodGet,
		Path:        "/windows",
		Summary:     "List known windows",
	}, func(ctx context.Context, input *struct{}) (*WindowsOutput, error) {
		s, err := snapshot(src)
		if err != nil {
			return nil, err
		}
		return &WindowsOutput{Body: s.Windows}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-window",
		Method:      http.MethodGet,
		Path:        "/windows/{id}",
		Summary:     "Get a known window",
	}, func(ctx context.Context, input *WindowInput) (*WindowOutput, error) {
		s, err := snapshot(src)
		if err != nil {
			return nil, err
		}
		w, ok := s.Window(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("window not found")
		}
		return &WindowOutput{Body: w}, nil
	})
}

func NewRouter(src Source) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chiext.Logger(nil))
	r.Use(middleware.Recoverer)

	api := humachi.New(r, huma.DefaultConfig("ywm", build.Current.Version))
	Register(api, src)

	return r
}

// Server is the supervised HTTP listener.
type Server struct {
	addr    string
	handler http.Handler
}

func NewServer(addr string, src Source) Server {
	return Server{
		addr:    addr,
		handler: NewRouter(src),
	}
}

func (s Server) String() string {
	return "api.Server"
}

func (s Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errC := make(chan error, 1)
	go func() { errC <- srv.ListenAndServe() }()
	slog.Info("Listening", "addr", s.addr)

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errC; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
