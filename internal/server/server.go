package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

// Server is an *http.Server that logs its lifecycle. Live channels hijack
// their connection and manage their own deadlines, so only header reads
// are bounded here.
type Server struct {
	httpServer *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) ListenAndServe() error {
	observability.GetLogger(context.Background()).Info("starting server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	observability.GetLogger(ctx).Info("shutting down server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.Shutdown(ctx)
}
