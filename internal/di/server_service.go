package di

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/api"
)

// serverShutdownTimeout caps how long graceful shutdown drains requests.
const serverShutdownTimeout = 30 * time.Second

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *api.Server
}

// NewHTTPServer creates the HTTP server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	handlerSvc := do.MustInvoke[*HandlerService](i)

	cfg := cfgSvc.Get()
	server := api.NewServer(
		cfg.Server.Listen,
		handlerSvc.Handler,
		cfg.Server.EnableHTTP2,
		cfg.Server.GetTimeoutOption().OrElse(0),
	)

	return &ServerService{Server: server}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		return s.Server.Shutdown(ctx)
	}
	return nil
}
