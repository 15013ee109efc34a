// Package server is the HTTP boundary: the stateless /api/chat route plus the
// workspace, file and terminal APIs.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"pointer/internal/config"
	"pointer/internal/logging"
	"pointer/internal/observability"
	"pointer/internal/terminal"
	"pointer/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway is the completion gateway as the HTTP layer sees it.
type Gateway interface {
	workspace.Completer
	Providers() []string
	DefaultProvider() string
}

// Deps are the collaborators a Server routes to. Metrics, Gatherer and Status are optional.
type Deps struct {
	Config    *config.Config
	Gateway   Gateway
	Workspace *workspace.Workspace
	Terminal  *terminal.Manager
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	// Status adds fields to the /health body.
	Status func() map[string]any
}

// Server owns the gin engine.
type Server struct {
	deps   Deps
	cfg    *config.Config
	engine *gin.Engine
}

// New builds the engine and registers every route.
func New(deps Deps) *Server {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Terminal == nil {
		deps.Terminal = terminal.NewManager()
	}

	engine := gin.New()
	engine.Use(requestID(), recovery(), accessLog(deps.Metrics), bodyLimit(cfg.Server.MaxBodyBytes))

	s := &Server{deps: deps, cfg: cfg, engine: engine}
	s.routes()
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", s.health)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)

		api.GET("/files", s.listFiles)
		api.POST("/files", s.createFile)
		api.POST("/files/rename", s.renameFile)
		api.GET("/files/*path", s.getFile)
		api.PUT("/files/*path", s.putFile)
		api.DELETE("/files/*path", s.deleteFile)

		api.GET("/project/export", s.exportProject)
		api.POST("/project/import", s.importProject)

		ws := api.Group("/workspace")
		{
			ws.POST("/turn", s.turn)
			ws.POST("/apply", s.applyBlock)
			ws.POST("/undo", s.undo)
			ws.POST("/redo", s.redo)
			ws.GET("/history", s.editHistory)
			ws.GET("/messages", s.messages)
			ws.DELETE("/messages", s.clearMessages)
			ws.POST("/messages/:id/typed", s.markTyped)
			ws.GET("/suggestions/:action", s.suggestion)
		}

		term := api.Group("/terminal")
		{
			term.GET("", s.terminalSessions)
			term.POST("", s.terminalExecute)
			term.POST("/sessions", s.terminalOpen)
			term.DELETE("/sessions/:id", s.terminalClose)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.deps.Gateway != nil {
		body["providers"] = s.deps.Gateway.Providers()
		body["default_provider"] = s.deps.Gateway.DefaultProvider()
	}
	if s.deps.Workspace != nil {
		body["files"] = s.deps.Workspace.Snapshot().Len()
	}
	if s.deps.Status != nil {
		for k, v := range s.deps.Status() {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	logging.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
