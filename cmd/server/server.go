package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/itsDrac/e-auc-live/internal/dependency"
	"github.com/itsDrac/e-auc-live/pkg/config"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

type Server struct {
	HTTPServer   *http.Server
	Dependencies *dependency.Dependencies
}

func New(cfg config.Config, log *logger.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dependencies, err := dependency.NewDependencies(ctx, cfg, log)
	if err != nil {
		slog.Error("[Dependency] failed to initialize -> ", "error", err.Error())
		return nil, err
	}

	serv := &Server{
		Dependencies: dependencies,
	}

	// builds router
	mux := serv.routes()
	serv.HTTPServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return serv, nil
}

func (s *Server) Run() error {
	slog.Info("[SERVER] running -> ", "address", s.HTTPServer.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Lifecycle sweeps run until shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Dependencies.Scheduler.Start(ctx)
	}()

	// Run Server in the background
	serveErr := make(chan error, 1)
	go func() {
		if err := s.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[SERVER] failed to serve -> ", "error", err.Error())
			serveErr <- err
		}
	}()

	// Listen for the interrupt signal
	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("[SERVER] shutdown signal received")
	case runErr = <-serveErr:
		stop()
	}

	// create shutdown context with 30 - sec timeout
	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// websocket sessions are hijacked and not covered by Shutdown
	s.Dependencies.Hub.Close()

	// Stop http server
	if err := s.HTTPServer.Shutdown(shutCtx); err != nil {
		slog.Error("[SERVER] shutdown failed -> ", "error", err.Error())
		runErr = errors.Join(runErr, err)
	}

	wg.Wait()

	// close cache, broker and db
	if err := s.Dependencies.Close(); err != nil {
		slog.Error("[Dependency] close failed ->", "error", err.Error())
		runErr = errors.Join(runErr, err)
	}

	slog.Info("[SERVER] shutdown complete.")
	return runErr
}
