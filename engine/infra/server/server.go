package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/infra/cache"
	"github.com/lendflow/lendflow/engine/infra/monitoring"
	"github.com/lendflow/lendflow/engine/infra/server/appstate"
	"github.com/lendflow/lendflow/pkg/config"
	"github.com/lendflow/lendflow/pkg/logger"
)

const (
	monitoringInitTimeout     = 500 * time.Millisecond
	monitoringShutdownTimeout = 5 * time.Second
	dbShutdownTimeout         = 30 * time.Second
	sweeperShutdownTimeout    = 30 * time.Second
	serverShutdownTimeout     = 5 * time.Second
	httpReadTimeout           = 15 * time.Second
	httpWriteTimeout          = 15 * time.Second
	httpIdleTimeout           = 60 * time.Second
	readinessCheckTimeout     = 2 * time.Second
	hostAny                   = "0.0.0.0"
	hostLoopback              = "127.0.0.1"
)

type Server struct {
	ctx          context.Context
	cancel       context.CancelFunc
	router       *gin.Engine
	httpServer   *http.Server
	state        *appstate.State
	monitoring   *monitoring.Service
	cache        *cache.Redis
	shutdownOnce sync.Once
	cleanupMu    sync.Mutex
	cleanups     []func()
}

// NewServer builds a server from the configuration attached to ctx.
func NewServer(ctx context.Context) (*Server, error) {
	serverCtx, cancel := context.WithCancel(ctx)
	if config.FromContext(serverCtx) == nil {
		cancel()
		return nil, fmt.Errorf("configuration missing from context; attach a manager with config.ContextWithManager")
	}
	return &Server{ctx: serverCtx, cancel: cancel}, nil
}

// Run wires dependencies, serves HTTP and blocks until a shutdown signal or
// the parent context ends.
func (s *Server) Run() error {
	state, err := s.setupDependencies()
	if err != nil {
		s.cleanup()
		return err
	}
	s.state = state
	if err := s.buildRouter(state); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to build router: %w", err)
	}
	return s.startAndRunServer()
}

// Handler exposes the built router. It is nil before Run.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) startAndRunServer() error {
	log := logger.FromContext(s.ctx)
	cfg := config.FromContext(s.ctx)
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       httpReadTimeout,
		ReadHeaderTimeout: httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.cleanup()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.state.SetReady(true)
	s.logStartupBanner()
	return s.handleGracefulShutdown(log, serveErr)
}

func (s *Server) handleGracefulShutdown(log logger.Logger, serveErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	var runErr error
	select {
	case <-quit:
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-s.ctx.Done():
		log.Debug("Server context canceled, initiating graceful shutdown")
	case err, ok := <-serveErr:
		if ok && err != nil {
			log.Error("HTTP server failed", "error", err)
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}
	s.Shutdown()
	return runErr
}

// Shutdown stops accepting requests, drains in-flight ones and releases
// every dependency in reverse order. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		log := logger.FromContext(s.ctx)
		if s.state != nil {
			s.state.SetReady(false)
		}
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), serverShutdownTimeout)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Error("Server shutdown failed", "error", err)
			}
			cancel()
		}
		s.cancel()
		s.cleanup()
		log.Info("Server shutdown completed successfully")
	})
}

func (s *Server) addCleanup(fn func()) {
	if fn == nil {
		return
	}
	s.cleanupMu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.cleanupMu.Unlock()
}

func (s *Server) cleanup() {
	s.cleanupMu.Lock()
	fns := s.cleanups
	s.cleanups = nil
	s.cleanupMu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
