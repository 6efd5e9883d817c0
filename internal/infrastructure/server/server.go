package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/GriffinCanCode/webdesk/internal/api/http"
	"github.com/GriffinCanCode/webdesk/internal/api/middleware"
	"github.com/GriffinCanCode/webdesk/internal/api/ws"
	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/config"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/providers/storage"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	store   storage.Store
	apps    *registry.Manager
	signals *feedback.Broadcaster
	windows *window.Manager
	bridge  *session.Bridge
	hub     *ws.Hub

	router     *gin.Engine
	httpServer *http.Server

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Server
type Option func(*Server)

// WithLogger replaces the logger built from config
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	// Initialize logger
	if s.logger == nil {
		logger, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}
	logger := s.logger

	logger.Info("Initializing webdesk server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("apps_dir", cfg.Apps.Dir),
	)

	// Initialize metrics first (needed by other components)
	s.metrics = monitoring.NewMetrics()

	// Session store
	store, err := storage.Open(storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
	}, storage.WithMetrics(s.metrics), storage.WithLogger(logger.Component("storage")))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	s.store = store

	// App catalog
	s.apps = registry.NewManager().WithMetrics(s.metrics)
	seeder := registry.NewSeeder(s.apps, cfg.Apps.Dir, logger.Component("registry")).WithMetrics(s.metrics)
	if _, err := seeder.Seed(); err != nil {
		// Built-ins are registered either way; restore must not wait forever
		logger.Warn("Failed to seed app manifests", zap.Error(err))
		s.apps.MarkLoaded()
	}

	// Window manager and its session bridge
	s.signals = feedback.NewBroadcaster(logger.Component("feedback"))
	s.bridge = session.NewBridge(store, s.apps,
		session.WithStagger(cfg.Window.RestoreStagger),
		session.WithLogger(logger.Component("session")),
		session.WithMetrics(s.metrics),
	)
	s.windows = window.NewManager(s.apps,
		window.WithFeedback(s.signals),
		window.WithPersister(s.bridge),
		window.WithMetrics(s.metrics),
		window.WithLogger(logger.Component("window")),
		window.WithCascadeBase(types.Position{X: cfg.Window.CascadeBase.X, Y: cfg.Window.CascadeBase.Y}),
		window.WithDefaultMinSize(types.Size{Width: cfg.Window.MinWidth, Height: cfg.Window.MinHeight}),
	)
	s.bridge.Attach(s.windows)

	// Realtime channel
	s.hub = ws.NewHub(s.windows,
		ws.WithFrameInterval(cfg.Window.FrameInterval),
		ws.WithMetrics(s.metrics),
		ws.WithLogger(logger.Component("ws")),
	)
	s.hub.Start(s.signals, s.bridge)

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	cfg := s.config
	logger := s.logger.Component("http")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(monitoring.Middleware(s.metrics))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	api.NewHandlers(s.windows, s.apps, s.bridge, s.metrics).Register(router)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/stream", s.hub.HandleConnection)

	return router
}

// Router returns the HTTP handler, for tests and embedding
func (s *Server) Router() http.Handler {
	return s.router
}

// Windows returns the window manager
func (s *Server) Windows() *window.Manager {
	return s.windows
}

// Run serves HTTP and replays the saved session until ctx is cancelled, then
// shuts down gracefully and releases every resource.
func (s *Server) Run(ctx context.Context) error {
	// The saved session is read before the listener opens, so no client
	// mutation can persist over it first
	scheduled, err := s.bridge.Restore(ctx)
	if err != nil {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Warn("Close after failed restore", zap.Error(closeErr))
		}
		return fmt.Errorf("session restore: %w", err)
	}
	if len(scheduled) > 0 {
		s.logger.Info("Restoring session", zap.Strings("apps", scheduled))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")
		// Hijacked websocket connections are not tracked by Shutdown
		s.hub.Stop()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close saves the session one last time and releases the store. It is safe
// to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")

		s.hub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.bridge.Save(ctx); err != nil {
			s.logger.Warn("Final session save failed", zap.Error(err))
		}
		s.bridge.Close()

		if err := s.store.Close(); err != nil {
			s.logger.Error("Failed to close session store", zap.Error(err))
			s.closeErr = fmt.Errorf("failed to close session store: %w", err)
		}

		_ = s.logger.Sync()
	})
	return s.closeErr
}
