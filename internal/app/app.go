package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/auth"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/config"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/events"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/metrics"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/middleware"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/module/resource"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/storage"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine    *gin.Engine
	db        *gorm.DB
	logger    *logger.Logger
	cfg       *config.Config
	resources resource.Service
	registry  *resource.Registry

	// closers are released in reverse order on shutdown.
	closers []namedCloser
	// stopBackground cancels background work such as JWKS refresh.
	stopBackground context.CancelFunc
}

type namedCloser struct {
	name string
	c    io.Closer
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

var newGCSStore = func(ctx context.Context, cfg config.GCSConfig) (storage.AssetStore, io.Closer, error) {
	s, err := storage.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

var newNATSPublisher = func(cfg config.EventsConfig) (events.Publisher, io.Closer, error) {
	p, err := events.NewNATSPublisher(cfg.NATSURL, "backoffice", cfg.SubjectPrefix)
	if err != nil {
		return nil, nil, err
	}
	return p, p, nil
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, the asset store, event publishing,
// metrics, caller resolution, the resource module, middleware and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	success := false
	defer func() {
		if !success {
			a.release()
		}
	}()

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	a.logger = log

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}

	// 2. Setup database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	a.db = db

	// 3. AutoMigrate in debug mode only.
	if cfg.Server.Mode == gin.DebugMode {
		if err := config.Migrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migration completed")
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel

	// 4. Collaborators of the resource service.
	assets, err := a.setupAssets(bgCtx)
	if err != nil {
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	publisher, err := a.setupPublisher()
	if err != nil {
		return nil, fmt.Errorf("setup events: %w", err)
	}
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}
	callerMW, err := a.setupCaller(bgCtx)
	if err != nil {
		return nil, fmt.Errorf("setup auth: %w", err)
	}

	// 5. Manual dependency injection: store → service → handler → module.
	a.registry = resource.DefaultRegistry()
	a.resources = resource.NewService(resource.Deps{
		Registry:  a.registry,
		Store:     resource.NewStore(db),
		Assets:    assets,
		Publisher: publisher,
		Metrics:   recorder,
		Logger:    log.Logger,
	})
	handler := resource.NewHandler(a.resources, pkg.ListLimits{
		DefaultSize: cfg.Query.DefaultSize,
		MaxSize:     cfg.Query.MaxSize,
	})
	mod := resource.NewModule(handler, a.registry)

	// 6. Create Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsConfig := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)
	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(corsConfig),
	)
	if cfg.Server.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RPS,
			Burst:             cfg.Server.RateLimit.Burst,
		}))
	}
	if timeout := serverTimeout(cfg.Server.Timeout); timeout > 0 {
		engine.Use(middleware.Timeout(timeout))
	}

	// 7. Register all routes.
	deps := &RouteDeps{
		Modules:       []Module{mod},
		DB:            db,
		APIMiddleware: []gin.HandlerFunc{callerMW},
	}
	if recorder != nil {
		deps.Metrics = recorder.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	a.engine = engine

	success = true
	return a, nil
}

func (a *App) setupAssets(ctx context.Context) (storage.AssetStore, error) {
	sc := a.cfg.Storage
	switch sc.Driver {
	case "local":
		return storage.NewLocalStore(sc.Local.Dir)
	case "gcs":
		s, closer, err := newGCSStore(ctx, sc.GCS)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, namedCloser{name: "storage", c: closer})
		return s, nil
	default:
		a.logger.Warn("no asset store configured, media assets are kept on permanent delete")
		return storage.Discard{}, nil
	}
}

func (a *App) setupPublisher() (events.Publisher, error) {
	if !a.cfg.Events.Enabled {
		return events.Nop{}, nil
	}
	p, closer, err := newNATSPublisher(a.cfg.Events)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{name: "events", c: closer})
	return p, nil
}

// setupCaller returns the middleware that resolves the caller of API requests.
func (a *App) setupCaller(ctx context.Context) (gin.HandlerFunc, error) {
	ac := a.cfg.Auth
	if !ac.Enabled {
		a.logger.Warn("auth disabled, every request runs as the development admin",
			slog.String("subject", ac.DevSubject))
		return middleware.StaticCaller(domain.Caller{Subject: ac.DevSubject, Admin: true}), nil
	}

	var (
		v   *auth.Verifier
		err error
	)
	if ac.JWKSURL != "" {
		v, err = auth.NewJWKSVerifier(ctx, ac.JWKSURL, ac.AdminRole, a.logger.Logger)
	} else {
		v, err = auth.NewHMACVerifier(ac.JWTSecret, ac.AdminRole, a.logger.Logger)
	}
	if err != nil {
		return nil, err
	}
	return middleware.Authenticate(v), nil
}

func resolveCORSConfig(mode string, cc config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	if len(cc.AllowMethods) > 0 {
		corsConfig.AllowMethods = cc.AllowMethods
	}
	if len(cc.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cc.AllowHeaders
	}
	corsConfig.AllowCredentials = cc.AllowCredentials
	if d, err := time.ParseDuration(cc.MaxAge); err == nil && d > 0 {
		corsConfig.MaxAge = strconv.Itoa(int(d.Seconds()))
	}

	if len(cc.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cc.AllowOrigins
		return corsConfig
	}

	if mode == gin.ReleaseMode {
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig
}

func serverTimeout(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// Resources returns the resource service, for callers that drive it without
// HTTP such as the command-line tools.
func (a *App) Resources() resource.Service { return a.resources }

// Registry returns the registered resource descriptors.
func (a *App) Registry() *resource.Registry { return a.registry }

// DB returns the database handle.
func (a *App) DB() *gorm.DB { return a.db }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Logger
}

// Close releases everything New acquired without serving. It is used by
// callers that never call Run.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.release()
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and then releases the
// database, the publisher, the asset store and the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		a.Logger().Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		a.Logger().Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		// Graceful shutdown with 5-second deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger().Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.release()

	return runErr
}

// release closes acquired resources in reverse order. The logger is closed
// last so the other closers can still log.
func (a *App) release() {
	log := a.Logger()

	if a.stopBackground != nil {
		a.stopBackground()
		a.stopBackground = nil
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			log.Error("close error", slog.String("component", nc.name), slog.Any("error", err))
		}
	}
	a.closers = nil

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("database close error", slog.Any("error", err))
			} else {
				log.Info("database connection closed")
			}
		}
		a.db = nil
	}

	if a.logger != nil {
		log.Info("application stopped")
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
		a.logger = nil
	}
}
