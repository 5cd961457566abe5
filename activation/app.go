package activation

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alovak/card-activation/internal/database"
	"github.com/alovak/card-activation/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/exp/slog"
)

// App is the main application, it contains all the components of the
// activation service and is responsible for starting and stopping them.
type App struct {
	srv    *http.Server
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	config *Config
	db     *database.DB
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "activation"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start(ctx context.Context) error {
	a.logger.Info("starting app...")

	if err := a.config.Validate(); err != nil {
		return err
	}
	if a.config.JWTSecret == DevJWTSecret {
		a.logger.Warn("JWT_SECRET is not set; using the development secret")
	}

	repository, err := a.openRepository(ctx)
	if err != nil {
		return err
	}

	svc := NewService(repository, a.config, a.logger)

	// seeding problems are logged and do not stop the app
	if _, err := svc.SeedAdmin(ctx); err != nil {
		a.logger.Error("seeding admin", slog.Any("err", err))
	}
	if _, err := svc.SeedFees(ctx); err != nil {
		a.logger.Error("seeding fees", slog.Any("err", err))
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(a.logger))
	router.Use(middleware.ClientIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	api := NewAPI(svc, a.logger)
	api.AppendRoutes(router)

	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		a.closeDB()
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) openRepository(ctx context.Context) (*Repository, error) {
	if a.config.Backend == "mem" {
		a.logger.Warn("using in-memory repository")
		return NewRepository(), nil
	}

	opts := database.DefaultOptions()
	opts.DSN = a.config.DatabaseURL
	opts.ConnectTimeout = a.config.StoreConnectTimeout
	opts.RetryInterval = a.config.StoreRetryInterval
	opts.HeartbeatInterval = a.config.StoreHeartbeat

	db, err := database.Connect(ctx, a.logger, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting store: %w", err)
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	a.db = db

	return NewPGRepository(db.DB), nil
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing store", "err", err)
	}
	a.db = nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	if a.srv != nil {
		a.srv.Shutdown(context.Background())
	}

	a.wg.Wait()

	a.closeDB()

	a.logger.Info("app stopped")
}
