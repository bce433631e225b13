package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/nursestation/internal/care"
	"github.com/ehr/nursestation/internal/config"
	"github.com/ehr/nursestation/internal/domain/identity"
	"github.com/ehr/nursestation/internal/domain/ward"
	"github.com/ehr/nursestation/internal/platform/auth"
	"github.com/ehr/nursestation/internal/platform/db"
	"github.com/ehr/nursestation/internal/platform/middleware"
	"github.com/ehr/nursestation/internal/platform/websocket"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "nurse-station",
		Short: "Ward nursing dashboard server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationsDir(cfg, dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsDir(cfg, dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(os.Stdout, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo ward into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := newPostgresWard(pool)
			svc.SetLogger(logger)
			svc.SetSeedDemoData(true)
			return svc.Initialize(ctx)
		},
	}
}

func loadPostgresConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

func migrationsDir(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.MigrationsDir
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func newPostgresWard(pool *pgxpool.Pool) *ward.Service {
	return ward.NewService(
		ward.NewPatientRepoPG(pool),
		ward.NewVitalSignsRepoPG(pool),
		ward.NewTreatmentRepoPG(pool),
		ward.NewNurseNoteRepoPG(pool),
		ward.NewAppointmentRepoPG(pool),
	)
}

// stores holds the ward and staff stores for the configured backend. pool
// is nil for the in-memory backend.
type stores struct {
	ward  *ward.Service
	users identity.UserRepository
	pool  *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if !cfg.UsesPostgres() {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return &stores{ward: ward.NewMemoryService(), users: identity.NewMemoryUserRepo()}, nil
	}

	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")

	applied, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if applied > 0 {
		logger.Info().Int("count", applied).Msg("applied migrations")
	}
	return &stores{ward: newPostgresWard(pool), users: identity.NewUserRepoPG(pool), pool: pool}, nil
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// app is the assembled server.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	ward     *ward.Service
	accounts *identity.Service
	sessions *care.Registry
	tokens   *auth.TokenIssuer
	revoked  *auth.TokenRevocationStore
	hub      *websocket.Hub
	ready    *middleware.Readiness
	pool     *pgxpool.Pool
}

func newApp(cfg *config.Config, logger zerolog.Logger, st *stores) (*app, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(logger)
	st.ward.SetLogger(logger)
	st.ward.SetPublisher(hub)
	st.ward.SetSeedDemoData(cfg.SeedDemoData)

	revoked := auth.NewTokenRevocationStore()
	return &app{
		cfg:      cfg,
		logger:   logger,
		ward:     st.ward,
		accounts: identity.NewService(st.users, logger),
		sessions: care.NewRegistry(st.ward, cfg.SessionTTL, logger),
		tokens:   auth.NewTokenIssuer(key, cfg.SessionTTL, revoked),
		revoked:  revoked,
		hub:      hub,
		ready:    middleware.NewReadiness(),
		pool:     st.pool,
	}, nil
}

// initialize loads the ward store and opens or keeps closed the readiness
// gate.
func (a *app) initialize(ctx context.Context) error {
	if err := a.ward.Initialize(ctx); err != nil {
		a.ready.MarkFailed(err)
		return err
	}
	a.ready.MarkReady()
	return nil
}

// initBackoff is the delay before retry n (0-indexed) of the ward
// initialization. Schedule: 1s, 2s, 4s ... capped at 1m.
func initBackoff(n int) time.Duration {
	d := time.Second << uint(n)
	if n > 6 || d > time.Minute {
		return time.Minute
	}
	return d
}

// initializeWithRetry runs initialize until it succeeds or ctx ends. Each
// attempt gets its own timeout.
func (a *app) initializeWithRetry(ctx context.Context, attemptTimeout time.Duration, backoff func(int) time.Duration) error {
	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := a.initialize(actx)
		cancel()
		if err == nil {
			a.logger.Info().Int("attempt", attempt).Msg("ward ready")
			return nil
		}

		delay := backoff(attempt - 1)
		a.logger.Error().Err(err).Int("attempt", attempt).Dur("retry_in", delay).
			Msg("ward initialization failed; dashboard stays unavailable")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (a *app) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		if !a.ready.Ready() {
			status = "initializing"
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  status,
			"version": version,
			"store":   a.cfg.Store,
			"ready":   a.ready.Ready(),
		})
	})
	if a.pool != nil {
		pool := a.pool
		e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	}
	e.GET("/metrics", middleware.MetricsHandler())

	apiV1 := e.Group("/api/v1")
	care.NewHandler(a.sessions, a.accounts, a.tokens).RegisterRoutes(apiV1, a.ready.RequireReady())
	ward.NewHandler(a.ward).RegisterRoutes(apiV1, a.ready.RequireReady(), auth.SessionMiddleware(a.tokens))

	websocket.NewHandler(a.hub, a.cfg.CORSOrigins).RegisterRoutes(e.Group(""),
		a.ready.RequireReady(),
		auth.UpgradeSessionMiddleware(a.tokens),
		auth.RequireRole(auth.RoleNurse),
	)
	return e
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() && cfg.SessionSigningKey == "" {
		logger.Warn().Msg("SESSION_SIGNING_KEY not set; using the development signing key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open stores")
	}
	defer st.Close()

	a, err := newApp(cfg, logger, st)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	e := a.routes()

	go a.initializeWithRetry(ctx, 30*time.Second, initBackoff)
	go a.sessions.Run(ctx, time.Minute)
	go a.revoked.Run(ctx, 5*time.Minute)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
