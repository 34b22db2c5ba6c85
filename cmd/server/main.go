// Command fp-server starts the FoodPocket HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/foodpocket/internal/config"
	"github.com/and161185/foodpocket/internal/limiter"
	"github.com/and161185/foodpocket/internal/migrate"
	"github.com/and161185/foodpocket/internal/repository/postgres"
	httpserver "github.com/and161185/foodpocket/internal/server/http"
	"github.com/and161185/foodpocket/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations and serves the API until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("tz", cfg.TimeZone),
	)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("time zone", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	accounts := postgres.NewAccountRepo(db)
	tokens := postgres.NewTokenRepo(db)
	pockets := postgres.NewPocketRepo(db)
	restaurants := postgres.NewRestaurantRepo(db)
	visits := postgres.NewVisitRepo(db)

	lim := limiter.NewPG(db.Pool, limiter.Policy{
		Window:   cfg.Login.Window,
		MaxFails: cfg.Login.MaxFails,
		BlockFor: cfg.Login.BlockFor,
	})

	// Services
	clock := service.SystemClock(loc)
	authSvc := service.NewAuthService(accounts, tokens, pockets, lim, cfg.TokenTTL, clock)
	pocketSvc := service.NewPocketService(pockets)
	restaurantSvc := service.NewRestaurantService(pockets, restaurants, visits, clock)
	visitSvc := service.NewVisitService(pockets, restaurants, visits, clock)

	var keyed *limiter.Keyed
	if cfg.RateLimit.RPS > 0 {
		keyed = limiter.NewKeyed(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go sweep(ctx, keyed, cfg.RateLimit.IdleTTL, logger)
	}

	app := httpserver.New(httpserver.Deps{
		Auth:        authSvc,
		Pockets:     pocketSvc,
		Restaurants: restaurantSvc,
		Visits:      visitSvc,
		Health:      db,
		Limiter:     keyed,
		Metrics:     httpserver.NewMetrics(),
		Log:         logger,
		Loc:         loc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

// sweep drops idle per-IP buckets until ctx is done.
func sweep(ctx context.Context, k *limiter.Keyed, idle time.Duration, log *zap.Logger) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := k.Sweep(idle); n > 0 {
				log.Debug("rate limiter sweep", zap.Int("dropped", n), zap.Int("kept", k.Len()))
			}
		}
	}
}
