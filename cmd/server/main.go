package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/yield-farm/internal/access"
	"github.com/atmx/yield-farm/internal/api"
	"github.com/atmx/yield-farm/internal/auth"
	"github.com/atmx/yield-farm/internal/config"
	"github.com/atmx/yield-farm/internal/farm"
	"github.com/atmx/yield-farm/internal/metrics"
	"github.com/atmx/yield-farm/internal/store"
	"github.com/atmx/yield-farm/internal/token"
	"github.com/atmx/yield-farm/internal/units"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL.String())
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Tokens and farm ---
	// The stake token is freely mintable so users can fund themselves in
	// development; the reward token is minted only by the administrator.
	stakeToken := token.NewLedger(cfg.StakeSymbol, cfg.Admin,
		token.WithDecimals(cfg.Decimals), token.WithOpenMint())
	rewardToken := token.NewLedger(cfg.RewardSymbol, cfg.Admin,
		token.WithDecimals(cfg.Decimals))

	if cfg.RewardSupply.IsPositive() {
		supply, err := units.FromDecimal(cfg.RewardSupply, cfg.Decimals)
		if err == nil {
			err = rewardToken.Mint(cfg.Admin, cfg.Admin, supply)
		}
		if err != nil {
			slog.Error("minting reward supply failed", "err", err)
			os.Exit(1)
		}
	}

	gate := access.NewAdminGate(cfg.Admin)
	yieldFarm := farm.New(cfg.FarmAddress, stakeToken, rewardToken, gate, farm.SystemClock{})

	issuer, err := auth.NewIssuer([]byte(cfg.AuthSecret))
	if err != nil {
		slog.Error("invalid AUTH_SECRET", "err", err)
		os.Exit(1)
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run(ctx)

	// --- Farm service ---
	farmSvc := api.NewService(yieldFarm, gate, st, stakeToken, rewardToken)
	yieldFarm.Subscribe(api.NewRecorder(farmSvc, wsHub))

	if cfg.RewardRate.IsPositive() {
		rate, err := units.FromDecimal(cfg.RewardRate, cfg.Decimals)
		if err == nil {
			err = yieldFarm.SetAccRewardPerSecond(cfg.Admin, rate)
		}
		if err != nil {
			slog.Error("setting reward rate failed", "err", err)
			os.Exit(1)
		}
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"yield-farm"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time farm events.
		r.Get("/ws", wsHub.HandleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			farmSvc.Routes(r, api.Authenticate(issuer))
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("yield-farm listening",
			"port", cfg.Port,
			"farm", cfg.FarmAddress,
			"admin", cfg.Admin,
			"stake_token", cfg.StakeSymbol,
			"reward_token", cfg.RewardSymbol,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down yield-farm...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("yield-farm stopped")
}
