package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/handler"
	"github.com/msomdec/swirl-rewards/internal/repository/sqlite"
	"github.com/msomdec/swirl-rewards/internal/service"
)

// sessionCookieTTL is how long a client keeps its session cookie, and with
// it the persisted account.
const sessionCookieTTL = 30 * 24 * time.Hour

// redeemAddrFactor scales the per-session redeem rate into the per-IP rate,
// leaving room for several clients behind one NAT.
const redeemAddrFactor = 5

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "swirl-rewards.db")
	adminEmail := envOrDefault("ADMIN_EMAIL", service.DefaultAdminEmail)

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		slog.Error("SESSION_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(sessionSecret) < 32 {
		slog.Error("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	idleTTL, err := time.ParseDuration(envOrDefault("SESSION_IDLE_TTL", "30m"))
	if err != nil || idleTTL <= 0 {
		slog.Error("invalid SESSION_IDLE_TTL", "value", os.Getenv("SESSION_IDLE_TTL"), "error", err)
		os.Exit(1)
	}

	redeemRate := 10
	if v := os.Getenv("REDEEM_RATE_PER_MINUTE"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid REDEEM_RATE_PER_MINUTE", "error", err)
			os.Exit(1)
		}
		if parsed < 1 {
			slog.Error("REDEEM_RATE_PER_MINUTE must be at least 1", "value", parsed)
			os.Exit(1)
		}
		redeemRate = parsed
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	// Seed the reward catalog and flavor candidates (idempotent).
	if err := service.SeedCatalog(context.Background(), db.Rewards()); err != nil {
		slog.Error("failed to seed reward catalog", "error", err)
		os.Exit(1)
	}
	votes := service.NewVoteService(db.Flavors())
	if err := votes.SeedFlavors(context.Background()); err != nil {
		slog.Error("failed to seed flavors", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog seeded")

	sessions := service.NewSessionRegistry(func(ns string) domain.LocalStorage {
		return db.LocalStorage(ns)
	}, db.Rewards(), idleTTL)
	redeemLimiter := service.PerMinute(redeemRate)
	redeemAddrLimiter := service.PerMinute(redeemRate * redeemAddrFactor)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Config{
		Sessions:          sessions,
		Tokens:            service.NewSessionTokens(sessionSecret, sessionCookieTTL),
		Votes:             votes,
		RedeemLimiter:     redeemLimiter,
		RedeemAddrLimiter: redeemAddrLimiter,
		DB:                db.SqlDB,
		AdminEmail:        adminEmail,
		CookieSecure:      cookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, time.Minute)
	go redeemLimiter.Run(ctx)
	go redeemAddrLimiter.Run(ctx)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "admin_email", adminEmail)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
