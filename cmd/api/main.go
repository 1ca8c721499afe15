// Package main implements the passnet API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/passnet/passnet/engine/graph"
	"github.com/passnet/passnet/engine/ingest"
	"github.com/passnet/passnet/pkg/config"
	"github.com/passnet/passnet/pkg/mid"
	"github.com/passnet/passnet/pkg/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	auth := neo4j.NoAuth()
	if cfg.Neo4jUser != "" {
		auth = neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, "")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, auth)
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j verify: %w", err)
	}

	store := graph.New(driver,
		graph.WithBreaker(resilience.NewBreaker(resilience.DefaultBreakerOpts)),
	)
	svc := ingest.NewService(store, logger)

	// --- Connect to NATS (optional, enables async imports) ---
	var enqueue enqueuer
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		enqueue = func(ctx context.Context, matchID string, payload []byte) (string, error) {
			return ingest.PublishJob(ctx, nc, matchID, payload)
		}
		logger.Info("async imports enabled", "nats_url", cfg.NatsURL)
	}

	// --- Build HTTP server ---
	mux := newRouter(store, svc, enqueue, logger)

	importLimiter := resilience.NewLimiter(resilience.LimiterOpts{
		Rate:  cfg.ImportRate,
		Burst: cfg.ImportBurst,
	})
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.Metrics(metricsPath),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("passnet-api"),
		limitImports(importLimiter),
	)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// metricsPath collapses the match id segment so metric label cardinality
// stays bounded by the route count, not the match count.
func metricsPath(p string) string {
	const prefix = "/api/matches/"
	rest, ok := strings.CutPrefix(p, prefix)
	if !ok || rest == "" || rest == "import" {
		return p
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + "{matchId}" + rest[i:]
	}
	return prefix + "{matchId}"
}

// limitImports applies the rate limiter to the import endpoint only; reads
// stay unthrottled.
func limitImports(l *resilience.Limiter) mid.Middleware {
	limited := mid.RateLimit(l)
	return func(next http.Handler) http.Handler {
		guarded := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.URL.Path == "/api/matches/import" {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
