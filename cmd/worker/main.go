// Command worker consumes queued match imports from NATS and, optionally,
// bulk-imports event files from a local directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/passnet/passnet/engine/graph"
	"github.com/passnet/passnet/engine/ingest"
	"github.com/passnet/passnet/pkg/config"
	"github.com/passnet/passnet/pkg/fn"
)

func main() {
	var (
		dataDir   = flag.String("dir", "", "directory of event JSON files to bulk-import (optional)")
		interval  = flag.Duration("interval", 30*time.Second, "directory scan interval")
		stateFile = flag.String("state", "", "processed files state (defaults to <dir>/.import-state.json)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth := neo4j.NoAuth()
	if cfg.Neo4jUser != "" {
		auth = neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, "")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, auth)
	if err != nil {
		logger.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Error("neo4j verify failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to Neo4j", "url", cfg.Neo4jURL)

	store := graph.New(driver)
	svc := ingest.NewService(store, logger, ingest.WithRetry(fn.DefaultRetry))

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			logger.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		sub, err := ingest.StartConsumer(nc, svc, logger)
		if err != nil {
			logger.Error("consumer start failed", "error", err)
			os.Exit(1)
		}
		defer sub.Unsubscribe()
		logger.Info("consuming import jobs", "subject", ingest.ImportSubject)
	} else if *dataDir == "" {
		logger.Error("nothing to do: set PASSNET_NATS_URL or -dir")
		os.Exit(1)
	}

	if *dataDir != "" {
		state := *stateFile
		if state == "" {
			state = filepath.Join(*dataDir, ".import-state.json")
		}
		go watchDir(ctx, svc, *dataDir, *interval, state, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

// watchDir scans dir for event files and imports any it has not seen. A
// file is marked processed only after a clean import so failures retry on
// the next scan.
func watchDir(ctx context.Context, svc *ingest.Service, dir string, interval time.Duration, stateFile string, log *slog.Logger) {
	processed := loadState(stateFile)

	scan := func() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Error("readdir failed", "dir", dir, "error", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name()[0] == '.' {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			key := fmt.Sprintf("%s:%d", e.Name(), info.Size())
			if processed[key] {
				continue
			}

			payload, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				log.Error("read failed", "file", e.Name(), "error", err)
				continue
			}
			matchID := strings.TrimSuffix(e.Name(), ".json")
			sum, err := svc.Import(ctx, matchID, payload)
			if err != nil {
				log.Warn("import failed, will retry on next scan", "file", e.Name(), "error", err)
				continue
			}
			log.Info("file imported", "file", e.Name(), "passes", sum.PassesImported)
			processed[key] = true
			saveState(stateFile, processed)
		}
	}

	scan()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scan()
		}
	}
}

func loadState(path string) map[string]bool {
	m := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	json.Unmarshal(data, &m)
	return m
}

func saveState(path string, m map[string]bool) {
	data, _ := json.Marshal(m)
	os.WriteFile(path, data, 0o644)
}
