// Package ingest turns raw event payloads into materialized match graphs:
// parse, then replace the match's derived data, behind a per-match lock so
// concurrent imports of the same identifier serialize.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/passnet/passnet/engine/events"
	"github.com/passnet/passnet/engine/graph"
	"github.com/passnet/passnet/pkg/fn"
)

// Materializer is the slice of the graph store the import pipeline needs.
type Materializer interface {
	ImportMatch(ctx context.Context, matchID string, teams []events.Team, passes []events.PassRecord) (graph.ImportSummary, error)
}

// Service runs the import pipeline.
type Service struct {
	store Materializer
	log   *slog.Logger
	retry fn.RetryOpts

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithRetry retries the materialization stage on failure. Safe because a
// match import is a full replace.
func WithRetry(opts fn.RetryOpts) Option {
	return func(s *Service) { s.retry = opts }
}

// NewService creates an import service over a materializer.
func NewService(store Materializer, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store: store,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Import parses payload as a StatsBomb-style event array and replaces the
// derived graph data for matchID. Parse failures leave the existing match
// data untouched.
func (s *Service) Import(ctx context.Context, matchID string, payload []byte) (graph.ImportSummary, error) {
	pipeline := fn.Then(fn.Then(s.parseStage(matchID), s.logParsed()), s.materializeStage())

	start := time.Now()
	result := pipeline(ctx, payload)
	sum, err := result.Unwrap()
	if err != nil {
		s.log.Error("import failed", "match_id", matchID, "error", err)
		return graph.ImportSummary{}, err
	}
	s.log.Info("import complete",
		"match_id", matchID,
		"teams", sum.TeamsImported,
		"passes", sum.PassesImported,
		"duration", time.Since(start),
	)
	return sum, nil
}

func (s *Service) parseStage(matchID string) fn.Stage[[]byte, events.Extract] {
	return fn.TracedStage("import.parse", func(_ context.Context, payload []byte) fn.Result[events.Extract] {
		return fn.FromPair(events.Parse(matchID, payload))
	})
}

func (s *Service) logParsed() fn.Stage[events.Extract, events.Extract] {
	return fn.TapStage(func(_ context.Context, ex events.Extract) {
		s.log.Debug("events parsed",
			"match_id", ex.MatchID,
			"teams", len(ex.Teams),
			"passes", len(ex.Passes),
		)
	})
}

func (s *Service) materializeStage() fn.Stage[events.Extract, graph.ImportSummary] {
	stage := fn.TracedStage("import.materialize", func(ctx context.Context, ex events.Extract) fn.Result[graph.ImportSummary] {
		unlock := s.lock(ex.MatchID)
		defer unlock()
		return fn.FromPair(s.store.ImportMatch(ctx, ex.MatchID, ex.Teams, ex.Passes))
	})
	if s.retry.MaxAttempts > 1 {
		return fn.RetryStage(s.retry, stage)
	}
	return stage
}

// lock serializes imports per match identifier.
func (s *Service) lock(matchID string) func() {
	s.mu.Lock()
	m, ok := s.locks[matchID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[matchID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
