package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/passnet/passnet/engine/domain"
	"github.com/passnet/passnet/engine/graph"
	"github.com/passnet/passnet/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxUploadBytes caps event file uploads (a full match is a few MB).
const maxUploadBytes = 32 << 20

// matchStore is the slice of the graph store the handlers need.
type matchStore interface {
	Network(ctx context.Context, matchID string, f graph.Filter) (graph.Network, error)
	Players(ctx context.Context, matchID string, teamID *int64) ([]graph.PlayerInfo, error)
	Positions(ctx context.Context, matchID string, f graph.Filter) ([]graph.PlayerPosition, error)
	TopPassers(ctx context.Context, matchID string, f graph.Filter, limit int64) ([]graph.PasserStats, error)
	Matches(ctx context.Context) ([]graph.MatchInfo, error)
	Teams(ctx context.Context, matchID string) ([]graph.TeamInfo, error)
}

// importer runs the synchronous import pipeline.
type importer interface {
	Import(ctx context.Context, matchID string, payload []byte) (graph.ImportSummary, error)
}

// enqueuer queues an import for the worker; nil when NATS is not configured.
type enqueuer func(ctx context.Context, matchID string, payload []byte) (string, error)

func newRouter(store matchStore, imp importer, enqueue enqueuer, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/matches/import", handleImport(imp, enqueue, logger))
	mux.HandleFunc("GET /api/matches", handleMatches(store, logger))
	mux.HandleFunc("GET /api/matches/{matchId}/teams", handleTeams(store, logger))
	mux.HandleFunc("GET /api/matches/{matchId}/players", handlePlayers(store, logger))
	mux.HandleFunc("GET /api/matches/{matchId}/network", handleNetwork(store, logger))
	mux.HandleFunc("GET /api/matches/{matchId}/positions", handlePositions(store, logger))
	mux.HandleFunc("GET /api/matches/{matchId}/top-passers", handleTopPassers(store, logger))
	return mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response envelopes follow the original API contract: every success body
// carries ok=true, every error body ok=false plus the message.

// ImportResponse is the JSON response for POST /api/matches/import.
type ImportResponse struct {
	OK             bool   `json:"ok"`
	MatchID        string `json:"matchId"`
	TeamsImported  int    `json:"teamsImported"`
	PassesImported int    `json:"passesImported"`
}

// QueuedResponse is returned for async imports.
type QueuedResponse struct {
	OK      bool   `json:"ok"`
	MatchID string `json:"matchId"`
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
}

// MatchesResponse wraps the match listing.
type MatchesResponse struct {
	OK      bool              `json:"ok"`
	Matches []graph.MatchInfo `json:"matches"`
}

// TeamsResponse wraps a match's team listing.
type TeamsResponse struct {
	OK      bool             `json:"ok"`
	MatchID string           `json:"matchId"`
	Teams   []graph.TeamInfo `json:"teams"`
}

// PlayersResponse wraps a match's roster.
type PlayersResponse struct {
	OK      bool               `json:"ok"`
	MatchID string             `json:"matchId"`
	Players []graph.PlayerInfo `json:"players"`
}

// NetworkResponse wraps the passing network.
type NetworkResponse struct {
	OK      bool                `json:"ok"`
	MatchID string              `json:"matchId"`
	Nodes   []graph.NetworkNode `json:"nodes"`
	Links   []graph.NetworkLink `json:"links"`
}

// PositionsResponse wraps average player positions.
type PositionsResponse struct {
	OK        bool                   `json:"ok"`
	MatchID   string                 `json:"matchId"`
	Positions []graph.PlayerPosition `json:"positions"`
}

// TopPassersResponse wraps the top-passer ranking.
type TopPassersResponse struct {
	OK      bool                `json:"ok"`
	MatchID string              `json:"matchId"`
	Players []graph.PasserStats `json:"players"`
}

func handleImport(imp importer, enqueue enqueuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		payload, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read upload")
			return
		}
		matchID := matchIDFromFilename(header.Filename)
		if matchID == "" {
			writeError(w, http.StatusBadRequest, "filename must carry the match id")
			return
		}

		if enqueue != nil && r.URL.Query().Get("async") == "true" {
			jobID, err := enqueue(r.Context(), matchID, payload)
			if err != nil {
				logger.Error("enqueue failed", "match_id", matchID, "error", err)
				writeError(w, http.StatusServiceUnavailable, "import queue unavailable")
				return
			}
			writeJSON(w, http.StatusAccepted, QueuedResponse{OK: true, MatchID: matchID, JobID: jobID, Status: "queued"})
			return
		}

		sum, err := imp.Import(r.Context(), matchID, payload)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ImportResponse{
			OK:             true,
			MatchID:        matchID,
			TeamsImported:  sum.TeamsImported,
			PassesImported: sum.PassesImported,
		})
	}
}

// matchIDFromFilename strips a trailing .json (any case) from the uploaded
// filename. Returns "" when nothing remains.
func matchIDFromFilename(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 && strings.EqualFold(name[idx:], ".json") {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

func handleMatches(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := store.Matches(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchesResponse{OK: true, Matches: matches})
	}
}

func handleTeams(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchId")
		teams, err := store.Teams(r.Context(), matchID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TeamsResponse{OK: true, MatchID: matchID, Teams: teams})
	}
}

func handlePlayers(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchId")
		teamID := graph.ParseTeamID(r.URL.Query().Get("teamId"))
		players, err := store.Players(r.Context(), matchID, teamID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PlayersResponse{OK: true, MatchID: matchID, Players: players})
	}
}

func handleNetwork(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchId")
		net, err := store.Network(r.Context(), matchID, filterFromQuery(r))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, NetworkResponse{OK: true, MatchID: matchID, Nodes: net.Nodes, Links: net.Links})
	}
}

func handlePositions(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchId")
		positions, err := store.Positions(r.Context(), matchID, filterFromQuery(r))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PositionsResponse{OK: true, MatchID: matchID, Positions: positions})
	}
}

func handleTopPassers(store matchStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchId")
		limit := graph.ParseLimit(r.URL.Query().Get("limit"))
		stats, err := store.TopPassers(r.Context(), matchID, filterFromQuery(r), limit)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TopPassersResponse{OK: true, MatchID: matchID, Players: stats})
	}
}

func filterFromQuery(r *http.Request) graph.Filter {
	q := r.URL.Query()
	return graph.ParseFilter(q.Get("fromMin"), q.Get("toMin"), q.Get("teamId"), q.Get("successful"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// writeDomainError maps the error taxonomy to HTTP statuses: client faults
// become 400, an open circuit 503, everything else 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrMissingParam):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, resilience.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
