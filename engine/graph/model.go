package graph

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// ImportSummary reports what a materialization wrote.
type ImportSummary struct {
	TeamsImported  int `json:"teamsImported"`
	PassesImported int `json:"passesImported"`
}

// MatchInfo is one imported match.
type MatchInfo struct {
	MatchID    string `json:"matchId"`
	ImportedAt string `json:"importedAt,omitempty"`
}

// TeamInfo is a team involved in a match.
type TeamInfo struct {
	TeamID int64  `json:"teamId"`
	Name   string `json:"name"`
}

// PlayerInfo is a player appearing in a match's pass graph.
type PlayerInfo struct {
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
}

// NetworkNode is a player referenced by at least one network link.
type NetworkNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NetworkLink is a weighted directed edge of the passing network.
type NetworkLink struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Count  int64 `json:"count"`
}

// Network is the passing-network query result.
type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`
}

// PlayerPosition is a player's average pass origin. AvgX/AvgY are nil when
// none of the player's qualifying passes carried start coordinates;
// PassesMade counts all qualifying passes either way.
type PlayerPosition struct {
	PlayerID   int64    `json:"playerId"`
	Name       string   `json:"name"`
	AvgX       *float64 `json:"avgX"`
	AvgY       *float64 `json:"avgY"`
	PassesMade int64    `json:"passesMade"`
}

// PasserStats is one row of the top-passer ranking.
type PasserStats struct {
	PlayerID  int64  `json:"playerId"`
	Name      string `json:"name"`
	Attempts  int64  `json:"attempts"`
	Completed int64  `json:"completed"`
}

// --- record value helpers ---

func recInt(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func recStr(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func recFloatPtr(rec *neo4j.Record, key string) *float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return &n
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}
