// Package events parses raw match event logs into normalized pass records.
// It is a pure transformation layer: no I/O, no substrate access.
package events

import "encoding/json"

// PassActionName is the type tag that marks a pass event.
const PassActionName = "Pass"

// RawEvent models one loosely-structured match event. Every field is
// optional in the source data, so everything is pointer-typed (or a
// nil-able slice) and validated field by field rather than by shape.
type RawEvent struct {
	ID            *string     `json:"id"`
	Type          *TypeRef    `json:"type"`
	Team          *TeamRef    `json:"team"`
	Player        *PlayerRef  `json:"player"`
	Pass          *PassDetail `json:"pass"`
	Location      []float64   `json:"location"`
	Minute        *int64      `json:"minute"`
	Second        *int64      `json:"second"`
	Timestamp     *string     `json:"timestamp"`
	UnderPressure *bool       `json:"under_pressure"`
}

// TypeRef is an event type tag.
type TypeRef struct {
	Name *string `json:"name"`
}

// TeamRef identifies a team inside an event.
type TeamRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// PlayerRef identifies a player inside an event.
type PlayerRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// PassDetail carries the pass-specific payload of an event. Outcome is kept
// raw: any non-null value, whatever its shape, means the pass failed.
type PassDetail struct {
	Recipient   *PlayerRef      `json:"recipient"`
	Outcome     json.RawMessage `json:"outcome"`
	EndLocation []float64       `json:"end_location"`
	Length      *float64        `json:"length"`
}

// Team is a deduplicated (id, name) pair extracted from the event stream.
type Team struct {
	ID   int64  `json:"teamId"`
	Name string `json:"name"`
}

// PassRecord is one normalized pass, ready for materialization. Nullable
// source fields stay pointers so their absence survives into the graph.
type PassRecord struct {
	EventID   *string
	MatchID   string
	TeamID    *int64
	FromID    int64
	FromName  string
	ToID      int64
	ToName    string
	Minute    *int64
	Second    *int64
	Timestamp *string
	StartX    *float64
	StartY    *float64
	EndX      *float64
	EndY      *float64
	Length    *float64

	UnderPressure bool
	Successful    bool
}

// Extract is the parser output: pass records in input order plus the
// deduplicated team list (unique by id, insertion order).
type Extract struct {
	MatchID string
	Passes  []PassRecord
	Teams   []Team
}
