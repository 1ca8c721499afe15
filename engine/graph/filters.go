package graph

import "strconv"

// Default filter bounds. The minute window is half-open: [FromMin, ToMin).
const (
	DefaultFromMin = 0
	DefaultToMin   = 200
	DefaultLimit   = 10
)

// Filter restricts aggregation queries to a minute window, optionally a
// team, and optionally successful passes only.
type Filter struct {
	FromMin        int64
	ToMin          int64
	TeamID         *int64
	SuccessfulOnly bool
}

// DefaultFilter is the unrestricted window.
func DefaultFilter() Filter {
	return Filter{FromMin: DefaultFromMin, ToMin: DefaultToMin}
}

// ParseFilter builds a Filter from raw query-string values. The policy is
// parse-or-default, never error:
//   - fromMin/toMin: absent or non-numeric fall back to 0 and 200;
//   - teamId: absent or non-numeric means no team restriction;
//   - successful: only the literal "true" enables the restriction.
func ParseFilter(fromMin, toMin, teamID, successful string) Filter {
	return Filter{
		FromMin:        parseMinute(fromMin, DefaultFromMin),
		ToMin:          parseMinute(toMin, DefaultToMin),
		TeamID:         ParseTeamID(teamID),
		SuccessfulOnly: successful == "true",
	}
}

// ParseTeamID parses an optional team identifier. Absent or unparsable
// input means "no team filter".
func ParseTeamID(s string) *int64 {
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// ParseLimit parses a result limit. Absent, unparsable, or negative input
// falls back to DefaultLimit; zero is honored and yields zero rows.
func ParseLimit(s string) int64 {
	if s == "" {
		return DefaultLimit
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return DefaultLimit
	}
	return n
}

func parseMinute(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// params returns the filter as substrate query parameters. A nil team id
// becomes a Cypher null so the same query text serves both cases.
func (f Filter) params(matchID string) map[string]any {
	var teamID any
	if f.TeamID != nil {
		teamID = *f.TeamID
	}
	return map[string]any{
		"matchId":        matchID,
		"fromMin":        f.FromMin,
		"toMin":          f.ToMin,
		"teamId":         teamID,
		"successfulOnly": f.SuccessfulOnly,
	}
}
