package graph

import (
	"context"
	"time"

	"github.com/passnet/passnet/engine/domain"
	"github.com/passnet/passnet/pkg/neoutil"
)

const (
	cypherNetwork = `
		MATCH (a:Player)-[p:PASSED_TO {matchId: $matchId}]->(b:Player)
		WHERE p.minute >= $fromMin AND p.minute < $toMin
		  AND ($teamId IS NULL OR p.teamId = $teamId)
		  AND ($successfulOnly = false OR p.successful = true)
		RETURN a.playerId AS fromId, a.name AS fromName,
		       b.playerId AS toId, b.name AS toName,
		       count(p) AS count
		ORDER BY count DESC`

	cypherPlayers = `
		MATCH (a:Player)-[p:PASSED_TO {matchId: $matchId}]->(b:Player)
		WHERE $teamId IS NULL OR p.teamId = $teamId
		WITH collect(DISTINCT a) + collect(DISTINCT b) AS ps
		UNWIND ps AS pl
		RETURN DISTINCT pl.playerId AS playerId, pl.name AS name
		ORDER BY name`

	// Averages are computed only over passes carrying both start
	// coordinates; the count covers every qualifying pass, so players
	// without coordinate data still appear with null averages.
	cypherPositions = `
		MATCH (a:Player)-[p:PASSED_TO {matchId: $matchId}]->(:Player)
		WHERE p.minute >= $fromMin AND p.minute < $toMin
		  AND ($teamId IS NULL OR p.teamId = $teamId)
		RETURN a.playerId AS playerId, a.name AS name,
		       avg(CASE WHEN p.startX IS NOT NULL AND p.startY IS NOT NULL THEN p.startX END) AS avgX,
		       avg(CASE WHEN p.startX IS NOT NULL AND p.startY IS NOT NULL THEN p.startY END) AS avgY,
		       count(p) AS passesMade
		ORDER BY passesMade DESC`

	cypherTopPassers = `
		MATCH (a:Player)-[p:PASSED_TO {matchId: $matchId}]->(:Player)
		WHERE p.minute >= $fromMin AND p.minute < $toMin
		  AND p.teamId = $teamId
		RETURN a.playerId AS playerId, a.name AS name,
		       count(p) AS attempts,
		       sum(CASE WHEN p.successful = true THEN 1 ELSE 0 END) AS completed
		ORDER BY attempts DESC
		LIMIT $limit`

	cypherMatches = `
		MATCH (m:Match)
		RETURN m.matchId AS matchId, toString(m.importedAt) AS importedAt
		ORDER BY m.importedAt DESC`

	cypherTeams = `
		MATCH (m:Match {matchId: $matchId})-[:INVOLVES_TEAM]->(t:Team)
		RETURN t.teamId AS teamId, t.name AS name
		ORDER BY name`
)

// Network returns the passing network for a match under the given filter:
// one link per ordered player pair weighted by pass count, ordered by
// weight descending (ties in unspecified order), plus the distinct nodes
// referenced by those links in first-appearance order.
func (s *Store) Network(ctx context.Context, matchID string, f Filter) (Network, error) {
	out := Network{Nodes: []NetworkNode{}, Links: []NetworkLink{}}
	err := s.runRead(ctx, "network", matchID, cypherNetwork, f.params(matchID), func(ctx context.Context, res neoutil.CypherResult) error {
		seen := make(map[int64]bool)
		for res.Next(ctx) {
			rec := res.Record()
			link := NetworkLink{
				Source: recInt(rec, "fromId"),
				Target: recInt(rec, "toId"),
				Count:  recInt(rec, "count"),
			}
			out.Links = append(out.Links, link)
			for _, n := range []NetworkNode{
				{ID: link.Source, Name: recStr(rec, "fromName")},
				{ID: link.Target, Name: recStr(rec, "toName")},
			} {
				if !seen[n.ID] {
					seen[n.ID] = true
					out.Nodes = append(out.Nodes, n)
				}
			}
		}
		return res.Err()
	})
	if err != nil {
		return Network{}, err
	}
	return out, nil
}

// Players returns the distinct players appearing as source or target of
// any pass in the match, optionally restricted to one team, ordered by
// name ascending.
func (s *Store) Players(ctx context.Context, matchID string, teamID *int64) ([]PlayerInfo, error) {
	var tid any
	if teamID != nil {
		tid = *teamID
	}
	params := map[string]any{"matchId": matchID, "teamId": tid}

	out := []PlayerInfo{}
	err := s.runRead(ctx, "players", matchID, cypherPlayers, params, func(ctx context.Context, res neoutil.CypherResult) error {
		for res.Next(ctx) {
			rec := res.Record()
			out = append(out, PlayerInfo{PlayerID: recInt(rec, "playerId"), Name: recStr(rec, "name")})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Positions returns per-player average pass origins under the filter,
// ordered by qualifying pass count descending. The successful-only flag is
// not applied here; positions cover all qualifying passes.
func (s *Store) Positions(ctx context.Context, matchID string, f Filter) ([]PlayerPosition, error) {
	out := []PlayerPosition{}
	err := s.runRead(ctx, "positions", matchID, cypherPositions, f.params(matchID), func(ctx context.Context, res neoutil.CypherResult) error {
		for res.Next(ctx) {
			rec := res.Record()
			out = append(out, PlayerPosition{
				PlayerID:   recInt(rec, "playerId"),
				Name:       recStr(rec, "name"),
				AvgX:       recFloatPtr(rec, "avgX"),
				AvgY:       recFloatPtr(rec, "avgY"),
				PassesMade: recInt(rec, "passesMade"),
			})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TopPassers ranks a team's players by pass attempts within the filter
// window, truncated to limit. The filter's team id is required; its
// absence is a client fault wrapping domain.ErrMissingParam.
func (s *Store) TopPassers(ctx context.Context, matchID string, f Filter, limit int64) ([]PasserStats, error) {
	if f.TeamID == nil {
		return nil, domain.NewValidationError("teamId", "", domain.ErrMissingParam)
	}
	params := f.params(matchID)
	params["limit"] = limit

	out := []PasserStats{}
	err := s.runRead(ctx, "top-passers", matchID, cypherTopPassers, params, func(ctx context.Context, res neoutil.CypherResult) error {
		for res.Next(ctx) {
			rec := res.Record()
			out = append(out, PasserStats{
				PlayerID:  recInt(rec, "playerId"),
				Name:      recStr(rec, "name"),
				Attempts:  recInt(rec, "attempts"),
				Completed: recInt(rec, "completed"),
			})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Matches lists imported matches, most recent import first.
func (s *Store) Matches(ctx context.Context) ([]MatchInfo, error) {
	out := []MatchInfo{}
	err := s.runRead(ctx, "matches", "", cypherMatches, nil, func(ctx context.Context, res neoutil.CypherResult) error {
		for res.Next(ctx) {
			rec := res.Record()
			out = append(out, MatchInfo{MatchID: recStr(rec, "matchId"), ImportedAt: recStr(rec, "importedAt")})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Teams lists the teams involved in a match, ordered by name ascending.
func (s *Store) Teams(ctx context.Context, matchID string) ([]TeamInfo, error) {
	out := []TeamInfo{}
	err := s.runRead(ctx, "teams", matchID, cypherTeams, map[string]any{"matchId": matchID}, func(ctx context.Context, res neoutil.CypherResult) error {
		for res.Next(ctx) {
			rec := res.Record()
			out = append(out, TeamInfo{TeamID: recInt(rec, "teamId"), Name: recStr(rec, "name")})
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// runRead executes one read query through the timeout bound and breaker,
// handing the result to collect. Substrate failures come back wrapping
// domain.ErrQueryFailed; zero rows is success.
func (s *Store) runRead(ctx context.Context, name, matchID, cypher string, params map[string]any, collect func(context.Context, neoutil.CypherResult) error) error {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.guardRead(ctx, func(ctx context.Context) error {
		sess := s.opener.OpenSession(ctx)
		defer sess.Close(ctx)

		res, err := sess.Run(ctx, cypher, params)
		if err != nil {
			return err
		}
		return collect(ctx, res)
	})
	observeQuery(name, start, err)
	if err != nil {
		return domain.NewQueryError(matchID, name, err)
	}
	return nil
}
