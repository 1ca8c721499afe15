package graph

import (
	"context"
	"errors"
	"time"

	"github.com/passnet/passnet/engine/domain"
	"github.com/passnet/passnet/engine/events"
	"github.com/passnet/passnet/pkg/neoutil"
)

// Cypher statements for the materialization sequence. Ordering matters for
// idempotence: stale pass edges and the match node go first, so a re-import
// of the same identifier fully replaces its derived data. Team and Player
// nodes are merged, never deleted, and keep their first-written names.
const (
	cypherDeletePasses = `MATCH (:Player)-[p:PASSED_TO {matchId: $matchId}]->(:Player) DELETE p`

	cypherDeleteMatch = `MATCH (m:Match {matchId: $matchId}) DETACH DELETE m`

	cypherCreateMatch = `MERGE (m:Match {matchId: $matchId}) SET m.importedAt = datetime()`

	cypherMergeTeams = `
		MATCH (m:Match {matchId: $matchId})
		UNWIND $teams AS t
		MERGE (team:Team {teamId: t.teamId})
		  ON CREATE SET team.name = t.name
		MERGE (m)-[:INVOLVES_TEAM]->(team)`

	cypherCreatePasses = `
		UNWIND $passes AS p
		MERGE (a:Player {playerId: p.fromId})
		  ON CREATE SET a.name = p.fromName
		MERGE (b:Player {playerId: p.toId})
		  ON CREATE SET b.name = p.toName
		FOREACH (_ IN CASE WHEN p.teamId IS NULL THEN [] ELSE [1] END |
		  MERGE (t:Team {teamId: p.teamId})
		  MERGE (t)-[:HAS_PLAYER]->(a)
		  MERGE (t)-[:HAS_PLAYER]->(b)
		)
		CREATE (a)-[r:PASSED_TO]->(b)
		SET r.eventId = p.eventId,
		    r.matchId = p.matchId,
		    r.teamId = p.teamId,
		    r.minute = p.minute,
		    r.second = p.second,
		    r.timestamp = p.timestamp,
		    r.startX = p.startX, r.startY = p.startY,
		    r.endX = p.endX, r.endY = p.endY,
		    r.length = p.length,
		    r.underPressure = p.underPressure,
		    r.successful = p.successful`
)

// ImportMatch replaces the derived graph data for matchID with a fresh
// snapshot built from teams and passes. The whole sequence runs in a
// single write transaction: on failure nothing is committed and the error
// wraps domain.ErrImportFailed with the failing step.
func (s *Store) ImportMatch(ctx context.Context, matchID string, teams []events.Team, passes []events.PassRecord) (ImportSummary, error) {
	start := time.Now()
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	steps := []struct {
		name   string
		cypher string
		params map[string]any
		skip   bool
	}{
		{name: "delete passes", cypher: cypherDeletePasses, params: map[string]any{"matchId": matchID}},
		{name: "delete match", cypher: cypherDeleteMatch, params: map[string]any{"matchId": matchID}},
		{name: "create match", cypher: cypherCreateMatch, params: map[string]any{"matchId": matchID}},
		{name: "merge teams", cypher: cypherMergeTeams,
			params: map[string]any{"matchId": matchID, "teams": teamRows(teams)},
			skip:   len(teams) == 0},
		{name: "create passes", cypher: cypherCreatePasses,
			params: map[string]any{"passes": passRows(passes)},
			skip:   len(passes) == 0},
	}

	_, err := sess.ExecuteWrite(ctx, func(tx neoutil.CypherRunner) (any, error) {
		for _, st := range steps {
			if st.skip {
				continue
			}
			if _, err := tx.Run(ctx, st.cypher, st.params); err != nil {
				return nil, domain.NewImportError(matchID, st.name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		importsTotal.WithLabelValues("error").Inc()
		var ie *domain.ImportError
		if errors.As(err, &ie) {
			return ImportSummary{}, err
		}
		return ImportSummary{}, domain.NewImportError(matchID, "write transaction", err)
	}

	importsTotal.WithLabelValues("ok").Inc()
	importedTeams.Add(float64(len(teams)))
	importedPasses.Add(float64(len(passes)))
	importDuration.Observe(time.Since(start).Seconds())

	return ImportSummary{TeamsImported: len(teams), PassesImported: len(passes)}, nil
}

func teamRows(teams []events.Team) []map[string]any {
	rows := make([]map[string]any, len(teams))
	for i, t := range teams {
		rows[i] = map[string]any{"teamId": t.ID, "name": t.Name}
	}
	return rows
}

func passRows(passes []events.PassRecord) []map[string]any {
	rows := make([]map[string]any, len(passes))
	for i, p := range passes {
		rows[i] = map[string]any{
			"eventId":       nullable(p.EventID),
			"matchId":       p.MatchID,
			"teamId":        nullable(p.TeamID),
			"fromId":        p.FromID,
			"fromName":      p.FromName,
			"toId":          p.ToID,
			"toName":        p.ToName,
			"minute":        nullable(p.Minute),
			"second":        nullable(p.Second),
			"timestamp":     nullable(p.Timestamp),
			"startX":        nullable(p.StartX),
			"startY":        nullable(p.StartY),
			"endX":          nullable(p.EndX),
			"endY":          nullable(p.EndY),
			"length":        nullable(p.Length),
			"underPressure": p.UnderPressure,
			"successful":    p.Successful,
		}
	}
	return rows
}

// nullable converts an optional field to its driver parameter value,
// keeping absence as a Cypher null.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
