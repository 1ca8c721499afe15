package events

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/passnet/passnet/engine/domain"
)

// Parse decodes a raw JSON event log and extracts pass records and teams
// for the given match identifier. The payload must be a JSON array; any
// other top-level shape fails with domain.ErrInvalidInput. Individual
// events that do not decode or do not qualify are skipped, never fatal.
func Parse(matchID string, payload []byte) (Extract, error) {
	// json.Unmarshal decodes the null literal into a nil slice without
	// error, so the sequence check must look at the payload itself.
	if trimmed := bytes.TrimSpace(payload); len(trimmed) == 0 || trimmed[0] != '[' {
		return Extract{}, domain.NewValidationError("events", "payload must be a JSON array of events", domain.ErrInvalidInput)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return Extract{}, domain.NewValidationError("events", "payload must be a JSON array of events",
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}

	evs := make([]RawEvent, 0, len(items))
	for _, item := range items {
		var ev RawEvent
		if err := json.Unmarshal(item, &ev); err != nil {
			continue // not an event-shaped element
		}
		evs = append(evs, ev)
	}
	return FromEvents(matchID, evs), nil
}

// FromEvents extracts pass records and the team registry from already
// decoded events. Event order is preserved in the pass list.
func FromEvents(matchID string, evs []RawEvent) Extract {
	reg := newTeamRegistry()
	var passes []PassRecord

	for _, ev := range evs {
		if ev.Team != nil && ev.Team.ID != nil && ev.Team.Name != nil {
			reg.put(*ev.Team.ID, *ev.Team.Name)
		}

		if ev.Type == nil || ev.Type.Name == nil || *ev.Type.Name != PassActionName {
			continue
		}
		if ev.Pass == nil || ev.Player == nil || ev.Player.ID == nil {
			continue
		}
		to := ev.Pass.Recipient
		if to == nil || to.ID == nil {
			continue
		}

		startX, startY := coordPair(ev.Location)
		endX, endY := coordPair(ev.Pass.EndLocation)

		rec := PassRecord{
			EventID:       ev.ID,
			MatchID:       matchID,
			FromID:        *ev.Player.ID,
			FromName:      nameOf(ev.Player),
			ToID:          *to.ID,
			ToName:        nameOf(to),
			Minute:        ev.Minute,
			Second:        ev.Second,
			Timestamp:     ev.Timestamp,
			StartX:        startX,
			StartY:        startY,
			EndX:          endX,
			EndY:          endY,
			Length:        ev.Pass.Length,
			UnderPressure: ev.UnderPressure != nil && *ev.UnderPressure,
			Successful:    outcomeIsNull(ev.Pass.Outcome),
		}
		if ev.Team != nil {
			rec.TeamID = ev.Team.ID
		}
		passes = append(passes, rec)
	}

	return Extract{MatchID: matchID, Passes: passes, Teams: reg.teams()}
}

// outcomeIsNull reports whether the outcome field was absent or the JSON
// null literal. Any other value, regardless of shape, marks a failed pass.
func outcomeIsNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// coordPair splits a location array into nullable x/y components,
// tolerating short arrays.
func coordPair(loc []float64) (*float64, *float64) {
	var x, y *float64
	if len(loc) >= 1 {
		v := loc[0]
		x = &v
	}
	if len(loc) >= 2 {
		v := loc[1]
		y = &v
	}
	return x, y
}

func nameOf(p *PlayerRef) string {
	if p == nil || p.Name == nil {
		return ""
	}
	return *p.Name
}

// teamRegistry keeps (id → name) pairs, last write wins, insertion ordered.
type teamRegistry struct {
	index map[int64]int
	list  []Team
}

func newTeamRegistry() *teamRegistry {
	return &teamRegistry{index: make(map[int64]int)}
}

func (r *teamRegistry) put(id int64, name string) {
	if i, ok := r.index[id]; ok {
		r.list[i].Name = name
		return
	}
	r.index[id] = len(r.list)
	r.list = append(r.list, Team{ID: id, Name: name})
}

func (r *teamRegistry) teams() []Team { return r.list }
