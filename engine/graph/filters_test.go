package graph

import "testing"

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name                       string
		fromMin, toMin, teamID, ok string
		want                       Filter
	}{
		{"all absent", "", "", "", "", Filter{FromMin: 0, ToMin: 200}},
		{"window set", "10", "45", "", "", Filter{FromMin: 10, ToMin: 45}},
		{"garbage window falls back", "abc", "-", "", "", Filter{FromMin: 0, ToMin: 200}},
		{"team set", "", "", "217", "", Filter{FromMin: 0, ToMin: 200, TeamID: i64ptr(217)}},
		{"garbage team ignored", "", "", "x1", "", Filter{FromMin: 0, ToMin: 200}},
		{"successful true", "", "", "", "true", Filter{FromMin: 0, ToMin: 200, SuccessfulOnly: true}},
		{"successful other value", "", "", "", "1", Filter{FromMin: 0, ToMin: 200}},
		{"negative minutes kept", "-5", "300", "", "", Filter{FromMin: -5, ToMin: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilter(tt.fromMin, tt.toMin, tt.teamID, tt.ok)
			if got.FromMin != tt.want.FromMin || got.ToMin != tt.want.ToMin || got.SuccessfulOnly != tt.want.SuccessfulOnly {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			switch {
			case tt.want.TeamID == nil && got.TeamID != nil:
				t.Fatalf("expected no team filter, got %d", *got.TeamID)
			case tt.want.TeamID != nil && (got.TeamID == nil || *got.TeamID != *tt.want.TeamID):
				t.Fatalf("got team %v, want %d", got.TeamID, *tt.want.TeamID)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 10},
		{"5", 5},
		{"0", 0},
		{"-3", 10},
		{"abc", 10},
		{"1000", 1000},
	}
	for _, tt := range tests {
		if got := ParseLimit(tt.input); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFilterParams_NilTeamBecomesNull(t *testing.T) {
	p := DefaultFilter().params("m1")
	if p["teamId"] != nil {
		t.Fatalf("expected null teamId, got %v", p["teamId"])
	}
	if p["matchId"] != "m1" || p["fromMin"] != int64(0) || p["toMin"] != int64(200) {
		t.Fatalf("wrong params: %+v", p)
	}
	if p["successfulOnly"] != false {
		t.Fatalf("wrong successfulOnly: %v", p["successfulOnly"])
	}
}
