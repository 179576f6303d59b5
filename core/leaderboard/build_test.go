package leaderboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
)

var week = calendar.WeekID{Year: 2024, Week: 5}

type fakeSource struct {
	mu      sync.Mutex
	acts    []activity.Activity
	records map[string][]tracking.DailyRecord
	err     error
	loaded  []string
}

func (src *fakeSource) ContextSet(_ context.Context, c activity.Context) (*activity.Set, error) {
	return activity.NewSet(c, src.acts, nil), nil
}

func (src *fakeSource) WeekRecords(ctx context.Context, playerID string, _ calendar.WeekID) ([]tracking.DailyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src.mu.Lock()
	src.loaded = append(src.loaded, playerID)
	src.mu.Unlock()
	if src.err != nil {
		return nil, src.err
	}
	return src.records[playerID], nil
}

func daily(id string) activity.Activity {
	return activity.Activity{
		ID:         id,
		ClubID:     "club-1",
		Scope:      activity.ScopeClub,
		Name:       id,
		Frequency:  activity.Daily(),
		PointValue: 1,
		IsActive:   true,
		ActiveFrom: calendar.NewDate(2024, time.January, 1),
	}
}

// days returns n days of records completing ids, starting on Monday.
func days(playerID string, n int, ids ...string) []tracking.DailyRecord {
	recs := make([]tracking.DailyRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, tracking.DailyRecord{PlayerID: playerID, Date: week.Start().AddDays(i), CompletedActivityIDs: ids})
	}
	return recs
}

func player(id, teamID string) roster.Player {
	return roster.Player{ID: id, ClubID: "club-1", TeamID: teamID, Name: "Player " + id, IsActive: true}
}

func newSource() *fakeSource {
	return &fakeSource{
		acts: []activity.Activity{daily("sleep"), daily("hydration"), daily("stretch")},
		records: map[string][]tracking.DailyRecord{
			"p1": days("p1", 7, "sleep", "hydration"),                             // 14
			"p2": days("p2", 7, "sleep", "hydration", "stretch"),                  // 21
			"p3": days("p3", 7, "sleep", "hydration"),                             // 14
			"p4": days("p4", 3, "sleep"),                                          // 3
		},
	}
}

func ranks(board leaderboard.Board) map[string]int {
	out := make(map[string]int, len(board.Entries))
	for _, e := range board.Entries {
		out[e.PlayerID] = e.Rank
	}
	return out
}

func ids(board leaderboard.Board) []string {
	out := make([]string, 0, len(board.Entries))
	for _, e := range board.Entries {
		out = append(out, e.PlayerID)
	}
	return out
}

func TestBuild_tie(t *testing.T) {
	src := &fakeSource{
		acts: []activity.Activity{daily("sleep"), daily("hydration"), {
			ID: "wallball", ClubID: "club-1", Scope: activity.ScopeClub, Name: "WallBall",
			Frequency: activity.TimesPerWeek(3), PointValue: 1, IsActive: true,
			ActiveFrom: calendar.NewDate(2024, time.January, 1),
		}},
		records: map[string][]tracking.DailyRecord{},
	}
	for _, id := range []string{"zoe", "adam"} {
		recs := days(id, 7, "sleep", "hydration")
		recs[1].CompletedActivityIDs = []string{"sleep", "hydration", "wallball"}
		recs[4].CompletedActivityIDs = []string{"sleep", "hydration", "wallball"}
		src.records[id] = recs
	}
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"}
	players := []roster.Player{player("zoe", "team-1"), player("adam", "team-1")}

	tests := []struct {
		policy string
		want   []int
	}{
		{policy: leaderboard.PolicyCompetition, want: []int{1, 1}},
		{policy: leaderboard.PolicySequential, want: []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			board, err := leaderboard.Build(context.Background(), q, players, src, leaderboard.Options{Policy: tt.policy})
			require.NoError(t, err)

			assert.Equal(t, 2, board.Stats.TotalPlayers)
			assert.Equal(t, []string{"adam", "zoe"}, ids(board))
			for i, e := range board.Entries {
				assert.Equal(t, 16, e.WeeklyScore)
				assert.Equal(t, tt.want[i], e.Rank)
			}
		})
	}
}

func TestBuild_ranking(t *testing.T) {
	players := []roster.Player{player("p4", "team-1"), player("p3", "team-1"), player("p1", "team-1"), player("p2", "team-1")}
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"}

	tests := []struct {
		policy string
		want   map[string]int
	}{
		{policy: leaderboard.PolicyCompetition, want: map[string]int{"p2": 1, "p1": 2, "p3": 2, "p4": 4}},
		{policy: leaderboard.PolicySequential, want: map[string]int{"p2": 1, "p1": 2, "p3": 3, "p4": 4}},
		{policy: "unknown", want: map[string]int{"p2": 1, "p1": 2, "p3": 2, "p4": 4}},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			board, err := leaderboard.Build(context.Background(), q, players, newSource(), leaderboard.Options{Policy: tt.policy, Concurrency: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"p2", "p1", "p3", "p4"}, ids(board))
			assert.Equal(t, tt.want, ranks(board))
			assert.Equal(t, leaderboard.Stats{TotalPlayers: 4, AverageScore: 13, TopScore: 21}, board.Stats)
			assert.Equal(t, 21, board.Entries[0].MaxWeeklyScore)
			assert.Equal(t, 3, board.Entries[3].DaysCompleted)
		})
	}
}

func TestBuild_deterministic(t *testing.T) {
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeClub, ScopeID: "club-1"}
	players := []roster.Player{player("p1", "team-1"), player("p2", "team-2"), player("p3", "team-1"), player("p4", "team-2")}
	reversed := []roster.Player{players[3], players[2], players[1], players[0]}
	opts := leaderboard.Options{Policy: leaderboard.PolicyCompetition, Concurrency: 3}

	first, err := leaderboard.Build(context.Background(), q, players, newSource(), opts)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		in := players
		if i%2 == 1 {
			in = reversed
		}
		board, err := leaderboard.Build(context.Background(), q, in, newSource(), opts)
		require.NoError(t, err)
		assert.Equal(t, first, board)
	}
}

func TestBuild_noRecords(t *testing.T) {
	src := newSource()
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"}
	players := []roster.Player{player("p1", "team-1"), player("newbie", "team-1")}

	board, err := leaderboard.Build(context.Background(), q, players, src, leaderboard.Options{})
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)

	last := board.Entries[1]
	assert.Equal(t, "newbie", last.PlayerID)
	assert.Equal(t, 0, last.WeeklyScore)
	assert.Equal(t, 2, last.Rank)
	assert.Equal(t, 7.0, board.Stats.AverageScore)
}

func TestBuild_scope(t *testing.T) {
	foreign := player("intruder", "team-1")
	foreign.ClubID = "club-2"
	retired := player("retired", "team-1")
	retired.IsActive = false

	players := []roster.Player{
		player("p1", "team-1"),
		player("p1", "team-1"),
		player("p2", "team-2"),
		foreign,
		retired,
	}

	tests := []struct {
		name string
		q    leaderboard.Query
		want []string
	}{
		{
			name: "team",
			q:    leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"},
			want: []string{"p1"},
		},
		{
			name: "team including inactive",
			q:    leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1", IncludeInactive: true},
			want: []string{"p1", "retired"},
		},
		{
			name: "club",
			q:    leaderboard.Query{Week: week, Scope: leaderboard.ScopeClub, ScopeID: "club-1"},
			want: []string{"p2", "p1"},
		},
		{
			name: "other club",
			q:    leaderboard.Query{Week: week, Scope: leaderboard.ScopeClub, ScopeID: "club-2"},
			want: []string{"intruder"},
		},
		{
			name: "empty team",
			q:    leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-9"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource()
			board, err := leaderboard.Build(context.Background(), tt.q, players, src, leaderboard.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(board))
			assert.Equal(t, len(tt.want), board.Stats.TotalPlayers)
			assert.ElementsMatch(t, tt.want, src.loaded, "records only loaded for the scope")
		})
	}
}

func TestBuild_empty(t *testing.T) {
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"}
	board, err := leaderboard.Build(context.Background(), q, nil, newSource(), leaderboard.Options{})
	require.NoError(t, err)
	assert.NotNil(t, board.Entries)
	assert.Empty(t, board.Entries)
	assert.Equal(t, leaderboard.Stats{}, board.Stats)
}

func TestBuild_errors(t *testing.T) {
	q := leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: "team-1"}
	players := []roster.Player{player("p1", "team-1"), player("p2", "team-1")}

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("boom")
		src := newSource()
		src.err = boom
		_, err := leaderboard.Build(context.Background(), q, players, src, leaderboard.Options{})
		assert.Equal(t, boom, errors.Cause(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := leaderboard.Build(ctx, q, players, newSource(), leaderboard.Options{})
		assert.Equal(t, context.Canceled, errors.Cause(err))
	})
}

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       leaderboard.Query
		wantErr bool
	}{
		{name: "team", q: leaderboard.Query{Week: week, Scope: "team", ScopeID: "t"}},
		{name: "club", q: leaderboard.Query{Week: week, Scope: "club", ScopeID: "c"}},
		{name: "bad scope", q: leaderboard.Query{Week: week, Scope: "league", ScopeID: "c"}, wantErr: true},
		{name: "no scope id", q: leaderboard.Query{Week: week, Scope: "club"}, wantErr: true},
		{name: "bad week", q: leaderboard.Query{Week: calendar.WeekID{Year: 2024, Week: 60}, Scope: "club", ScopeID: "c"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
