package rediscache_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
	rediscache "github.com/trezcool/habitrank/storage/cache/redis"
	testutil "github.com/trezcool/habitrank/tests"
)

var week = calendar.WeekID{Year: 2024, Week: 5}

func setup(t *testing.T) (leaderboard.Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rediscache.NewLeaderboardCache(client), mr
}

func newBoard(scopeID string) leaderboard.Board {
	return leaderboard.Board{
		Week:    week,
		Scope:   leaderboard.ScopeTeam,
		ScopeID: scopeID,
		Entries: []leaderboard.Entry{
			{PlayerID: "ana", PlayerName: "Ana", TeamID: scopeID, Week: week, Scope: leaderboard.ScopeTeam, WeeklyScore: 7, MaxWeeklyScore: 14, DaysCompleted: 7, Rank: 1},
		},
		Stats: leaderboard.Stats{
			TotalPlayers: 1,
			AverageScore: 7,
			TopScore:     7,
			BestWeek:     &leaderboard.WeekStat{Week: week.Prev(), AverageScore: 9.5},
		},
	}
}

func keyOf(scopeID string) string {
	return leaderboard.CacheKey(leaderboard.Query{Week: week, Scope: leaderboard.ScopeTeam, ScopeID: scopeID})
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	conf := testutil.NewConfig()

	conf.Redis.Address = mr.Addr()
	client, err := rediscache.Open(context.Background(), conf)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	mr.Close()
	_, err = rediscache.Open(context.Background(), conf)
	assert.Error(t, err)
}

func TestLeaderboardCache_GetSet(t *testing.T) {
	cache, mr := setup(t)
	ctx := context.Background()
	key := keyOf("team-1")

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "miss")

	board := newBoard("team-1")
	require.NoError(t, cache.Set(ctx, key, board, 15*time.Second))
	assert.Equal(t, 15*time.Second, mr.TTL(key))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, board, got)

	mr.FastForward(16 * time.Second)
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired")
}

func TestLeaderboardCache_Get_staleEncoding(t *testing.T) {
	cache, mr := setup(t)
	key := keyOf("team-1")
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok, err := cache.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboardCache_unavailable(t *testing.T) {
	cache, mr := setup(t)
	ctx := context.Background()
	mr.Close()

	_, _, err := cache.Get(ctx, keyOf("team-1"))
	assert.Error(t, err)
	assert.Error(t, cache.Set(ctx, keyOf("team-1"), newBoard("team-1"), time.Second))
	assert.Error(t, cache.Delete(ctx, keyOf("team-1")))
	assert.Error(t, cache.DeletePrefix(ctx, "leaderboard:"))
}

func TestLeaderboardCache_Delete(t *testing.T) {
	cache, mr := setup(t)
	ctx := context.Background()
	for _, id := range []string{"team-1", "team-2", "team-3"} {
		require.NoError(t, cache.Set(ctx, keyOf(id), newBoard(id), time.Minute))
	}

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, keyOf("team-1"), keyOf("team-2"), keyOf("missing")))
	assert.Equal(t, []string{keyOf("team-3")}, mr.Keys())
}

func TestLeaderboardCache_DeletePrefix(t *testing.T) {
	ids := []string{"team-1", "team-10", "t*", "tx", "club-1"}

	tests := []struct {
		name     string
		prefixes []string
		wantKept []string
	}{
		{name: "none", wantKept: ids},
		{name: "exact scope", prefixes: []string{"leaderboard:team:team-1:"}, wantKept: []string{"team-10", "t*", "tx", "club-1"}},
		{name: "glob chars are literal", prefixes: []string{"leaderboard:team:t*:"}, wantKept: []string{"team-1", "team-10", "tx", "club-1"}},
		{name: "several", prefixes: []string{"leaderboard:team:tx:", "leaderboard:team:club-1:"}, wantKept: []string{"team-1", "team-10", "t*"}},
		{name: "everything", prefixes: []string{"leaderboard:"}, wantKept: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, mr := setup(t)
			ctx := context.Background()
			for _, id := range ids {
				require.NoError(t, cache.Set(ctx, keyOf(id), newBoard(id), time.Minute))
			}

			require.NoError(t, cache.DeletePrefix(ctx, tt.prefixes...))

			want := make([]string, 0, len(tt.wantKept))
			for _, id := range tt.wantKept {
				want = append(want, keyOf(id))
			}
			sort.Strings(want)
			got := mr.Keys() // sorted
			if got == nil {
				got = []string{}
			}
			assert.Equal(t, want, got)
		})
	}
}
