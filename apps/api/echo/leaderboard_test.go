package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/habitrank/core/leaderboard"
	testutil "github.com/trezcool/habitrank/tests"
)

func Test_leaderboardApi_query(t *testing.T) {
	f := setup(t)
	anaToken := f.getToken(t, ana)

	// ana: 2 days of sleep, ben: 1 day of sleep & hydration
	testutil.CreateRecord(t, f.repos.Records, "ana", testutil.Day(week, 0), "sleep")
	testutil.CreateRecord(t, f.repos.Records, "ana", testutil.Day(week, 1), "sleep")
	testutil.CreateRecord(t, f.repos.Records, "ben", testutil.Day(week, 1), "sleep", "hydration")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/leaderboards?scope=team&scope_id=team-1", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid scope", path: "/v1/leaderboards?scope=league&scope_id=team-1", token: anaToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"scope":"scope must be one of team or club"}`),
		},
		{
			name: "Missing scope id", path: "/v1/leaderboards?scope=team", token: anaToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"scope_id":"this field is required"}`),
		},
		{
			name: "Invalid week", path: "/v1/leaderboards?scope=team&scope_id=team-1&week=lol", token: anaToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"week":"invalid week"}`),
		},
		{
			name: "Invalid include_inactive", path: "/v1/leaderboards?scope=team&scope_id=team-1&include_inactive=maybe", token: anaToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"include_inactive":"invalid boolean"}`),
		},
		{
			name: "Unknown team", path: "/v1/leaderboards?scope=team&scope_id=nope", token: anaToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Other club's team", path: "/v1/leaderboards?scope=team&scope_id=team-x", token: anaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Other club", path: "/v1/leaderboards?scope=club&scope_id=club-2", token: anaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	runHTTPTests(t, f, tests)

	t.Run("Current week by default", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/leaderboards?scope=team&scope_id=team-1", anaToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var board leaderboard.Board
		unmarchall(t, rec, &board)
		assert.Equal(t, week, board.Week)
		assert.Equal(t, leaderboard.ScopeTeam, board.Scope)
		assert.Equal(t, "team-1", board.ScopeID)
		require.Len(t, board.Entries, 2)

		// tie on 2 points: player id breaks it, both rank 1
		assert.Equal(t, "ana", board.Entries[0].PlayerID)
		assert.Equal(t, "ben", board.Entries[1].PlayerID)
		assert.Equal(t, 1, board.Entries[0].Rank)
		assert.Equal(t, 1, board.Entries[1].Rank)
		assert.Equal(t, 2, board.Stats.TotalPlayers)
		assert.Equal(t, 2, board.Stats.TopScore)
	})

	t.Run("Club week", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/leaderboards?scope=club&scope_id=club-1&week=2024-W05", f.getToken(t, coach))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var board leaderboard.Board
		unmarchall(t, rec, &board)
		assert.Equal(t, leaderboard.ScopeClub, board.Scope)
		assert.Len(t, board.Entries, 2)
	})

	t.Run("Past week without records", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/leaderboards?scope=team&scope_id=team-1&week=2024-W04", anaToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var board leaderboard.Board
		unmarchall(t, rec, &board)
		require.Len(t, board.Entries, 2)
		for _, e := range board.Entries {
			assert.Equal(t, 0, e.WeeklyScore)
			assert.Equal(t, 1, e.Rank)
		}
	})
}
