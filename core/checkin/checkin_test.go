package checkin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/checkin"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	testutil "github.com/trezcool/habitrank/tests"
)

type invalidation struct {
	playerID string
	week     calendar.WeekID
}

type recordingInvalidator struct {
	calls []invalidation
}

func (inv *recordingInvalidator) Invalidate(_ context.Context, p roster.Player, week calendar.WeekID) error {
	inv.calls = append(inv.calls, invalidation{p.ID, week})
	return nil
}

type countingMetrics struct {
	core.Metrics
	results map[string]int
}

func (m *countingMetrics) CheckIn(result string) { m.results[result]++ }

var (
	week  = calendar.WeekID{Year: 2024, Week: 5}
	today = testutil.Day(week, 2) // Wednesday
)

type fixture struct {
	svc     *checkin.Service
	repos   testutil.Repos
	inv     *recordingInvalidator
	metrics *countingMetrics
}

func setup(t *testing.T) fixture {
	repos := testutil.NewRepos()
	conf := testutil.NewConfig()

	testutil.CreateClub(t, repos.Roster, "club-1", "Falcons")
	testutil.CreateTeam(t, repos.Roster, "team-1", "club-1", "U12")
	testutil.CreateTeam(t, repos.Roster, "team-2", "club-1", "U14")
	testutil.CreatePlayer(t, repos.Roster, "ana", "club-1", "team-1", "Ana", true)
	testutil.CreatePlayer(t, repos.Roster, "dan", "club-1", "team-1", "Dan", false)

	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("sleep", "club-1", "", "Sleep"))
	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("hydration", "club-1", "", "Hydration"))
	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("u14-drill", "club-1", "team-2", "Drill"))

	wallball := testutil.NewActivity("wallball", "club-1", "team-1", "Wall ball")
	wallball.PointValue = 2
	testutil.CreateActivity(t, repos.Activities, wallball)

	off := testutil.Day(week, 1)
	stretch := testutil.NewActivity("stretch", "club-1", "", "Stretch")
	stretch.DeactivatedOn = &off
	testutil.CreateActivity(t, repos.Activities, stretch)

	inv := &recordingInvalidator{}
	metrics := &countingMetrics{Metrics: core.NopMetrics, results: make(map[string]int)}
	svc := checkin.NewService(
		roster.NewService(repos.Roster),
		activity.NewService(repos.Activities),
		tracking.NewService(repos.Records, conf, metrics),
		inv,
		conf,
		nil,
		metrics,
	)
	return fixture{svc: svc, repos: repos, inv: inv, metrics: metrics}
}

func TestService_CheckIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: today, Completed: true}, today)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, week, res.Week)
	assert.Equal(t, []string{"sleep"}, res.Record.CompletedActivityIDs)
	assert.Equal(t, 1, res.DailyScore)
	assert.Equal(t, 1, res.WeeklyScore)
	assert.Equal(t, 7+7+14+1, res.MaxWeeklyScore) // stretch only counted on Monday

	res, err = f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "wallball", Date: today, Completed: true}, today)
	require.NoError(t, err)
	assert.Equal(t, 3, res.DailyScore)

	res, err = f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: testutil.Day(week, 0), Completed: true}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DailyScore)
	assert.Equal(t, 4, res.WeeklyScore)

	t.Run("repeated check-in is a no-op", func(t *testing.T) {
		calls := len(f.inv.calls)
		res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: today, Completed: true}, today)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, 2, res.Record.Version)
		assert.Equal(t, 4, res.WeeklyScore)
		assert.Len(t, f.inv.calls, calls, "no invalidation")
	})

	t.Run("uncheck", func(t *testing.T) {
		res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "wallball", Date: today}, today)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, 1, res.DailyScore)
		assert.Equal(t, 2, res.WeeklyScore)
	})

	assert.Equal(t, []invalidation{{"ana", week}, {"ana", week}, {"ana", week}, {"ana", week}}, f.inv.calls)
	assert.Equal(t, 4, f.metrics.results[core.CheckInApplied])
	assert.Equal(t, 1, f.metrics.results[core.CheckInNoop])
}

func TestService_CheckIn_rejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   checkin.Request
		check func(error) bool
	}{
		{
			name:  "future date",
			req:   checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: today.AddDays(1), Completed: true},
			check: core.IsValidation,
		},
		{
			name:  "outside history window",
			req:   checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: today.AddDays(-15), Completed: true},
			check: core.IsValidation,
		},
		{
			name:  "unknown player",
			req:   checkin.Request{PlayerID: "nobody", ActivityID: "sleep", Date: today, Completed: true},
			check: core.IsNotFound,
		},
		{
			name:  "inactive player",
			req:   checkin.Request{PlayerID: "dan", ActivityID: "sleep", Date: today, Completed: true},
			check: core.IsValidation,
		},
		{
			name:  "unknown activity",
			req:   checkin.Request{PlayerID: "ana", ActivityID: "ghost", Date: today, Completed: true},
			check: core.IsValidation,
		},
		{
			name:  "other team's activity",
			req:   checkin.Request{PlayerID: "ana", ActivityID: "u14-drill", Date: today, Completed: true},
			check: core.IsValidation,
		},
		{
			name:  "deactivated activity",
			req:   checkin.Request{PlayerID: "ana", ActivityID: "stretch", Date: today, Completed: true},
			check: core.IsValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CheckIn(ctx, tt.req, today)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())

			_, err = f.repos.Records.GetRecord(ctx, tt.req.PlayerID, tt.req.Date)
			assert.True(t, core.IsNotFound(err), "record untouched")
		})
	}
	assert.Empty(t, f.inv.calls)
	assert.Equal(t, len(tests), f.metrics.results[core.CheckInRejected])
}

func TestService_CheckIn_historyWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "sleep", Date: today.AddDays(-14), Completed: true}, today)
	assert.NoError(t, err)
}

func TestService_CheckIn_deactivatedHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	monday := testutil.Day(week, 0)

	res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "stretch", Date: monday, Completed: true}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DailyScore)

	// unchecking is still allowed once the activity is gone
	off := testutil.Day(week, 2)
	res, err = f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "stretch", Date: off}, today)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestService_CheckIn_alias(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.repos.Activities.CreateAlias(ctx, activity.Alias{ClubID: "club-1", FromID: "old-sleep", ToID: "sleep"})
	require.NoError(t, err)

	res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: "old-sleep", Date: today, Completed: true}, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"sleep"}, res.Record.CompletedActivityIDs)
	assert.Equal(t, 1, res.DailyScore)
}

func TestService_CheckIn_uncheckAliased(t *testing.T) {
	tests := []struct {
		name       string
		activityID string
	}{
		{name: "through the new id", activityID: "sleep"},
		{name: "through the retired id", activityID: "old-sleep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			testutil.CreateRecord(t, f.repos.Records, "ana", today, "hydration", "old-sleep")
			_, err := f.repos.Activities.CreateAlias(ctx, activity.Alias{ClubID: "club-1", FromID: "old-sleep", ToID: "sleep"})
			require.NoError(t, err)

			res, err := f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: tt.activityID, Date: today, Completed: true}, today)
			require.NoError(t, err)
			assert.False(t, res.Changed, "already completed through the alias")
			assert.Equal(t, 2, res.DailyScore)

			res, err = f.svc.CheckIn(ctx, checkin.Request{PlayerID: "ana", ActivityID: tt.activityID, Date: today}, today)
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, []string{"hydration"}, res.Record.CompletedActivityIDs)
			assert.Equal(t, 1, res.DailyScore)
		})
	}
}

func TestService_WeekSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateRecord(t, f.repos.Records, "ana", testutil.Day(week, 0), "sleep", "hydration", "stretch")
	testutil.CreateRecord(t, f.repos.Records, "ana", testutil.Day(week, 1), "sleep", "stretch")

	sum, err := f.svc.WeekSummary(ctx, "ana", week)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Days[0].Score)
	assert.Equal(t, 1, sum.Days[1].Score, "stretch no longer counts")
	assert.Equal(t, 4, sum.WeeklyScore)
	assert.Equal(t, 2, sum.DaysCompleted)
	assert.Equal(t, 29, sum.MaxWeeklyScore)
	assert.Len(t, sum.Compliance, 4)

	_, err = f.svc.WeekSummary(ctx, "nobody", week)
	assert.True(t, core.IsNotFound(err))
}

func TestRequest_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	req := checkin.Request{PlayerID: " ana ", ActivityID: "sleep", Date: today}
	require.NoError(t, req.Validate(validate))
	assert.Equal(t, "ana", req.PlayerID)

	req = checkin.Request{PlayerID: "ana", ActivityID: "sleep"}
	assert.True(t, core.IsValidation(req.Validate(validate)))

	req = checkin.Request{PlayerID: "ana", Date: today}
	assert.Error(t, req.Validate(validate))
}
