package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	inmemdb "github.com/trezcool/habitrank/storage/database/inmem"
)

// Repos bundles the in-memory repositories of one test.
type Repos struct {
	Activities  activity.Repository
	Roster      roster.Repository
	Records     tracking.Repository
	Reflections reflection.Repository
}

func NewRepos() Repos {
	db := inmemdb.Open()
	return Repos{
		Activities:  inmemdb.NewActivityRepository(db),
		Roster:      inmemdb.NewRosterRepository(db),
		Records:     inmemdb.NewTrackingRepository(db),
		Reflections: inmemdb.NewReflectionRepository(db),
	}
}

// NewConfig returns the configuration tests run with.
func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Habitrank",
		Build:     "test",
		SecretKey: "test-secret-key",
		TimeZone:  "UTC",
		Storage:   "memory",
		Server:    core.ServerConfig{DisableReqLogs: true, ShutdownTimeout: time.Second},
		Tracking:  core.TrackingConfig{HistoryWindowDays: 14, MaxAttempts: 3},
		Leaderboard: core.LeaderboardConfig{
			RankingPolicy: "competition",
			Concurrency:   4,
			CacheTTL:      15 * time.Second,
			StatsWeeks:    4,
		},
	}
}

func Week(t *testing.T, s string) calendar.WeekID {
	w, err := calendar.ParseWeekID(s)
	if err != nil {
		t.Fatalf("Week() failed: %v", err)
	}
	return w
}

// Day returns the i-th day (0 = Monday) of w.
func Day(w calendar.WeekID, i int) calendar.Date {
	return w.Start().AddDays(i)
}

func CreateClub(t *testing.T, repo roster.Repository, id, name string) roster.Club {
	club, err := repo.CreateClub(context.Background(), roster.Club{ID: id, Name: name, TimeZone: "UTC", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateClub() failed: %v", err)
	}
	return club
}

func CreateTeam(t *testing.T, repo roster.Repository, id, clubID, name string) roster.Team {
	team, err := repo.CreateTeam(context.Background(), roster.Team{ID: id, ClubID: clubID, Name: name, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateTeam() failed: %v", err)
	}
	return team
}

func CreatePlayer(t *testing.T, repo roster.Repository, id, clubID, teamID, name string, isActive bool) roster.Player {
	p := roster.Player{
		ID:        id,
		ClubID:    clubID,
		TeamID:    teamID,
		Name:      name,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	if !isActive {
		now := time.Now().UTC()
		p.DeactivatedAt = &now
	}
	p, err := repo.CreatePlayer(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}
	return p
}

// NewActivity fills the defaults of a test activity: 1 point, daily, active since 2000-01-01.
func NewActivity(id, clubID, teamID, name string) activity.Activity {
	scope := activity.ScopeClub
	if teamID != "" {
		scope = activity.ScopeTeam
	}
	now := time.Now().UTC()
	return activity.Activity{
		ID:         id,
		ClubID:     clubID,
		TeamID:     teamID,
		Scope:      scope,
		Name:       name,
		Frequency:  activity.Daily(),
		PointValue: 1,
		IsActive:   true,
		ActiveFrom: calendar.NewDate(2000, time.January, 1),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func CreateActivity(t *testing.T, repo activity.Repository, act activity.Activity) activity.Activity {
	act.IsActive = act.DeactivatedOn == nil
	act, err := repo.CreateActivity(context.Background(), act)
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return act
}

// CreateRecord stores the completions of a player on a date.
func CreateRecord(t *testing.T, repo tracking.Repository, playerID string, date calendar.Date, ids ...string) tracking.DailyRecord {
	now := time.Now().UTC()
	rec, err := repo.CreateRecord(context.Background(), tracking.DailyRecord{
		PlayerID:             playerID,
		Date:                 date,
		CompletedActivityIDs: tracking.NormalizeIDs(ids),
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}
