package leaderboard

import (
	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

// Scopes
const (
	ScopeTeam = "team"
	ScopeClub = "club"
)

// Ranking policies
const (
	// PolicyCompetition gives tied scores the same rank: 1, 2, 2, 4.
	PolicyCompetition = "competition"
	// PolicySequential ranks by position after the tie-break: 1, 2, 3, 4.
	PolicySequential = "sequential"
)

type (
	Query struct {
		Week    calendar.WeekID `json:"week"`
		Scope   string          `json:"scope"`
		ScopeID string          `json:"scope_id"`
		// IncludeInactive keeps deactivated players, for historical views.
		IncludeInactive bool `json:"include_inactive"`
	}

	Entry struct {
		PlayerID       string          `json:"player_id"`
		PlayerName     string          `json:"player_name"`
		TeamID         string          `json:"team_id"`
		Week           calendar.WeekID `json:"week"`
		Scope          string          `json:"scope"`
		WeeklyScore    int             `json:"weekly_score"`
		MaxWeeklyScore int             `json:"max_weekly_score"`
		DaysCompleted  int             `json:"days_completed"`
		Rank           int             `json:"rank"`
	}

	WeekStat struct {
		Week         calendar.WeekID `json:"week"`
		AverageScore float64         `json:"average_score"`
	}

	Stats struct {
		TotalPlayers int       `json:"total_players"`
		AverageScore float64   `json:"average_score"`
		TopScore     int       `json:"top_score"`
		BestWeek     *WeekStat `json:"best_week,omitempty"`
	}

	Board struct {
		Week    calendar.WeekID `json:"week"`
		Scope   string          `json:"scope"`
		ScopeID string          `json:"scope_id"`
		Entries []Entry         `json:"entries"`
		Stats   Stats           `json:"stats"`
	}

	Options struct {
		Policy      string
		Concurrency int
	}
)

func (q Query) Validate() error {
	var flds []core.FieldError
	if q.Scope != ScopeTeam && q.Scope != ScopeClub {
		flds = append(flds, core.FieldError{Field: "scope", Error: "scope must be one of team or club"})
	}
	if q.ScopeID == "" {
		flds = append(flds, core.FieldError{Field: "scope_id", Error: "this field is required"})
	}
	if !q.Week.Valid() {
		flds = append(flds, core.FieldError{Field: "week", Error: "invalid week"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func ValidPolicy(policy string) bool {
	return policy == PolicyCompetition || policy == PolicySequential
}
