// Package scoring turns tracking records and a resolved activity catalog into scores.
// Every function is pure: stale activity ids score 0 and never fail.
package scoring

import (
	"math"

	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/tracking"
)

const daysPerWeek = 7

type (
	Compliance struct {
		ActivityID string             `json:"activity_id"`
		Name       string             `json:"name"`
		Frequency  activity.Frequency `json:"frequency"`
		Required   int                `json:"required"`
		Completed  int                `json:"completed"`
		Met        bool               `json:"met"`
	}

	DayScore struct {
		Date         calendar.Date `json:"date"`
		Score        int           `json:"score"`
		CompletedIDs []string      `json:"completed_activity_ids"`
	}

	WeekSummary struct {
		PlayerID       string          `json:"player_id"`
		Week           calendar.WeekID `json:"week"`
		Days           [7]DayScore     `json:"days"`
		WeeklyScore    int             `json:"weekly_score"`
		MaxWeeklyScore int             `json:"max_weekly_score"`
		Percentage     float64         `json:"percentage"`
		DaysCompleted  int             `json:"days_completed"`
		Compliance     []Compliance    `json:"compliance"`
	}
)

// countedOn returns the distinct activities of ids scoring on d, after alias resolution.
func countedOn(ids []string, d calendar.Date, set *activity.Set) []activity.Activity {
	out := make([]activity.Activity, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		act, ok := set.Applicable(id, d)
		if !ok || seen[act.ID] {
			continue
		}
		seen[act.ID] = true
		out = append(out, act)
	}
	return out
}

func dayScore(ids []string, d calendar.Date, set *activity.Set) int {
	week := calendar.WeekOf(d)
	var score int
	for _, act := range countedOn(ids, d, set) {
		score += act.TermsFor(week).PointValue
	}
	return score
}

// DailyScore sums the points of the record's activities that count on its date.
func DailyScore(rec tracking.DailyRecord, set *activity.Set) int {
	return dayScore(rec.CompletedActivityIDs, rec.Date, set)
}

// mergeWeek unions the completions of the week's records by date; records outside week are ignored.
func mergeWeek(week calendar.WeekID, records []tracking.DailyRecord) map[calendar.Date][]string {
	days := make(map[calendar.Date][]string, daysPerWeek)
	for _, rec := range records {
		if !week.Contains(rec.Date) {
			continue
		}
		days[rec.Date] = append(days[rec.Date], rec.CompletedActivityIDs...)
	}
	for d, ids := range days {
		days[d] = tracking.NormalizeIDs(ids)
	}
	return days
}

// WeeklyScore sums the daily scores of week. Missing days score 0.
func WeeklyScore(week calendar.WeekID, records []tracking.DailyRecord, set *activity.Set) int {
	var total int
	for d, ids := range mergeWeek(week, records) {
		total += dayScore(ids, d, set)
	}
	return total
}

// DaysCompleted counts the days of week with a positive score.
func DaysCompleted(week calendar.WeekID, records []tracking.DailyRecord, set *activity.Set) int {
	var n int
	for d, ids := range mergeWeek(week, records) {
		if dayScore(ids, d, set) > 0 {
			n++
		}
	}
	return n
}

// FrequencyCompliance counts the days of week on which act scored against its requirement.
func FrequencyCompliance(act activity.Activity, week calendar.WeekID, records []tracking.DailyRecord, set *activity.Set) Compliance {
	terms := act.TermsFor(week)
	c := Compliance{
		ActivityID: act.ID,
		Name:       act.Name,
		Frequency:  terms.Frequency,
		Required:   terms.Frequency.Required(),
	}
	for d, ids := range mergeWeek(week, records) {
		for _, counted := range countedOn(ids, d, set) {
			if counted.ID == act.ID {
				c.Completed++
				break
			}
		}
	}
	c.Met = c.Completed >= c.Required
	return c
}

// MaxWeeklyScore is the score of completing every given activity on all 7 days
// at its highest point value, so it bounds the score of any week.
func MaxWeeklyScore(activities []activity.Activity) int {
	var total int
	for _, act := range activities {
		total += daysPerWeek * act.MaxPointValue()
	}
	return total
}

// MaxWeeklyScoreFor is the best score reachable in week, honouring activation dates and week terms.
func MaxWeeklyScoreFor(week calendar.WeekID, set *activity.Set) int {
	var total int
	for _, act := range set.Activities() {
		points := act.TermsFor(week).PointValue
		for _, d := range week.Days() {
			if act.ActiveOn(d) {
				total += points
			}
		}
	}
	return total
}

// Percentage returns score/maxScore as a percentage with one decimal.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(float64(score)*1000/float64(maxScore)) / 10
}

// Summarize scores week day by day with its frequency compliance.
func Summarize(playerID string, week calendar.WeekID, records []tracking.DailyRecord, set *activity.Set) WeekSummary {
	merged := mergeWeek(week, records)
	sum := WeekSummary{
		PlayerID:       playerID,
		Week:           week,
		MaxWeeklyScore: MaxWeeklyScoreFor(week, set),
	}
	for i, d := range week.Days() {
		ids := merged[d]
		if ids == nil {
			ids = []string{}
		}
		score := dayScore(ids, d, set)
		sum.Days[i] = DayScore{Date: d, Score: score, CompletedIDs: ids}
		sum.WeeklyScore += score
		if score > 0 {
			sum.DaysCompleted++
		}
	}
	sum.Percentage = Percentage(sum.WeeklyScore, sum.MaxWeeklyScore)

	active := set.ActiveDuring(week)
	sum.Compliance = make([]Compliance, 0, len(active))
	for _, act := range active {
		sum.Compliance = append(sum.Compliance, FrequencyCompliance(act, week, records, set))
	}
	return sum
}
