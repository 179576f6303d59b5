package leaderboard

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/scoring"
	"github.com/trezcool/habitrank/core/tracking"
)

const defaultConcurrency = 8

type (
	RecordReader interface {
		WeekRecords(ctx context.Context, playerID string, week calendar.WeekID) ([]tracking.DailyRecord, error)
	}

	CatalogReader interface {
		ContextSet(ctx context.Context, c activity.Context) (*activity.Set, error)
	}

	// Source feeds Build with each player's week and catalog.
	Source interface {
		RecordReader
		CatalogReader
	}

	source struct {
		RecordReader
		CatalogReader
	}
)

// NewSource joins the tracking store and the activity catalog.
func NewSource(records RecordReader, catalog CatalogReader) Source {
	return source{RecordReader: records, CatalogReader: catalog}
}

// InScope reports whether p belongs to the scope of q.
func InScope(q Query, p roster.Player) bool {
	switch q.Scope {
	case ScopeTeam:
		return q.ScopeID != "" && p.TeamID == q.ScopeID
	case ScopeClub:
		return q.ScopeID != "" && p.ClubID == q.ScopeID
	default:
		return false
	}
}

// Build ranks the players of q's scope for q.Week.
// Players outside the scope are dropped whatever the caller passed in, and inactive ones too
// unless q.IncludeInactive. The result only depends on the inputs.
func Build(ctx context.Context, q Query, players []roster.Player, src Source, opts Options) (Board, error) {
	board := Board{Week: q.Week, Scope: q.Scope, ScopeID: q.ScopeID, Entries: []Entry{}}

	kept := make([]roster.Player, 0, len(players))
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if !InScope(q, p) || (!p.IsActive && !q.IncludeInactive) || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return board, nil
	}

	// one catalog per team
	sets := make(map[activity.Context]*activity.Set)
	for _, p := range kept {
		c := p.Context()
		if _, ok := sets[c]; ok {
			continue
		}
		set, err := src.ContextSet(ctx, c)
		if err != nil {
			return Board{}, errors.Wrap(err, "loading activity set")
		}
		sets[c] = set
	}

	entries := make([]Entry, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(opts))
	for i, p := range kept {
		i, p := i, p
		set := sets[p.Context()]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := src.WeekRecords(gctx, p.ID, q.Week)
			if err != nil {
				return errors.Wrapf(err, "loading records of player %s", p.ID)
			}
			entries[i] = Entry{
				PlayerID:       p.ID,
				PlayerName:     p.Name,
				TeamID:         p.TeamID,
				Week:           q.Week,
				Scope:          q.Scope,
				WeeklyScore:    scoring.WeeklyScore(q.Week, records, set),
				MaxWeeklyScore: scoring.MaxWeeklyScoreFor(q.Week, set),
				DaysCompleted:  scoring.DaysCompleted(q.Week, records, set),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Board{}, err
	}

	Sort(entries)
	Rank(entries, opts.Policy)
	board.Entries = entries
	board.Stats = statsOf(entries)
	return board, nil
}

func concurrency(opts Options) int {
	if opts.Concurrency > 0 {
		return opts.Concurrency
	}
	return defaultConcurrency
}

// Sort orders entries by weekly score desc, then player id asc.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].WeeklyScore != entries[j].WeeklyScore {
			return entries[i].WeeklyScore > entries[j].WeeklyScore
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
}

// Rank assigns 1-based ranks to sorted entries. Unknown policies rank by competition.
func Rank(entries []Entry, policy string) {
	for i := range entries {
		switch {
		case policy == PolicySequential:
			entries[i].Rank = i + 1
		case i > 0 && entries[i].WeeklyScore == entries[i-1].WeeklyScore:
			entries[i].Rank = entries[i-1].Rank
		default:
			entries[i].Rank = i + 1
		}
	}
}

func statsOf(entries []Entry) Stats {
	st := Stats{TotalPlayers: len(entries)}
	if len(entries) == 0 {
		return st
	}
	var total int
	for _, e := range entries {
		total += e.WeeklyScore
		if e.WeeklyScore > st.TopScore {
			st.TopScore = e.WeeklyScore
		}
	}
	st.AverageScore = round2(float64(total) / float64(len(entries)))
	return st
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
