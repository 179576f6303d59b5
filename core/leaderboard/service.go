package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/roster"
)

var (
	// errors
	ErrScopeNotFound = core.NewNotFoundError("leaderboard scope")
)

type (
	// Roster is the player directory the service enforces scopes against.
	Roster interface {
		GetTeam(ctx context.Context, id string) (roster.Team, error)
		GetClub(ctx context.Context, id string) (roster.Club, error)
		Players(ctx context.Context, filter roster.PlayerFilter) ([]roster.Player, error)
	}

	// Cache stores built boards. A miss is (Board{}, false, nil).
	Cache interface {
		Get(ctx context.Context, key string) (Board, bool, error)
		Set(ctx context.Context, key string, board Board, ttl time.Duration) error
		Delete(ctx context.Context, keys ...string) error
		// DeletePrefix evicts every key starting with one of prefixes.
		DeletePrefix(ctx context.Context, prefixes ...string) error
	}

	Service struct {
		roster     Roster
		src        Source
		cache      Cache
		logger     core.Logger
		metrics    core.Metrics
		opts       Options
		ttl        time.Duration
		statsWeeks int
	}
)

func NewService(rstr Roster, src Source, cache Cache, conf *core.Config, logger core.Logger, metrics core.Metrics) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if metrics == nil {
		metrics = core.NopMetrics
	}
	policy := conf.Leaderboard.RankingPolicy
	if !ValidPolicy(policy) {
		policy = PolicyCompetition
	}
	return &Service{
		roster:     rstr,
		src:        src,
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
		opts:       Options{Policy: policy, Concurrency: conf.Leaderboard.Concurrency},
		ttl:        conf.Leaderboard.CacheTTL,
		statsWeeks: conf.Leaderboard.StatsWeeks,
	}
}

// CacheKey identifies a built board.
func CacheKey(q Query) string {
	view := "current"
	if q.IncludeInactive {
		view = "all"
	}
	return fmt.Sprintf("%s%s:%s", scopePrefix(q.Scope, q.ScopeID), q.Week, view)
}

// scopePrefix starts the keys of every board of a scope.
func scopePrefix(scope, id string) string {
	return fmt.Sprintf("leaderboard:%s:%s:", scope, id)
}

// Leaderboard builds the board of q. An empty week means the week of today.
// The scope must exist; its players are loaded here, never taken from the caller.
func (svc *Service) Leaderboard(ctx context.Context, q Query, today calendar.Date) (Board, error) {
	started := time.Now()
	if q.Week.IsZero() {
		q.Week = calendar.WeekOf(today)
	}
	if err := q.Validate(); err != nil {
		return Board{}, err
	}

	key := CacheKey(q)
	if board, ok, err := svc.cache.Get(ctx, key); err != nil {
		svc.warn("reading leaderboard cache", err)
	} else if ok {
		svc.metrics.LeaderboardBuilt(q.Scope, true, time.Since(started))
		return board, nil
	}

	players, err := svc.scopePlayers(ctx, q)
	if err != nil {
		return Board{}, err
	}

	board, err := Build(ctx, q, players, svc.src, svc.opts)
	if err != nil {
		return Board{}, errors.Wrap(err, "building leaderboard")
	}
	if board.Stats.TotalPlayers > 0 {
		best, err := svc.bestWeek(ctx, q, players, board)
		if err != nil {
			return Board{}, errors.Wrap(err, "computing best week")
		}
		board.Stats.BestWeek = best
	}

	if svc.ttl > 0 {
		if err := svc.cache.Set(ctx, key, board, svc.ttl); err != nil {
			svc.warn("writing leaderboard cache", err)
		}
	}
	svc.metrics.LeaderboardBuilt(q.Scope, false, time.Since(started))
	return board, nil
}

func (svc *Service) scopePlayers(ctx context.Context, q Query) ([]roster.Player, error) {
	filter := roster.PlayerFilter{ActiveOnly: !q.IncludeInactive}
	switch q.Scope {
	case ScopeTeam:
		team, err := svc.roster.GetTeam(ctx, q.ScopeID)
		if err != nil {
			return nil, svc.trapNotFound(err, "finding team")
		}
		filter.ClubID, filter.TeamID = team.ClubID, team.ID
	case ScopeClub:
		club, err := svc.roster.GetClub(ctx, q.ScopeID)
		if err != nil {
			return nil, svc.trapNotFound(err, "finding club")
		}
		filter.ClubID = club.ID
	}
	players, err := svc.roster.Players(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying scope players")
	}
	return players, nil
}

// bestWeek picks the highest scope average over the trailing stats window ending at q.Week.
// Ties go to the most recent week.
func (svc *Service) bestWeek(ctx context.Context, q Query, players []roster.Player, current Board) (*WeekStat, error) {
	best := &WeekStat{Week: q.Week, AverageScore: current.Stats.AverageScore}
	week := q.Week
	for i := 1; i < svc.statsWeeks; i++ {
		week = week.Prev()
		pq := q
		pq.Week = week
		board, err := Build(ctx, pq, players, svc.src, svc.opts)
		if err != nil {
			return nil, err
		}
		if board.Stats.AverageScore > best.AverageScore {
			best = &WeekStat{Week: week, AverageScore: board.Stats.AverageScore}
		}
	}
	return best, nil
}

// Invalidate evicts the cached boards a check-in of p on week affects.
// Later weeks are included because their best week may be week.
func (svc *Service) Invalidate(ctx context.Context, p roster.Player, week calendar.WeekID) error {
	windows := svc.statsWeeks
	if windows < 1 {
		windows = 1
	}
	keys := make([]string, 0, 4*windows)
	for i := 0; i < windows; i++ {
		for _, q := range []Query{
			{Week: week, Scope: ScopeTeam, ScopeID: p.TeamID},
			{Week: week, Scope: ScopeClub, ScopeID: p.ClubID},
		} {
			keys = append(keys, CacheKey(q))
			q.IncludeInactive = true
			keys = append(keys, CacheKey(q))
		}
		week = week.Next()
	}
	return svc.cache.Delete(ctx, keys...)
}

// InvalidateClub evicts every cached board of the club and its teams, whatever the week.
// Catalog edits and player deactivations change past weeks too.
func (svc *Service) InvalidateClub(ctx context.Context, clubID string) error {
	players, err := svc.roster.Players(ctx, roster.PlayerFilter{ClubID: clubID})
	if err != nil {
		return errors.Wrap(err, "querying club players")
	}
	prefixes := []string{scopePrefix(ScopeClub, clubID)}
	seen := make(map[string]bool)
	for _, p := range players {
		if p.TeamID == "" || seen[p.TeamID] {
			continue
		}
		seen[p.TeamID] = true
		prefixes = append(prefixes, scopePrefix(ScopeTeam, p.TeamID))
	}
	return svc.cache.DeletePrefix(ctx, prefixes...)
}

func (svc *Service) trapNotFound(err error, msg string) error {
	if core.IsNotFound(err) {
		return ErrScopeNotFound
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) warn(msg string, err error) {
	if svc.logger != nil {
		svc.logger.Warn(msg, err)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Board, bool, error)        { return Board{}, false, nil }
func (NopCache) Set(context.Context, string, Board, time.Duration) error { return nil }
func (NopCache) Delete(context.Context, ...string) error                 { return nil }
func (NopCache) DeletePrefix(context.Context, ...string) error           { return nil }
