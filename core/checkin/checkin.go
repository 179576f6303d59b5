// Package checkin records a player's activity completions and returns the recomputed scores.
package checkin

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/scoring"
	"github.com/trezcool/habitrank/core/tracking"
)

const defaultHistoryWindowDays = 14

var (
	errFutureDate      = errors.New("cannot check in for a future date")
	errOutsideWindow   = errors.New("date is outside the history window")
	errPlayerInactive  = errors.New("player is deactivated")
	errUnknownActivity = errors.New("activity is not in this player's catalog")
	errNotActiveOnDate = errors.New("activity is not active on this date")
)

type (
	Request struct {
		PlayerID   string        `json:"player_id" validate:"required"`
		ActivityID string        `json:"activity_id" validate:"required"`
		Date       calendar.Date `json:"date"`
		Completed  bool          `json:"completed"`
	}

	Result struct {
		Record         tracking.DailyRecord `json:"record"`
		Changed        bool                 `json:"changed"`
		Week           calendar.WeekID      `json:"week"`
		DailyScore     int                  `json:"daily_score"`
		WeeklyScore    int                  `json:"weekly_score"`
		MaxWeeklyScore int                  `json:"max_weekly_score"`
	}

	Players interface {
		GetPlayer(ctx context.Context, id string) (roster.Player, error)
	}

	Catalog interface {
		ContextSet(ctx context.Context, c activity.Context) (*activity.Set, error)
	}

	// Invalidator is told about every applied check-in.
	Invalidator interface {
		Invalidate(ctx context.Context, p roster.Player, week calendar.WeekID) error
	}

	Service struct {
		players       Players
		catalog       Catalog
		tracking      *tracking.Service
		invalidator   Invalidator
		logger        core.Logger
		metrics       core.Metrics
		historyWindow int
	}
)

func (r *Request) Validate(validate *validator.Validate) error {
	r.PlayerID = core.CleanString(r.PlayerID)
	r.ActivityID = core.CleanString(r.ActivityID)
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Date.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}
	return nil
}

func NewService(
	players Players,
	catalog Catalog,
	trackingSvc *tracking.Service,
	invalidator Invalidator,
	conf *core.Config,
	logger core.Logger,
	metrics core.Metrics,
) *Service {
	window := conf.Tracking.HistoryWindowDays
	if window <= 0 {
		window = defaultHistoryWindowDays
	}
	if metrics == nil {
		metrics = core.NopMetrics
	}
	return &Service{
		players:       players,
		catalog:       catalog,
		tracking:      trackingSvc,
		invalidator:   invalidator,
		logger:        logger,
		metrics:       metrics,
		historyWindow: window,
	}
}

// CheckIn sets the completion of one activity on one date, then rescores the day & week.
// Every check is done before the record is touched.
func (svc *Service) CheckIn(ctx context.Context, req Request, today calendar.Date) (Result, error) {
	res, err := svc.checkIn(ctx, req, today)
	switch {
	case err == nil && res.Changed:
		svc.metrics.CheckIn(core.CheckInApplied)
	case err == nil:
		svc.metrics.CheckIn(core.CheckInNoop)
	case core.IsValidation(err) || core.IsNotFound(err):
		svc.metrics.CheckIn(core.CheckInRejected)
	default:
		svc.metrics.CheckIn(core.CheckInFailed)
	}
	return res, err
}

func (svc *Service) checkIn(ctx context.Context, req Request, today calendar.Date) (Result, error) {
	if req.Date.After(today) {
		return Result{}, core.NewValidationError(errFutureDate, core.FieldError{Field: "date", Error: errFutureDate.Error()})
	}
	if today.DaysSince(req.Date) > svc.historyWindow {
		return Result{}, core.NewValidationError(errOutsideWindow, core.FieldError{Field: "date", Error: errOutsideWindow.Error()})
	}

	player, err := svc.players.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding player")
	}
	if !player.IsActive {
		return Result{}, core.NewValidationError(errPlayerInactive, core.FieldError{Field: "player_id", Error: errPlayerInactive.Error()})
	}

	set, err := svc.catalog.ContextSet(ctx, player.Context())
	if err != nil {
		return Result{}, errors.Wrap(err, "loading activity set")
	}
	act, ok := set.Resolve(req.ActivityID)
	if !ok {
		return Result{}, core.NewValidationError(errUnknownActivity, core.FieldError{Field: "activity_id", Error: errUnknownActivity.Error()})
	}
	if applicable, ok := set.Applicable(req.ActivityID, req.Date); ok {
		act = applicable
	} else if req.Completed {
		return Result{}, core.NewValidationError(errNotActiveOnDate, core.FieldError{Field: "activity_id", Error: errNotActiveOnDate.Error()})
	}

	// stored ids scoring as act, e.g. retired aliases, are the same completion
	same := func(id string) bool {
		if a, ok := set.Applicable(id, req.Date); ok {
			return a.ID == act.ID
		}
		a, ok := set.Resolve(id)
		return ok && a.ID == act.ID
	}
	rec, changed, err := svc.tracking.SetCompletionMatching(ctx, player.ID, req.Date, act.ID, req.Completed, same)
	if err != nil {
		return Result{}, errors.Wrap(err, "setting completion")
	}

	week := calendar.WeekOf(req.Date)
	records, err := svc.tracking.WeekRecords(ctx, player.ID, week)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading week records")
	}

	if changed && svc.invalidator != nil {
		if err := svc.invalidator.Invalidate(ctx, player, week); err != nil && svc.logger != nil {
			svc.logger.Warn("invalidating leaderboards", err)
		}
	}

	return Result{
		Record:         rec,
		Changed:        changed,
		Week:           week,
		DailyScore:     scoring.DailyScore(rec, set),
		WeeklyScore:    scoring.WeeklyScore(week, records, set),
		MaxWeeklyScore: scoring.MaxWeeklyScoreFor(week, set),
	}, nil
}

// WeekSummary scores the player's week day by day.
func (svc *Service) WeekSummary(ctx context.Context, playerID string, week calendar.WeekID) (scoring.WeekSummary, error) {
	player, err := svc.players.GetPlayer(ctx, playerID)
	if err != nil {
		return scoring.WeekSummary{}, errors.Wrap(err, "finding player")
	}
	set, err := svc.catalog.ContextSet(ctx, player.Context())
	if err != nil {
		return scoring.WeekSummary{}, errors.Wrap(err, "loading activity set")
	}
	records, err := svc.tracking.WeekRecords(ctx, player.ID, week)
	if err != nil {
		return scoring.WeekSummary{}, errors.Wrap(err, "loading week records")
	}
	return scoring.Summarize(player.ID, week, records, set), nil
}
