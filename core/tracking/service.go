package tracking

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

const defaultMaxAttempts = 3

var (
	// errors
	ErrNotFound = core.NewNotFoundError("tracking record")
	ErrConflict = core.NewConflictError("tracking record was modified concurrently")
)

type (
	Repository interface {
		GetRecord(ctx context.Context, playerID string, date calendar.Date) (DailyRecord, error)
		// QueryRecords returns the player's records dated within [from, to], ordered by date.
		QueryRecords(ctx context.Context, playerID string, from, to calendar.Date) ([]DailyRecord, error)
		// CreateRecord fails with ErrConflict when the key already exists.
		CreateRecord(ctx context.Context, rec DailyRecord) (DailyRecord, error)
		// UpdateRecord fails with ErrConflict unless the stored version equals expectedVersion.
		UpdateRecord(ctx context.Context, rec DailyRecord, expectedVersion int) (DailyRecord, error)
	}

	Service struct {
		repo        Repository
		metrics     core.Metrics
		maxAttempts int
	}
)

func NewService(repo Repository, conf *core.Config, metrics core.Metrics) *Service {
	attempts := conf.Tracking.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}
	if metrics == nil {
		metrics = core.NopMetrics
	}
	return &Service{repo: repo, metrics: metrics, maxAttempts: attempts}
}

// SetCompletion makes activityID's completion on date equal completed.
// It reads, changes the set and writes back conditionally, retrying on conflicts.
// changed is false when the record already was in the desired state.
func (svc *Service) SetCompletion(
	ctx context.Context,
	playerID string,
	date calendar.Date,
	activityID string,
	completed bool,
) (DailyRecord, bool, error) {
	return svc.SetCompletionMatching(ctx, playerID, date, activityID, completed, nil)
}

// SetCompletionMatching is SetCompletion where stored ids for which same reports true
// count as activityID, e.g. retired ids aliased to it.
func (svc *Service) SetCompletionMatching(
	ctx context.Context,
	playerID string,
	date calendar.Date,
	activityID string,
	completed bool,
	same func(id string) bool,
) (rec DailyRecord, changed bool, err error) {
	for attempt := 1; ; attempt++ {
		if err = ctx.Err(); err != nil {
			return DailyRecord{}, false, err
		}

		rec, changed, err = svc.apply(ctx, playerID, date, activityID, completed, same)
		if errors.Cause(err) != ErrConflict {
			return rec, changed, err
		}
		if attempt >= svc.maxAttempts {
			return DailyRecord{}, false, errors.Wrapf(err, "giving up after %d attempts", attempt)
		}
		svc.metrics.ConflictRetry()
	}
}

func (svc *Service) apply(
	ctx context.Context,
	playerID string,
	date calendar.Date,
	activityID string,
	completed bool,
	same func(string) bool,
) (DailyRecord, bool, error) {
	now := time.Now().UTC()

	current, err := svc.repo.GetRecord(ctx, playerID, date)
	if errors.Cause(err) == ErrNotFound {
		if !completed {
			return DailyRecord{PlayerID: playerID, Date: date, CompletedActivityIDs: []string{}}, false, nil
		}
		rec, err := svc.repo.CreateRecord(ctx, DailyRecord{
			PlayerID:             playerID,
			Date:                 date,
			CompletedActivityIDs: []string{activityID},
			Version:              1,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		if err != nil {
			return DailyRecord{}, false, err
		}
		return rec, true, nil
	}
	if err != nil {
		return DailyRecord{}, false, errors.Wrap(err, "getting tracking record")
	}

	next, changed := current.with(activityID, completed, same)
	if !changed {
		return current, false, nil
	}
	next.Version = current.Version + 1
	next.UpdatedAt = now
	rec, err := svc.repo.UpdateRecord(ctx, next, current.Version)
	if err != nil {
		return DailyRecord{}, false, err
	}
	return rec, true, nil
}

func (svc *Service) Get(ctx context.Context, playerID string, date calendar.Date) (DailyRecord, error) {
	return svc.repo.GetRecord(ctx, playerID, date)
}

// WeekRecords returns the records of the player's week. Missing days are simply absent.
func (svc *Service) WeekRecords(ctx context.Context, playerID string, week calendar.WeekID) ([]DailyRecord, error) {
	recs, err := svc.repo.QueryRecords(ctx, playerID, week.Start(), week.End())
	if err != nil {
		return nil, errors.Wrap(err, "querying tracking records")
	}
	return recs, nil
}
