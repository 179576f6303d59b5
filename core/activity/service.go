package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("activity")
	errClosedWeek       = errors.New("scoring terms of a closed week cannot change")
	errBeforeActiveFrom = errors.New("cannot deactivate before the activation date")
	errDeactivated      = errors.New("activity is already deactivated")
	errSelfAlias        = errors.New("an activity cannot alias itself")
	errAliasExists      = errors.New("this activity is already aliased")
	errAliasCycle       = errors.New("alias would create a cycle")
	errAliasClub        = errors.New("aliased activities must belong to the same club")
)

type (
	Repository interface {
		// QueryActivities returns club activities of filter.ClubID plus team activities of filter.TeamID.
		QueryActivities(ctx context.Context, filter QueryFilter) ([]Activity, error)
		GetActivity(ctx context.Context, id string) (Activity, error)
		CreateActivity(ctx context.Context, act Activity) (Activity, error)
		UpdateActivity(ctx context.Context, act Activity) (Activity, error)
		QueryAliases(ctx context.Context, clubID string) ([]Alias, error)
		CreateAlias(ctx context.Context, alias Alias) (Alias, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForContext returns the activities of c counting on asOf, in display order.
func (svc *Service) ListForContext(ctx context.Context, c Context, asOf calendar.Date) ([]Activity, error) {
	all, err := svc.repo.QueryActivities(ctx, QueryFilter{ClubID: c.ClubID, TeamID: c.TeamID})
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	out := make([]Activity, 0, len(all))
	for _, a := range all {
		// never trust the repository with tenancy
		if c.Contains(a) && a.ActiveOn(asOf) {
			out = append(out, a)
		}
	}
	Sort(out)
	return out, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Activity, error) {
	return svc.repo.GetActivity(ctx, id)
}

// ContextSet loads every activity of c, active or not, along with the club's aliases.
func (svc *Service) ContextSet(ctx context.Context, c Context) (*Set, error) {
	all, err := svc.repo.QueryActivities(ctx, QueryFilter{ClubID: c.ClubID, TeamID: c.TeamID})
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	aliases, err := svc.repo.QueryAliases(ctx, c.ClubID)
	if err != nil {
		return nil, errors.Wrap(err, "querying aliases")
	}
	return NewSet(c, all, aliases), nil
}

// Create expects a validated NewActivity. A zero ActiveFrom means today.
func (svc *Service) Create(ctx context.Context, na NewActivity, today calendar.Date) (Activity, error) {
	freq, err := ParseFrequency(na.Frequency)
	if err != nil {
		return Activity{}, core.NewValidationError(err, core.FieldError{Field: "frequency", Error: err.Error()})
	}
	activeFrom := na.ActiveFrom
	if activeFrom.IsZero() {
		activeFrom = today
	}
	teamID := na.TeamID
	if na.Scope == ScopeClub {
		teamID = ""
	}

	now := time.Now().UTC()
	act := Activity{
		ID:           uuid.New().String(),
		ClubID:       na.ClubID,
		TeamID:       teamID,
		Scope:        na.Scope,
		Name:         na.Name,
		Description:  na.Description,
		Frequency:    freq,
		PointValue:   na.PointValue,
		IsActive:     true,
		ActiveFrom:   activeFrom,
		DisplayOrder: na.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	act.revise(calendar.WeekOf(activeFrom), Terms{Frequency: freq, PointValue: na.PointValue})
	return svc.repo.CreateActivity(ctx, act)
}

// Update applies presentation edits immediately; frequency & points changes become a revision.
// Expects a validated UpdateActivity.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateActivity, today calendar.Date) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}

	act.Name = ua.Name
	if ua.Description != nil {
		act.Description = *ua.Description
	}
	if ua.DisplayOrder != nil {
		act.DisplayOrder = *ua.DisplayOrder
	}

	if terms, changed := ua.changesTerms(act); changed {
		week := ua.EffectiveWeek
		if week.IsZero() {
			week = calendar.WeekOf(today)
		}
		if week.IsClosed(today) {
			return Activity{}, core.NewValidationError(errClosedWeek, core.FieldError{Field: "effective_week", Error: errClosedWeek.Error()})
		}
		act.revise(week, terms)
	}

	act.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateActivity(ctx, act)
}

// Deactivate stops the activity from counting on and after on. It is idempotent for the same date.
func (svc *Service) Deactivate(ctx context.Context, id string, on, today calendar.Date) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	if act.DeactivatedOn != nil {
		if *act.DeactivatedOn == on {
			return act, nil
		}
		return Activity{}, core.NewValidationError(errDeactivated, core.FieldError{Field: "date", Error: errDeactivated.Error()})
	}
	if on.Before(act.ActiveFrom) {
		return Activity{}, core.NewValidationError(errBeforeActiveFrom, core.FieldError{Field: "date", Error: errBeforeActiveFrom.Error()})
	}
	if calendar.WeekOf(on).IsClosed(today) {
		return Activity{}, core.NewValidationError(errClosedWeek, core.FieldError{Field: "date", Error: errClosedWeek.Error()})
	}

	act.DeactivatedOn = &on
	act.IsActive = false
	act.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateActivity(ctx, act)
}

// AddAlias redirects references to alias.FromID towards alias.ToID.
func (svc *Service) AddAlias(ctx context.Context, alias Alias) (Alias, error) {
	if alias.FromID == alias.ToID {
		return Alias{}, core.NewValidationError(errSelfAlias, core.FieldError{Field: "to_id", Error: errSelfAlias.Error()})
	}
	from, err := svc.repo.GetActivity(ctx, alias.FromID)
	if err != nil {
		return Alias{}, errors.Wrap(err, "finding aliased activity")
	}
	to, err := svc.repo.GetActivity(ctx, alias.ToID)
	if err != nil {
		return Alias{}, errors.Wrap(err, "finding alias target")
	}
	if from.ClubID != to.ClubID {
		return Alias{}, core.NewValidationError(errAliasClub, core.FieldError{Field: "to_id", Error: errAliasClub.Error()})
	}

	existing, err := svc.repo.QueryAliases(ctx, from.ClubID)
	if err != nil {
		return Alias{}, errors.Wrap(err, "querying aliases")
	}
	next := make(map[string]string, len(existing))
	for _, al := range existing {
		next[al.FromID] = al.ToID
	}
	if _, ok := next[alias.FromID]; ok {
		return Alias{}, core.NewValidationError(errAliasExists, core.FieldError{Field: "from_id", Error: errAliasExists.Error()})
	}
	for cur, hop := alias.ToID, 0; hop <= len(next); hop++ {
		if cur == alias.FromID {
			return Alias{}, core.NewValidationError(errAliasCycle, core.FieldError{Field: "to_id", Error: errAliasCycle.Error()})
		}
		n, ok := next[cur]
		if !ok {
			break
		}
		cur = n
	}

	alias.ClubID = from.ClubID
	alias.CreatedAt = time.Now().UTC()
	return svc.repo.CreateAlias(ctx, alias)
}
