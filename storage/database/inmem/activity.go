package inmemdb

import (
	"context"

	"github.com/trezcool/habitrank/core/activity"
)

type activityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

func cloneActivity(act activity.Activity) activity.Activity {
	if act.Revisions != nil {
		revs := make([]activity.Revision, len(act.Revisions))
		copy(revs, act.Revisions)
		act.Revisions = revs
	}
	if act.DeactivatedOn != nil {
		on := *act.DeactivatedOn
		act.DeactivatedOn = &on
	}
	return act
}

func (repo *activityRepository) QueryActivities(_ context.Context, filter activity.QueryFilter) ([]activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ctx := activity.Context{ClubID: filter.ClubID, TeamID: filter.TeamID}
	acts := make([]activity.Activity, 0)
	for _, act := range repo.db.table {
		if ctx.Contains(act) {
			acts = append(acts, cloneActivity(act))
		}
	}
	activity.Sort(acts)
	return acts, nil
}

func (repo *activityRepository) GetActivity(_ context.Context, id string) (activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if act, ok := repo.db.table[id]; ok {
		return cloneActivity(act), nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (repo *activityRepository) CreateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[act.ID]; ok {
		return activity.Activity{}, errExists("activity %s already exists", act.ID)
	}
	repo.db.table[act.ID] = cloneActivity(act)
	return act, nil
}

func (repo *activityRepository) UpdateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[act.ID]
	if !ok {
		return activity.Activity{}, activity.ErrNotFound
	}
	// tenancy & creation data are immutable
	act.ClubID = orig.ClubID
	act.TeamID = orig.TeamID
	act.Scope = orig.Scope
	act.CreatedAt = orig.CreatedAt
	repo.db.table[act.ID] = cloneActivity(act)
	return act, nil
}

func (repo *activityRepository) QueryAliases(_ context.Context, clubID string) ([]activity.Alias, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	aliases := make([]activity.Alias, 0)
	for _, al := range repo.db.aliases {
		if al.ClubID == clubID {
			aliases = append(aliases, al)
		}
	}
	return aliases, nil
}

func (repo *activityRepository) CreateAlias(_ context.Context, alias activity.Alias) (activity.Alias, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.aliases[alias.FromID]; ok {
		return activity.Alias{}, errExists("activity %s is already aliased", alias.FromID)
	}
	repo.db.aliases[alias.FromID] = alias
	return alias, nil
}
