package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/reflection"
)

type reflectionRepository struct {
	db *reflectionTable
}

var _ reflection.Repository = (*reflectionRepository)(nil) // interface compliance check

func NewReflectionRepository(db *DB) reflection.Repository {
	return &reflectionRepository{db: db.reflection}
}

func (repo *reflectionRepository) UpsertReflection(_ context.Context, r reflection.Reflection) (reflection.Reflection, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := reflectionKey{r.PlayerID, r.Week}
	if orig, ok := repo.db.table[key]; ok {
		r.CreatedAt = orig.CreatedAt
	}
	repo.db.table[key] = r
	return r, nil
}

func (repo *reflectionRepository) GetReflection(_ context.Context, playerID string, week calendar.WeekID) (reflection.Reflection, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[reflectionKey{playerID, week}]; ok {
		return r, nil
	}
	return reflection.Reflection{}, reflection.ErrNotFound
}

func (repo *reflectionRepository) QueryReflections(_ context.Context, playerID string) ([]reflection.Reflection, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	refls := make([]reflection.Reflection, 0)
	for key, r := range repo.db.table {
		if key.playerID == playerID {
			refls = append(refls, r)
		}
	}
	sort.Slice(refls, func(i, j int) bool { return refls[j].Week.Before(refls[i].Week) })
	return refls, nil
}
