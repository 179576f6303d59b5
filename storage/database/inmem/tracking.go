package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/tracking"
)

type trackingRepository struct {
	db *trackingTable
}

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *DB) tracking.Repository {
	return &trackingRepository{db: db.tracking}
}

func cloneRecord(rec tracking.DailyRecord) tracking.DailyRecord {
	rec.CompletedActivityIDs = copyStrings(rec.CompletedActivityIDs)
	return rec
}

func (repo *trackingRepository) GetRecord(_ context.Context, playerID string, date calendar.Date) (tracking.DailyRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[recordKey{playerID, date}]; ok {
		return cloneRecord(rec), nil
	}
	return tracking.DailyRecord{}, tracking.ErrNotFound
}

func (repo *trackingRepository) QueryRecords(_ context.Context, playerID string, from, to calendar.Date) ([]tracking.DailyRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]tracking.DailyRecord, 0, 7)
	for key, rec := range repo.db.table {
		if key.playerID == playerID && !key.date.Before(from) && !key.date.After(to) {
			recs = append(recs, cloneRecord(rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs, nil
}

func (repo *trackingRepository) CreateRecord(_ context.Context, rec tracking.DailyRecord) (tracking.DailyRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{rec.PlayerID, rec.Date}
	if _, ok := repo.db.table[key]; ok {
		return tracking.DailyRecord{}, tracking.ErrConflict
	}
	rec.CompletedActivityIDs = tracking.NormalizeIDs(rec.CompletedActivityIDs)
	repo.db.table[key] = cloneRecord(rec)
	return rec, nil
}

func (repo *trackingRepository) UpdateRecord(_ context.Context, rec tracking.DailyRecord, expectedVersion int) (tracking.DailyRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{rec.PlayerID, rec.Date}
	orig, ok := repo.db.table[key]
	if !ok {
		return tracking.DailyRecord{}, tracking.ErrNotFound
	}
	if orig.Version != expectedVersion {
		return tracking.DailyRecord{}, tracking.ErrConflict
	}
	rec.CompletedActivityIDs = tracking.NormalizeIDs(rec.CompletedActivityIDs)
	rec.CreatedAt = orig.CreatedAt
	repo.db.table[key] = cloneRecord(rec)
	return rec, nil
}
