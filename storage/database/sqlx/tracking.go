package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/tracking"
)

const recordColumns = `player_id, date, completed_activity_ids, version, created_at, updated_at`

type (
	recordRow struct {
		PlayerID             string         `db:"player_id"`
		Date                 calendar.Date  `db:"date"`
		CompletedActivityIDs pq.StringArray `db:"completed_activity_ids"`
		Version              int            `db:"version"`
		CreatedAt            time.Time      `db:"created_at"`
		UpdatedAt            time.Time      `db:"updated_at"`
	}

	trackingRepository struct {
		db *sqlx.DB
	}
)

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *sqlx.DB) tracking.Repository {
	return &trackingRepository{db: db}
}

func toRecordRow(rec tracking.DailyRecord) recordRow {
	return recordRow{
		PlayerID:             rec.PlayerID,
		Date:                 rec.Date,
		CompletedActivityIDs: pq.StringArray(tracking.NormalizeIDs(rec.CompletedActivityIDs)),
		Version:              rec.Version,
		CreatedAt:            rec.CreatedAt.UTC(),
		UpdatedAt:            rec.UpdatedAt.UTC(),
	}
}

func (row recordRow) record() tracking.DailyRecord {
	return tracking.DailyRecord{
		PlayerID:             row.PlayerID,
		Date:                 row.Date,
		CompletedActivityIDs: tracking.NormalizeIDs(row.CompletedActivityIDs),
		Version:              row.Version,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func (repo *trackingRepository) GetRecord(ctx context.Context, playerID string, date calendar.Date) (tracking.DailyRecord, error) {
	var row recordRow
	q := `SELECT ` + recordColumns + ` FROM daily_records WHERE player_id = $1 AND date = $2`
	if err := repo.db.GetContext(ctx, &row, q, playerID, date); err != nil {
		return tracking.DailyRecord{}, trapNoRowsErr(err, tracking.ErrNotFound, "selecting record")
	}
	return row.record(), nil
}

func (repo *trackingRepository) QueryRecords(ctx context.Context, playerID string, from, to calendar.Date) ([]tracking.DailyRecord, error) {
	var rows []recordRow
	q := `SELECT ` + recordColumns + ` FROM daily_records
		WHERE player_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date`
	if err := repo.db.SelectContext(ctx, &rows, q, playerID, from, to); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	recs := make([]tracking.DailyRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *trackingRepository) CreateRecord(ctx context.Context, rec tracking.DailyRecord) (tracking.DailyRecord, error) {
	q := `INSERT INTO daily_records (` + recordColumns + `)
		VALUES (:player_id, :date, :completed_activity_ids, :version, :created_at, :updated_at)
		ON CONFLICT (player_id, date) DO NOTHING`
	row := toRecordRow(rec)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return tracking.DailyRecord{}, errors.Wrap(err, "inserting record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return tracking.DailyRecord{}, errors.Wrap(err, "inserting record")
	}
	if n == 0 {
		return tracking.DailyRecord{}, tracking.ErrConflict
	}
	return row.record(), nil
}

func (repo *trackingRepository) UpdateRecord(ctx context.Context, rec tracking.DailyRecord, expectedVersion int) (tracking.DailyRecord, error) {
	row := toRecordRow(rec)
	q := `UPDATE daily_records SET completed_activity_ids = $1, version = $2, updated_at = $3
		WHERE player_id = $4 AND date = $5 AND version = $6
		RETURNING ` + recordColumns
	var updated recordRow
	err := repo.db.GetContext(ctx, &updated, q,
		row.CompletedActivityIDs, row.Version, row.UpdatedAt, row.PlayerID, row.Date, expectedVersion)
	if err == nil {
		return updated.record(), nil
	}
	if err == sql.ErrNoRows {
		// either gone or a concurrent writer won
		if _, getErr := repo.GetRecord(ctx, rec.PlayerID, rec.Date); getErr != nil {
			return tracking.DailyRecord{}, getErr
		}
		return tracking.DailyRecord{}, tracking.ErrConflict
	}
	return tracking.DailyRecord{}, errors.Wrap(err, "updating record")
}
