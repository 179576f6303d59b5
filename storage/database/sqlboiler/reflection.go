// Package boiledrepos implements the reflection repository with sqlboiler raw queries.
package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/reflection"
)

const reflectionColumns = `player_id, week, went_well, do_better, plan_for_week, created_at, updated_at`

type (
	reflectionRow struct {
		PlayerID    string          `boil:"player_id"`
		Week        calendar.WeekID `boil:"week"`
		WentWell    null.String     `boil:"went_well"`
		DoBetter    null.String     `boil:"do_better"`
		PlanForWeek null.String     `boil:"plan_for_week"`
		CreatedAt   time.Time       `boil:"created_at"`
		UpdatedAt   time.Time       `boil:"updated_at"`
	}

	reflectionRepository struct {
		exec core.DBExecutor
	}
)

var _ reflection.Repository = (*reflectionRepository)(nil) // interface compliance check

func NewReflectionRepository(exec core.DBExecutor) reflection.Repository {
	return &reflectionRepository{exec: exec}
}

func (row reflectionRow) unboil() reflection.Reflection {
	return reflection.Reflection{
		PlayerID:    row.PlayerID,
		Week:        row.Week,
		WentWell:    row.WentWell.String,
		DoBetter:    row.DoBetter.String,
		PlanForWeek: row.PlanForWeek.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to reflection.ErrNotFound
func (repo reflectionRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return reflection.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// UpsertReflection keeps the original created_at; everything else is overwritten.
func (repo reflectionRepository) UpsertReflection(ctx context.Context, r reflection.Reflection) (reflection.Reflection, error) {
	q := `INSERT INTO reflections (` + reflectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id, week) DO UPDATE SET
			went_well = EXCLUDED.went_well,
			do_better = EXCLUDED.do_better,
			plan_for_week = EXCLUDED.plan_for_week,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + reflectionColumns

	var row reflectionRow
	err := queries.Raw(q,
		r.PlayerID,
		r.Week,
		null.StringFrom(r.WentWell),
		null.StringFrom(r.DoBetter),
		null.StringFrom(r.PlanForWeek),
		r.CreatedAt.UTC(),
		r.UpdatedAt.UTC(),
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return reflection.Reflection{}, errors.Wrap(err, "upserting reflection")
	}
	return row.unboil(), nil
}

func (repo reflectionRepository) GetReflection(ctx context.Context, playerID string, week calendar.WeekID) (reflection.Reflection, error) {
	var row reflectionRow
	q := `SELECT ` + reflectionColumns + ` FROM reflections WHERE player_id = $1 AND week = $2`
	if err := queries.Raw(q, playerID, week).Bind(ctx, repo.exec, &row); err != nil {
		return reflection.Reflection{}, repo.trapNoRowsErr(err, "selecting reflection")
	}
	return row.unboil(), nil
}

func (repo reflectionRepository) QueryReflections(ctx context.Context, playerID string) ([]reflection.Reflection, error) {
	var rows []*reflectionRow
	// `YYYY-Www` sorts chronologically as text
	q := `SELECT ` + reflectionColumns + ` FROM reflections WHERE player_id = $1 ORDER BY week DESC`
	if err := queries.Raw(q, playerID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting reflections")
	}
	refls := make([]reflection.Reflection, 0, len(rows))
	for _, row := range rows {
		refls = append(refls, row.unboil())
	}
	return refls, nil
}
