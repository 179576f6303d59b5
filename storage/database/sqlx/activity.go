package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
)

const activityColumns = `id, club_id, team_id, scope, name, description, frequency, point_value,
	revisions, is_active, active_from, deactivated_on, display_order, created_at, updated_at`

type (
	activityRow struct {
		ID            string        `db:"id"`
		ClubID        string        `db:"club_id"`
		TeamID        null.String   `db:"team_id"`
		Scope         string        `db:"scope"`
		Name          string        `db:"name"`
		Description   string        `db:"description"`
		Frequency     string        `db:"frequency"`
		PointValue    int           `db:"point_value"`
		Revisions     []byte        `db:"revisions"`
		IsActive      bool          `db:"is_active"`
		ActiveFrom    calendar.Date `db:"active_from"`
		DeactivatedOn null.Time     `db:"deactivated_on"`
		DisplayOrder  int           `db:"display_order"`
		CreatedAt     time.Time     `db:"created_at"`
		UpdatedAt     time.Time     `db:"updated_at"`
	}

	aliasRow struct {
		ClubID    string    `db:"club_id"`
		FromID    string    `db:"from_id"`
		ToID      string    `db:"to_id"`
		CreatedAt time.Time `db:"created_at"`
	}

	activityRepository struct {
		db *sqlx.DB
	}
)

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func toActivityRow(act activity.Activity) (activityRow, error) {
	revs := act.Revisions
	if revs == nil {
		revs = []activity.Revision{}
	}
	data, err := json.Marshal(revs)
	if err != nil {
		return activityRow{}, errors.Wrap(err, "encoding revisions")
	}
	row := activityRow{
		ID:           act.ID,
		ClubID:       act.ClubID,
		TeamID:       null.NewString(act.TeamID, act.TeamID != ""),
		Scope:        act.Scope,
		Name:         act.Name,
		Description:  act.Description,
		Frequency:    act.Frequency.String(),
		PointValue:   act.PointValue,
		Revisions:    data,
		IsActive:     act.IsActive,
		ActiveFrom:   act.ActiveFrom,
		DisplayOrder: act.DisplayOrder,
		CreatedAt:    act.CreatedAt.UTC(),
		UpdatedAt:    act.UpdatedAt.UTC(),
	}
	if act.DeactivatedOn != nil {
		row.DeactivatedOn = null.TimeFrom(act.DeactivatedOn.Time())
	}
	return row, nil
}

func (row activityRow) activity() (activity.Activity, error) {
	freq, err := activity.ParseFrequency(row.Frequency)
	if err != nil {
		return activity.Activity{}, errors.Wrapf(err, "activity %s", row.ID)
	}
	act := activity.Activity{
		ID:           row.ID,
		ClubID:       row.ClubID,
		TeamID:       row.TeamID.String,
		Scope:        row.Scope,
		Name:         row.Name,
		Description:  row.Description,
		Frequency:    freq,
		PointValue:   row.PointValue,
		IsActive:     row.IsActive,
		ActiveFrom:   row.ActiveFrom,
		DisplayOrder: row.DisplayOrder,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Revisions) > 0 {
		if err := json.Unmarshal(row.Revisions, &act.Revisions); err != nil {
			return activity.Activity{}, errors.Wrapf(err, "decoding revisions of activity %s", row.ID)
		}
		if len(act.Revisions) == 0 {
			act.Revisions = nil
		}
	}
	if row.DeactivatedOn.Valid {
		on := calendar.DateOf(row.DeactivatedOn.Time.UTC())
		act.DeactivatedOn = &on
	}
	return act, nil
}

func (repo *activityRepository) QueryActivities(ctx context.Context, filter activity.QueryFilter) ([]activity.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE club_id = $1 AND (scope = 'club' OR team_id = $2)
		ORDER BY display_order, id`

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.ClubID, filter.TeamID); err != nil {
		return nil, errors.Wrap(err, "selecting activities")
	}
	acts := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		act, err := row.activity()
		if err != nil {
			return nil, err
		}
		acts = append(acts, act)
	}
	return acts, nil
}

func (repo *activityRepository) GetActivity(ctx context.Context, id string) (activity.Activity, error) {
	var row activityRow
	q := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return activity.Activity{}, trapNoRowsErr(err, activity.ErrNotFound, "selecting activity")
	}
	return row.activity()
}

func (repo *activityRepository) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	row, err := toActivityRow(act)
	if err != nil {
		return activity.Activity{}, err
	}
	q := `INSERT INTO activities (` + activityColumns + `) VALUES (
		:id, :club_id, :team_id, :scope, :name, :description, :frequency, :point_value,
		:revisions, :is_active, :active_from, :deactivated_on, :display_order, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return activity.Activity{}, trapUniqueErr(err, "inserting activity")
	}
	return act, nil
}

// UpdateActivity never touches tenancy nor creation columns.
func (repo *activityRepository) UpdateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	row, err := toActivityRow(act)
	if err != nil {
		return activity.Activity{}, err
	}
	q := `UPDATE activities SET
		name = :name, description = :description, frequency = :frequency, point_value = :point_value,
		revisions = :revisions, is_active = :is_active, active_from = :active_from,
		deactivated_on = :deactivated_on, display_order = :display_order, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "updating activity")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return activity.Activity{}, activity.ErrNotFound
	}
	return repo.GetActivity(ctx, act.ID)
}

func (repo *activityRepository) QueryAliases(ctx context.Context, clubID string) ([]activity.Alias, error) {
	var rows []aliasRow
	q := `SELECT club_id, from_id, to_id, created_at FROM activity_aliases WHERE club_id = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, clubID); err != nil {
		return nil, errors.Wrap(err, "selecting aliases")
	}
	aliases := make([]activity.Alias, 0, len(rows))
	for _, row := range rows {
		aliases = append(aliases, activity.Alias(row))
	}
	return aliases, nil
}

func (repo *activityRepository) CreateAlias(ctx context.Context, alias activity.Alias) (activity.Alias, error) {
	q := `INSERT INTO activity_aliases (club_id, from_id, to_id, created_at)
		VALUES (:club_id, :from_id, :to_id, :created_at)`
	alias.CreatedAt = alias.CreatedAt.UTC()
	if _, err := repo.db.NamedExecContext(ctx, q, aliasRow(alias)); err != nil {
		return activity.Alias{}, trapUniqueErr(err, "inserting alias")
	}
	return alias, nil
}
