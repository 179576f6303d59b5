package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/habitrank/core/roster"
)

type (
	playerRow struct {
		ID            string    `db:"id"`
		ClubID        string    `db:"club_id"`
		TeamID        string    `db:"team_id"`
		Name          string    `db:"name"`
		IsActive      bool      `db:"is_active"`
		DeactivatedAt null.Time `db:"deactivated_at"`
		CreatedAt     time.Time `db:"created_at"`
	}

	rosterRepository struct {
		db *sqlx.DB
	}
)

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *sqlx.DB) roster.Repository {
	return &rosterRepository{db: db}
}

func toPlayerRow(p roster.Player) playerRow {
	return playerRow{
		ID:            p.ID,
		ClubID:        p.ClubID,
		TeamID:        p.TeamID,
		Name:          p.Name,
		IsActive:      p.IsActive,
		DeactivatedAt: null.TimeFromPtr(p.DeactivatedAt),
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

func (row playerRow) player() roster.Player {
	return roster.Player{
		ID:            row.ID,
		ClubID:        row.ClubID,
		TeamID:        row.TeamID,
		Name:          row.Name,
		IsActive:      row.IsActive,
		DeactivatedAt: row.DeactivatedAt.Ptr(),
		CreatedAt:     row.CreatedAt,
	}
}

func (repo *rosterRepository) CreateClub(ctx context.Context, club roster.Club) (roster.Club, error) {
	q := `INSERT INTO clubs (id, name, time_zone, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, club.ID, club.Name, club.TimeZone, club.CreatedAt.UTC()); err != nil {
		return roster.Club{}, trapUniqueErr(err, "inserting club")
	}
	return club, nil
}

func (repo *rosterRepository) GetClub(ctx context.Context, id string) (roster.Club, error) {
	var club struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		TimeZone  string    `db:"time_zone"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.GetContext(ctx, &club, `SELECT id, name, time_zone, created_at FROM clubs WHERE id = $1`, id); err != nil {
		return roster.Club{}, trapNoRowsErr(err, roster.ErrClubNotFound, "selecting club")
	}
	return roster.Club(club), nil
}

func (repo *rosterRepository) CreateTeam(ctx context.Context, team roster.Team) (roster.Team, error) {
	q := `INSERT INTO teams (id, club_id, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, team.ID, team.ClubID, team.Name, team.CreatedAt.UTC()); err != nil {
		return roster.Team{}, trapUniqueErr(err, "inserting team")
	}
	return team, nil
}

func (repo *rosterRepository) GetTeam(ctx context.Context, id string) (roster.Team, error) {
	var team struct {
		ID        string    `db:"id"`
		ClubID    string    `db:"club_id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.GetContext(ctx, &team, `SELECT id, club_id, name, created_at FROM teams WHERE id = $1`, id); err != nil {
		return roster.Team{}, trapNoRowsErr(err, roster.ErrTeamNotFound, "selecting team")
	}
	return roster.Team(team), nil
}

func (repo *rosterRepository) CreatePlayer(ctx context.Context, p roster.Player) (roster.Player, error) {
	q := `INSERT INTO players (id, club_id, team_id, name, is_active, deactivated_at, created_at)
		VALUES (:id, :club_id, :team_id, :name, :is_active, :deactivated_at, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toPlayerRow(p)); err != nil {
		return roster.Player{}, trapUniqueErr(err, "inserting player")
	}
	return p, nil
}

func (repo *rosterRepository) GetPlayer(ctx context.Context, id string) (roster.Player, error) {
	var row playerRow
	q := `SELECT id, club_id, team_id, name, is_active, deactivated_at, created_at FROM players WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return roster.Player{}, trapNoRowsErr(err, roster.ErrPlayerNotFound, "selecting player")
	}
	return row.player(), nil
}

func (repo *rosterRepository) UpdatePlayer(ctx context.Context, p roster.Player) (roster.Player, error) {
	q := `UPDATE players SET name = :name, is_active = :is_active, deactivated_at = :deactivated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toPlayerRow(p))
	if err != nil {
		return roster.Player{}, errors.Wrap(err, "updating player")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.Player{}, roster.ErrPlayerNotFound
	}
	return repo.GetPlayer(ctx, p.ID)
}

func (repo *rosterRepository) QueryPlayers(ctx context.Context, filter roster.PlayerFilter) ([]roster.Player, error) {
	if filter.ClubID == "" && filter.TeamID == "" {
		return []roster.Player{}, nil
	}

	var (
		conds []string
		args  []interface{}
	)
	if filter.ClubID != "" {
		args = append(args, filter.ClubID)
		conds = append(conds, "club_id = ?")
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		conds = append(conds, "team_id = ?")
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	q := repo.db.Rebind(`SELECT id, club_id, team_id, name, is_active, deactivated_at, created_at
		FROM players WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`)

	var rows []playerRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting players")
	}
	players := make([]roster.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.player())
	}
	return players, nil
}
