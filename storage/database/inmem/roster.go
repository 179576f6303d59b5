package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/habitrank/core/roster"
)

type rosterRepository struct {
	db *rosterTable
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db.roster}
}

func (repo *rosterRepository) CreateClub(_ context.Context, club roster.Club) (roster.Club, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.clubs[club.ID]; ok {
		return roster.Club{}, errExists("club %s already exists", club.ID)
	}
	repo.db.clubs[club.ID] = club
	return club, nil
}

func (repo *rosterRepository) GetClub(_ context.Context, id string) (roster.Club, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if club, ok := repo.db.clubs[id]; ok {
		return club, nil
	}
	return roster.Club{}, roster.ErrClubNotFound
}

func (repo *rosterRepository) CreateTeam(_ context.Context, team roster.Team) (roster.Team, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teams[team.ID]; ok {
		return roster.Team{}, errExists("team %s already exists", team.ID)
	}
	repo.db.teams[team.ID] = team
	return team, nil
}

func (repo *rosterRepository) GetTeam(_ context.Context, id string) (roster.Team, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if team, ok := repo.db.teams[id]; ok {
		return team, nil
	}
	return roster.Team{}, roster.ErrTeamNotFound
}

func (repo *rosterRepository) CreatePlayer(_ context.Context, player roster.Player) (roster.Player, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.players[player.ID]; ok {
		return roster.Player{}, errExists("player %s already exists", player.ID)
	}
	repo.db.players[player.ID] = player
	return player, nil
}

func (repo *rosterRepository) GetPlayer(_ context.Context, id string) (roster.Player, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if player, ok := repo.db.players[id]; ok {
		return player, nil
	}
	return roster.Player{}, roster.ErrPlayerNotFound
}

func (repo *rosterRepository) UpdatePlayer(_ context.Context, player roster.Player) (roster.Player, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.players[player.ID]
	if !ok {
		return roster.Player{}, roster.ErrPlayerNotFound
	}
	player.CreatedAt = orig.CreatedAt
	repo.db.players[player.ID] = player
	return player, nil
}

func (repo *rosterRepository) QueryPlayers(_ context.Context, filter roster.PlayerFilter) ([]roster.Player, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	players := make([]roster.Player, 0)
	for _, p := range repo.db.players {
		if filter.Matches(p) {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}
