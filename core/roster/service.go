package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
)

var (
	// errors
	ErrClubNotFound   = core.NewNotFoundError("club")
	ErrTeamNotFound   = core.NewNotFoundError("team")
	ErrPlayerNotFound = core.NewNotFoundError("player")
)

type (
	Repository interface {
		CreateClub(ctx context.Context, club Club) (Club, error)
		GetClub(ctx context.Context, id string) (Club, error)
		CreateTeam(ctx context.Context, team Team) (Team, error)
		GetTeam(ctx context.Context, id string) (Team, error)
		CreatePlayer(ctx context.Context, player Player) (Player, error)
		GetPlayer(ctx context.Context, id string) (Player, error)
		UpdatePlayer(ctx context.Context, player Player) (Player, error)
		// QueryPlayers returns the players matching filter ordered by ID.
		QueryPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func (svc *Service) CreateClub(ctx context.Context, nc NewClub) (Club, error) {
	return svc.repo.CreateClub(ctx, Club{
		ID:        newID(nc.ID),
		Name:      nc.Name,
		TimeZone:  nc.TimeZone,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) CreateTeam(ctx context.Context, nt NewTeam) (Team, error) {
	if _, err := svc.repo.GetClub(ctx, nt.ClubID); err != nil {
		return Team{}, errors.Wrap(err, "finding team club")
	}
	return svc.repo.CreateTeam(ctx, Team{
		ID:        newID(nt.ID),
		ClubID:    nt.ClubID,
		Name:      nt.Name,
		CreatedAt: time.Now().UTC(),
	})
}

// CreatePlayer places the player in the team's club.
func (svc *Service) CreatePlayer(ctx context.Context, np NewPlayer) (Player, error) {
	team, err := svc.repo.GetTeam(ctx, np.TeamID)
	if err != nil {
		return Player{}, errors.Wrap(err, "finding player team")
	}
	return svc.repo.CreatePlayer(ctx, Player{
		ID:        newID(np.ID),
		ClubID:    team.ClubID,
		TeamID:    team.ID,
		Name:      np.Name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetClub(ctx context.Context, id string) (Club, error) {
	return svc.repo.GetClub(ctx, id)
}

func (svc *Service) GetTeam(ctx context.Context, id string) (Team, error) {
	return svc.repo.GetTeam(ctx, id)
}

func (svc *Service) GetPlayer(ctx context.Context, id string) (Player, error) {
	return svc.repo.GetPlayer(ctx, id)
}

func (svc *Service) Players(ctx context.Context, filter PlayerFilter) ([]Player, error) {
	players, err := svc.repo.QueryPlayers(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying players")
	}
	out := players[:0]
	for _, p := range players {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeactivatePlayer removes the player from current leaderboards. History stays computable.
func (svc *Service) DeactivatePlayer(ctx context.Context, id string) (Player, error) {
	p, err := svc.repo.GetPlayer(ctx, id)
	if err != nil {
		return Player{}, err
	}
	if !p.IsActive {
		return p, nil
	}
	now := time.Now().UTC()
	p.IsActive = false
	p.DeactivatedAt = &now
	return svc.repo.UpdatePlayer(ctx, p)
}
