package roster

import (
	"time"
	_ "time/tzdata" // club time zones must resolve on bare images

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
)

type Club struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TimeZone  string    `json:"time_zone"`
	CreatedAt time.Time `json:"created_at"`
}

// Location resolves the club's time zone, UTC when unset or unknown.
func (c Club) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Team struct {
	ID        string    `json:"id"`
	ClubID    string    `json:"club_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Player struct {
	ID            string     `json:"id"`
	ClubID        string     `json:"club_id"`
	TeamID        string     `json:"team_id"`
	Name          string     `json:"name"`
	IsActive      bool       `json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (p Player) Context() activity.Context {
	return activity.Context{ClubID: p.ClubID, TeamID: p.TeamID}
}

// NewClub contains information needed to create a new Club. An empty ID is generated.
type NewClub struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name" validate:"required,notblank"`
	TimeZone string `json:"time_zone" yaml:"time_zone" validate:"omitempty,tz"`
}

func (nc *NewClub) Validate(validate *validator.Validate) error {
	nc.ID = core.CleanString(nc.ID)
	nc.Name = core.CleanString(nc.Name)
	nc.TimeZone = core.CleanString(nc.TimeZone)
	return validate.Struct(nc)
}

type NewTeam struct {
	ID     string `json:"id" yaml:"id"`
	ClubID string `json:"club_id" yaml:"club_id" validate:"required"`
	Name   string `json:"name" yaml:"name" validate:"required,notblank"`
}

func (nt *NewTeam) Validate(validate *validator.Validate) error {
	nt.ID = core.CleanString(nt.ID)
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

type NewPlayer struct {
	ID     string `json:"id" yaml:"id"`
	TeamID string `json:"team_id" yaml:"team_id" validate:"required"`
	Name   string `json:"name" yaml:"name" validate:"required,notblank"`
}

func (np *NewPlayer) Validate(validate *validator.Validate) error {
	np.ID = core.CleanString(np.ID)
	np.Name = core.CleanString(np.Name)
	return validate.Struct(np)
}

// PlayerFilter selects the players of a club, optionally narrowed to one team.
type PlayerFilter struct {
	ClubID     string
	TeamID     string
	ActiveOnly bool
}

// Matches applies the filter to p. An empty filter matches nothing.
func (f PlayerFilter) Matches(p Player) bool {
	if f.ClubID == "" && f.TeamID == "" {
		return false
	}
	if f.ClubID != "" && p.ClubID != f.ClubID {
		return false
	}
	if f.TeamID != "" && p.TeamID != f.TeamID {
		return false
	}
	return !f.ActiveOnly || p.IsActive
}
