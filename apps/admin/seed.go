package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/roster"
)

type (
	seedFile struct {
		Clubs []seedClub `yaml:"clubs"`
	}

	seedClub struct {
		roster.NewClub `yaml:",inline"`
		Teams          []seedTeam     `yaml:"teams"`
		Activities     []seedActivity `yaml:"activities"`
	}

	seedTeam struct {
		ID      string             `yaml:"id"`
		Name    string             `yaml:"name"`
		Players []roster.NewPlayer `yaml:"players"`
	}

	seedActivity struct {
		TeamID       string        `yaml:"team_id"`
		Name         string        `yaml:"name"`
		Description  string        `yaml:"description"`
		Frequency    string        `yaml:"frequency"`
		PointValue   int           `yaml:"point_value"`
		ActiveFrom   calendar.Date `yaml:"active_from"`
		DisplayOrder int           `yaml:"display_order"`
	}

	seedReport struct {
		created, skipped int
	}
)

func (sa seedActivity) newActivity(clubID string) activity.NewActivity {
	scope := activity.ScopeClub
	if sa.TeamID != "" {
		scope = activity.ScopeTeam
	}
	return activity.NewActivity{
		ClubID:       clubID,
		TeamID:       sa.TeamID,
		Scope:        scope,
		Name:         sa.Name,
		Description:  sa.Description,
		Frequency:    sa.Frequency,
		PointValue:   sa.PointValue,
		ActiveFrom:   sa.ActiveFrom,
		DisplayOrder: sa.DisplayOrder,
	}
}

func (r *seedReport) track(err error) error {
	switch {
	case err == nil:
		r.created++
	case core.IsConflict(err):
		r.skipped++
	default:
		return err
	}
	return nil
}

// seed loads a roster file. Entities that already exist are skipped, so seeding twice is harmless.
func (cli *commandLine) seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading seed file")
	}
	var file seedFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "decoding seed file")
	}

	ctx := context.Background()
	var report seedReport
	for _, sc := range file.Clubs {
		if err = cli.seedClub(ctx, sc, &report); err != nil {
			return err
		}
	}
	fmt.Fprintf(cli.out, "seeded %d entities (%d already existed)\n", report.created, report.skipped)
	return nil
}

func (cli *commandLine) seedClub(ctx context.Context, sc seedClub, report *seedReport) error {
	nc := sc.NewClub
	if nc.ID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "seeded clubs need an id"})
	}
	if err := nc.Validate(cli.validate); err != nil {
		return errors.Wrapf(err, "club %q", nc.ID)
	}
	_, err := cli.rosterSvc.CreateClub(ctx, nc)
	if err = report.track(err); err != nil {
		return errors.Wrapf(err, "creating club %q", nc.ID)
	}

	for _, st := range sc.Teams {
		nt := roster.NewTeam{ID: st.ID, ClubID: nc.ID, Name: st.Name}
		if err = nt.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "team %q", st.ID)
		}
		_, err = cli.rosterSvc.CreateTeam(ctx, nt)
		if err = report.track(err); err != nil {
			return errors.Wrapf(err, "creating team %q", st.ID)
		}

		for _, np := range st.Players {
			np.TeamID = st.ID
			if err = np.Validate(cli.validate); err != nil {
				return errors.Wrapf(err, "player %q", np.ID)
			}
			_, err = cli.rosterSvc.CreatePlayer(ctx, np)
			if err = report.track(err); err != nil {
				return errors.Wrapf(err, "creating player %q", np.ID)
			}
		}
	}

	// activities get generated ids: one with the same name in the same team counts as existing
	for _, sa := range sc.Activities {
		na := sa.newActivity(nc.ID)
		if err = na.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "activity %q", sa.Name)
		}
		exists, err := cli.hasActivity(ctx, na)
		if err != nil {
			return err
		}
		if exists {
			report.skipped++
			continue
		}
		if _, err = cli.activitySvc.Create(ctx, na, cli.today()); err != nil {
			return errors.Wrapf(err, "creating activity %q", na.Name)
		}
		report.created++
	}
	return nil
}

func (cli *commandLine) hasActivity(ctx context.Context, na activity.NewActivity) (bool, error) {
	set, err := cli.activitySvc.ContextSet(ctx, activity.Context{ClubID: na.ClubID, TeamID: na.TeamID})
	if err != nil {
		return false, errors.Wrap(err, "loading activities")
	}
	for _, a := range set.Activities() {
		if a.Scope == na.Scope && a.TeamID == na.TeamID && a.Name == na.Name {
			return true, nil
		}
	}
	return false, nil
}
