package main

import (
	"context"
	"fmt"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
)

// alias redirects the completions recorded against fromID to toID.
func (cli *commandLine) alias(fromID, toID string) error {
	fromID = core.CleanString(fromID)
	toID = core.CleanString(toID)

	ctx := context.Background()
	al, err := cli.activitySvc.AddAlias(ctx, activity.Alias{FromID: fromID, ToID: toID})
	if err != nil {
		return err
	}
	if err = cli.leaderboardSvc.InvalidateClub(ctx, al.ClubID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s now counts as %s (club %s)\n", al.FromID, al.ToID, al.ClubID)
	return nil
}
