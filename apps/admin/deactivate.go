package main

import (
	"context"
	"fmt"

	"github.com/trezcool/habitrank/core"
)

// deactivate removes a player from current leaderboards.
func (cli *commandLine) deactivate(playerID string) error {
	ctx := context.Background()
	p, err := cli.rosterSvc.DeactivatePlayer(ctx, core.CleanString(playerID))
	if err != nil {
		return err
	}
	if err = cli.leaderboardSvc.InvalidateClub(ctx, p.ClubID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s (%s) is deactivated\n", p.Name, p.ID)
	return nil
}
