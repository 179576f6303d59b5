package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
)

func (cli *commandLine) leaderboard(week, scope, id string, includeInactive bool) error {
	today := cli.today()
	q := leaderboard.Query{
		Week:            calendar.WeekOf(today),
		Scope:           core.CleanString(scope, true /* lower */),
		ScopeID:         core.CleanString(id),
		IncludeInactive: includeInactive,
	}
	if week != "" {
		w, err := calendar.ParseWeekID(week)
		if err != nil {
			return err
		}
		q.Week = w
	}

	board, err := cli.leaderboardSvc.Leaderboard(context.Background(), q, today)
	if err != nil {
		return err
	}

	if !isTerminalFunc() {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	}
	return printBoard(cli, board)
}

func printBoard(cli *commandLine, board leaderboard.Board) error {
	fmt.Fprintf(cli.out, "%s leaderboard %s, week %s\n\n", board.Scope, board.ScopeID, board.Week)

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\tMAX\tDAYS\t")
	for _, e := range board.Entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t\n", e.Rank, e.PlayerName, e.WeeklyScore, e.MaxWeeklyScore, e.DaysCompleted)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := board.Stats
	fmt.Fprintf(cli.out, "\n%d players, average %.2f, top %d\n", stats.TotalPlayers, stats.AverageScore, stats.TopScore)
	if stats.BestWeek != nil {
		fmt.Fprintf(cli.out, "best week %s (average %.2f)\n", stats.BestWeek.Week, stats.BestWeek.AverageScore)
	}
	return nil
}
