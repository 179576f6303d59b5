package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/roster"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp  = errors.New("help provided")
	errNoSQL = errors.New("migrate needs the postgres storage")
)

type commandLine struct {
	db             *sql.DB // nil with the memory storage
	conf           *core.Config
	validate       *validator.Validate
	activitySvc    *activity.Service
	rosterSvc      *roster.Service
	leaderboardSvc *leaderboard.Service
	out            io.Writer
	now            func() time.Time
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command over the embedded migrations")
	fmt.Println("  seed -file FILE - load clubs, teams, players & activities from a YAML file")
	fmt.Println("  alias -from OLD -to NEW - redirect the scores of an activity to another")
	fmt.Println("  deactivate -player ID - remove a player from current leaderboards")
	fmt.Println("  leaderboard -scope team|club -id ID [-week YYYY-Www] [-inactive] - print a leaderboard")
}

func (cli *commandLine) today() calendar.Date {
	now := time.Now
	if cli.now != nil {
		now = cli.now
	}
	return calendar.Today(cli.conf.Location(), now())
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "The YAML file to load.")

	aliasCmd := flag.NewFlagSet("alias", flag.ContinueOnError)
	aliasFrom := aliasCmd.String("from", "", "The id of the retired activity.")
	aliasTo := aliasCmd.String("to", "", "The id of the activity replacing it.")

	deactivateCmd := flag.NewFlagSet("deactivate", flag.ContinueOnError)
	deactivatePlayer := deactivateCmd.String("player", "", "The id of the player.")

	boardCmd := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	boardWeek := boardCmd.String("week", "", "The ISO week (e.g. 2024-W05). Defaults to the current week.")
	boardScope := boardCmd.String("scope", leaderboard.ScopeTeam, "team or club.")
	boardID := boardCmd.String("id", "", "The id of the team or club.")
	boardInactive := boardCmd.Bool("inactive", false, "Include deactivated players.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if cli.db == nil {
			return errNoSQL
		}
		return cli.migrate(args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedFile)
	case "alias":
		if err := aliasCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *aliasFrom == "" || *aliasTo == "" {
			aliasCmd.Usage()
			return errHelp
		}
		return cli.alias(*aliasFrom, *aliasTo)
	case "deactivate":
		if err := deactivateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deactivatePlayer == "" {
			deactivateCmd.Usage()
			return errHelp
		}
		return cli.deactivate(*deactivatePlayer)
	case "leaderboard":
		if err := boardCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *boardID == "" {
			boardCmd.Usage()
			return errHelp
		}
		return cli.leaderboard(*boardWeek, *boardScope, *boardID, *boardInactive)
	default:
		cli.printUsage()
		return errHelp
	}
}
