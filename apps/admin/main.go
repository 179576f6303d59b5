package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/habitrank/apps/shared"
	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	logsvc "github.com/trezcool/habitrank/services/logger"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	ctx := context.Background()

	// set up storage
	repos, err := shared.OpenStorage(ctx, conf)
	errAndDie(err)
	defer repos.Close()

	cache, redisClient, err := shared.OpenCache(ctx, conf)
	errAndDie(err)
	if redisClient != nil {
		defer redisClient.Close()
	}

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	// start CLI
	validate, _ := shared.NewValidator()
	activitySvc := activity.NewService(repos.Activities)
	rosterSvc := roster.NewService(repos.Roster)
	trackingSvc := tracking.NewService(repos.Records, conf, nil)
	cli := commandLine{
		db:          repos.DB,
		conf:        conf,
		validate:    validate,
		activitySvc: activitySvc,
		rosterSvc:   rosterSvc,
		leaderboardSvc: leaderboard.NewService(
			rosterSvc,
			leaderboard.NewSource(trackingSvc, activitySvc),
			cache,
			conf,
			appLogger,
			nil,
		),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
