package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	echoapi "github.com/trezcool/habitrank/apps/api/echo"
	"github.com/trezcool/habitrank/apps/shared"
	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/checkin"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	logsvc "github.com/trezcool/habitrank/services/logger"
	metricsvc "github.com/trezcool/habitrank/services/metrics"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	metrics := metricsvc.NewPrometheusMetrics()

	// set up storage
	repos, err := shared.OpenStorage(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	cache, redisClient, err := shared.OpenCache(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	if redisClient != nil {
		defer func() {
			if err = redisClient.Close(); err != nil {
				logger.Error("Failed to close cache", err)
			}
		}()
	}

	// set up services
	activitySvc := activity.NewService(repos.Activities)
	rosterSvc := roster.NewService(repos.Roster)
	trackingSvc := tracking.NewService(repos.Records, conf, metrics)
	leaderboardSvc := leaderboard.NewService(
		rosterSvc,
		leaderboard.NewSource(trackingSvc, activitySvc),
		cache,
		conf,
		logger,
		metrics,
	)
	checkinSvc := checkin.NewService(rosterSvc, activitySvc, trackingSvc, leaderboardSvc, conf, logger, metrics)
	reflectionSvc := reflection.NewService(repos.Reflections)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - prometheus registry of the engine.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)
	http.DefaultServeMux.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			ActivitySvc:    activitySvc,
			RosterSvc:      rosterSvc,
			CheckinSvc:     checkinSvc,
			LeaderboardSvc: leaderboardSvc,
			ReflectionSvc:  reflectionSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
