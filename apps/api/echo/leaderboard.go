package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/roster"
)

type leaderboardApi struct {
	svc    *leaderboard.Service
	roster *roster.Service
	clock  *clock
}

func registerLeaderboardAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *leaderboard.Service,
	rosterSvc *roster.Service,
	clk *clock,
) {
	api := leaderboardApi{svc: svc, roster: rosterSvc, clock: clk}
	g.GET("/leaderboards", api.query, jwt, tenantMiddleware())
}

// Handlers

func (api *leaderboardApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	q := leaderboard.Query{
		Scope:   core.CleanString(ctx.QueryParam("scope"), true /* lower */),
		ScopeID: core.CleanString(ctx.QueryParam("scope_id")),
	}
	if q.Week, err = bindWeek(ctx, "week"); err != nil {
		return err
	}
	if q.IncludeInactive, err = bindBool(ctx, "include_inactive"); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	today := api.clock.today(reqCtx, actor.ClubID)
	if q.Week.IsZero() {
		q.Week = calendar.WeekOf(today)
	}
	if err = q.Validate(); err != nil {
		return err
	}

	// scope must be inside the caller's club
	switch q.Scope {
	case leaderboard.ScopeClub:
		if !actor.InClub(q.ScopeID) {
			return errHttpForbidden
		}
	case leaderboard.ScopeTeam:
		team, err := api.roster.GetTeam(reqCtx, q.ScopeID)
		if err != nil {
			if core.IsNotFound(err) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "getting team")
		}
		if !actor.InClub(team.ClubID) {
			return errHttpForbidden
		}
	}

	board, err := api.svc.Leaderboard(reqCtx, q, today)
	if err != nil {
		return errors.Wrap(err, "building leaderboard")
	}
	return ctx.JSON(http.StatusOK, board)
}
