package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/roster"
)

const contextActivityKey = "activity"

var errActivityNotFoundInCtx = errors.New("activity object not found in echo.Context")

type activityApi struct {
	svc      *activity.Service
	roster   *roster.Service
	boards   *leaderboard.Service
	clock    *clock
	validate *validator.Validate
	logger   core.Logger
}

// DeactivateRequest is the payload of an activity deactivation. A zero Date means today.
type DeactivateRequest struct {
	Date calendar.Date `json:"date"`
}

// AliasRequest redirects scores recorded against FromID to ToID.
type AliasRequest struct {
	FromID string `json:"from_id" validate:"required"`
	ToID   string `json:"to_id" validate:"required"`
}

func registerActivityAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *activity.Service,
	rosterSvc *roster.Service,
	boards *leaderboard.Service,
	clk *clock,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := activityApi{
		svc:      svc,
		roster:   rosterSvc,
		boards:   boards,
		clock:    clk,
		validate: validate,
		logger:   logger,
	}

	ag := g.Group("/activities", jwt, tenantMiddleware())
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware())
	ag.POST("/aliases", api.alias, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", api.activityMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.POST("/deactivate", api.deactivate, adminMiddleware())
}

// activityMiddleware loads the activity of the ":id" path param, hiding those of other clubs.
func (api *activityApi) activityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			act, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "getting activity")
			}
			if !actor.InClub(act.ClubID) {
				return errHttpNotFound
			}
			ctx.Set(contextActivityKey, act)
			return next(ctx)
		}
	}
}

// checkTeam makes sure teamID, when set, is a team of the caller's club.
func (api *activityApi) checkTeam(ctx echo.Context, actor core.Actor, teamID string) error {
	if teamID == "" {
		return nil
	}
	team, err := api.roster.GetTeam(ctx.Request().Context(), teamID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "team_id", Error: err.Error()})
		}
		return errors.Wrap(err, "getting team")
	}
	if !actor.InClub(team.ClubID) {
		return errHttpForbidden
	}
	return nil
}

// evict drops the cached leaderboards of the club after a catalog change.
func (api *activityApi) evict(ctx context.Context, clubID string) {
	if err := api.boards.InvalidateClub(ctx, clubID); err != nil && api.logger != nil {
		api.logger.Warn("invalidating leaderboards", err)
	}
}

// Handlers

func (api *activityApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	teamID := core.CleanString(ctx.QueryParam("team_id"))
	if teamID == "" && !actor.IsStaff() {
		teamID = actor.TeamID
	}
	if err = api.checkTeam(ctx, actor, teamID); err != nil {
		return err
	}
	asOf, err := bindDate(ctx, "as_of")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if asOf.IsZero() {
		asOf = api.clock.today(reqCtx, actor.ClubID)
	}

	acts, err := api.svc.ListForContext(reqCtx, activity.Context{ClubID: actor.ClubID, TeamID: teamID}, asOf)
	if err != nil {
		return errors.Wrap(err, "listing activities")
	}
	if acts == nil {
		acts = []activity.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data activity.NewActivity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	data.ClubID = actor.ClubID
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.Scope == activity.ScopeTeam {
		if err = api.checkTeam(ctx, actor, data.TeamID); err != nil {
			return err
		}
	}

	reqCtx := ctx.Request().Context()
	act, err := api.svc.Create(reqCtx, data, api.clock.today(reqCtx, actor.ClubID))
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	api.evict(reqCtx, act.ClubID)
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	act, ok := ctx.Get(contextActivityKey).(activity.Activity)
	if !ok {
		return errors.Wrap(errActivityNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) update(ctx echo.Context) error {
	act, ok := ctx.Get(contextActivityKey).(activity.Activity)
	if !ok {
		return errors.Wrap(errActivityNotFoundInCtx, "retrieving object from context")
	}

	var data activity.UpdateActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if err := data.Validate(act, api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	act, err := api.svc.Update(reqCtx, act.ID, data, api.clock.today(reqCtx, act.ClubID))
	if err != nil {
		return errors.Wrap(err, "updating activity")
	}
	api.evict(reqCtx, act.ClubID)
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) deactivate(ctx echo.Context) error {
	act, ok := ctx.Get(contextActivityKey).(activity.Activity)
	if !ok {
		return errors.Wrap(errActivityNotFoundInCtx, "retrieving object from context")
	}

	var data DeactivateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeactivateRequest")
	}
	reqCtx := ctx.Request().Context()
	today := api.clock.today(reqCtx, act.ClubID)
	if data.Date.IsZero() {
		data.Date = today
	}

	act, err := api.svc.Deactivate(reqCtx, act.ID, data.Date, today)
	if err != nil {
		return errors.Wrap(err, "deactivating activity")
	}
	api.evict(reqCtx, act.ClubID)
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) alias(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data AliasRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AliasRequest")
	}
	data.FromID = core.CleanString(data.FromID)
	data.ToID = core.CleanString(data.ToID)
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	from, err := api.svc.Get(reqCtx, data.FromID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "from_id", Error: err.Error()})
		}
		return errors.Wrap(err, "getting aliased activity")
	}
	if !actor.InClub(from.ClubID) {
		return errHttpForbidden
	}

	alias, err := api.svc.AddAlias(reqCtx, activity.Alias{ClubID: from.ClubID, FromID: from.ID, ToID: data.ToID})
	if err != nil {
		return errors.Wrap(err, "adding alias")
	}
	api.evict(reqCtx, alias.ClubID)
	return ctx.JSON(http.StatusCreated, alias)
}
