package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/checkin"
	"github.com/trezcool/habitrank/core/roster"
)

type checkinApi struct {
	svc      *checkin.Service
	roster   *roster.Service
	clock    *clock
	validate *validator.Validate
}

func registerCheckinAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *checkin.Service,
	rosterSvc *roster.Service,
	clk *clock,
	validate *validator.Validate,
) {
	api := checkinApi{
		svc:      svc,
		roster:   rosterSvc,
		clock:    clk,
		validate: validate,
	}

	g.POST("/checkins", api.checkIn, jwt, tenantMiddleware())

	pg := g.Group("/players/:id", jwt, tenantMiddleware(), playerMiddleware(rosterSvc))
	pg.GET("/weeks/:week", api.weekSummary)
}

// Handlers

func (api *checkinApi) checkIn(ctx echo.Context) error {
	var data checkin.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to checkin.Request")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	reqCtx := ctx.Request().Context()
	p, err := api.roster.GetPlayer(reqCtx, data.PlayerID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "player_id", Error: err.Error()})
		}
		return errors.Wrap(err, "getting player")
	}
	if !actor.CanActFor(p.ID, p.ClubID) {
		return errHttpForbidden
	}

	res, err := api.svc.CheckIn(reqCtx, data, api.clock.today(reqCtx, p.ClubID))
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *checkinApi) weekSummary(ctx echo.Context) error {
	p, err := getContextPlayer(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving player from context")
	}
	week, err := bindWeek(ctx, "week")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if week.IsZero() {
		week = calendar.WeekOf(api.clock.today(reqCtx, p.ClubID))
	}

	summary, err := api.svc.WeekSummary(reqCtx, p.ID, week)
	if err != nil {
		return errors.Wrap(err, "summarizing week")
	}
	return ctx.JSON(http.StatusOK, summary)
}
