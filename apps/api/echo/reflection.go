package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
)

type reflectionApi struct {
	svc      *reflection.Service
	validate *validator.Validate
}

func registerReflectionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *reflection.Service,
	rosterSvc *roster.Service,
	validate *validator.Validate,
) {
	api := reflectionApi{svc: svc, validate: validate}

	rg := g.Group("/players/:id/reflections", jwt, tenantMiddleware(), playerMiddleware(rosterSvc))
	rg.GET("", api.list)
	rg.GET("/:week", api.retrieve)
	rg.PUT("/:week", api.save)
}

// Handlers

func (api *reflectionApi) list(ctx echo.Context) error {
	p, err := getContextPlayer(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving player from context")
	}
	refls, err := api.svc.List(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "listing reflections")
	}
	if refls == nil {
		refls = []reflection.Reflection{}
	}
	return ctx.JSON(http.StatusOK, refls)
}

func (api *reflectionApi) retrieve(ctx echo.Context) error {
	p, err := getContextPlayer(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving player from context")
	}
	week, err := bindWeek(ctx, "week")
	if err != nil {
		return err
	}
	refl, err := api.svc.Get(ctx.Request().Context(), p.ID, week)
	if err != nil {
		return errors.Wrap(err, "getting reflection")
	}
	return ctx.JSON(http.StatusOK, refl)
}

func (api *reflectionApi) save(ctx echo.Context) error {
	p, err := getContextPlayer(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving player from context")
	}
	// only the player writes their own reflections
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if actor.Role != core.RolePlayer {
		return errHttpForbidden
	}

	var data reflection.SaveReflection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveReflection")
	}
	data.PlayerID = p.ID
	if data.Week, err = bindWeek(ctx, "week"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	refl, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving reflection")
	}
	return ctx.JSON(http.StatusOK, refl)
}
