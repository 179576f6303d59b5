package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/roster"
)

var errPlayerNotFoundInCtx = errors.New("player object not found in echo.Context")

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if actor.IsAdmin() && actor.ClubID != "" {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// tenantMiddleware rejects tokens without a club or role.
func tenantMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if actor.ClubID == "" || actor.Role == "" {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

const contextPlayerKey = "player"

// playerMiddleware loads the player of the ":id" path param into the context,
// once the caller is known to be allowed to act for them.
func playerMiddleware(svc *roster.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			p, err := svc.GetPlayer(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "getting player")
			}
			if !actor.CanActFor(p.ID, p.ClubID) {
				return errHttpForbidden
			}
			ctx.Set(contextPlayerKey, p)
			return next(ctx)
		}
	}
}

func getContextPlayer(ctx echo.Context) (roster.Player, error) {
	p, ok := ctx.Get(contextPlayerKey).(roster.Player)
	if !ok {
		return roster.Player{}, errPlayerNotFoundInCtx
	}
	return p, nil
}
