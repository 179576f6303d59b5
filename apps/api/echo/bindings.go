package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/roster"
)

// clock resolves "today" in the time zone of a club.
type clock struct {
	now      func() time.Time
	roster   *roster.Service
	fallback *time.Location
}

func (c *clock) today(ctx context.Context, clubID string) calendar.Date {
	loc := c.fallback
	if clubID != "" && c.roster != nil {
		if club, err := c.roster.GetClub(ctx, clubID); err == nil {
			loc = club.Location()
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return calendar.Today(loc, c.now())
}

func invalidParam(name string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: name, Error: err.Error()})
}

// bindWeek parses an ISO week (2024-W07) from a path param, or from the query when there is no such path param.
// An empty value is the zero WeekID.
func bindWeek(ctx echo.Context, name string) (calendar.WeekID, error) {
	val := ctx.Param(name)
	if val == "" {
		val = ctx.QueryParam(name)
	}
	if val == "" {
		return calendar.WeekID{}, nil
	}
	week, err := calendar.ParseWeekID(val)
	if err != nil {
		return calendar.WeekID{}, invalidParam(name, errors.New("invalid week"))
	}
	return week, nil
}

func bindDate(ctx echo.Context, name string) (calendar.Date, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.ParseDate(val)
	if err != nil {
		return calendar.Date{}, invalidParam(name, errors.New("invalid date"))
	}
	return d, nil
}

func bindBool(ctx echo.Context, name string) (bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, invalidParam(name, errors.New("invalid boolean"))
	}
	return b, nil
}
