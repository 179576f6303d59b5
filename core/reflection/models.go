package reflection

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

// MaxLength is the maximum number of characters of each reflection field.
const MaxLength = 2000

// Reflection is a player's free-text review of a week, keyed by (PlayerID, Week).
type Reflection struct {
	PlayerID    string          `json:"player_id"`
	Week        calendar.WeekID `json:"week"`
	WentWell    string          `json:"went_well"`
	DoBetter    string          `json:"do_better"`
	PlanForWeek string          `json:"plan_for_week"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type SaveReflection struct {
	PlayerID    string          `json:"-" validate:"required"`
	Week        calendar.WeekID `json:"-"`
	WentWell    string          `json:"went_well" validate:"max=2000"`
	DoBetter    string          `json:"do_better" validate:"max=2000"`
	PlanForWeek string          `json:"plan_for_week" validate:"max=2000"`
}

func (sr *SaveReflection) Validate(validate *validator.Validate) error {
	sr.WentWell = core.CleanString(sr.WentWell)
	sr.DoBetter = core.CleanString(sr.DoBetter)
	sr.PlanForWeek = core.CleanString(sr.PlanForWeek)
	if !sr.Week.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "week", Error: "invalid week"})
	}
	return validate.Struct(sr)
}
