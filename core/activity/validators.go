package activity

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
)

var (
	frequencyTag  = "frequency"
	frequencyText = "frequency must be one of daily, weekly or Nx/week with N between 1 and 7"

	scopeTag  = "scope"
	scopeText = "scope must be one of club or team"

	teamScopeTag  = "team_scope"
	teamScopeText = "team_id is required for team activities"
)

// InitValidators registers the activity validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(frequencyTag, frequencyValidation)
	core.RegisterCustomTranslation(validate, translator, frequencyTag, frequencyText)

	_ = validate.RegisterValidation(scopeTag, scopeValidation)
	core.RegisterCustomTranslation(validate, translator, scopeTag, scopeText)

	validate.RegisterStructValidation(newActivityStructValidation, NewActivity{})
	core.RegisterCustomTranslation(validate, translator, teamScopeTag, teamScopeText)
}

// Custom Validators

func frequencyValidation(fl validator.FieldLevel) bool {
	_, err := ParseFrequency(fl.Field().String())
	return err == nil
}

func scopeValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == ScopeClub || s == ScopeTeam
}

// newActivityStructValidation does NewActivity's struct level validation
func newActivityStructValidation(sl validator.StructLevel) {
	if na, ok := sl.Current().Interface().(NewActivity); ok {
		if na.Scope == ScopeTeam && core.CleanString(na.TeamID) == "" {
			sl.ReportError(na.TeamID, "team_id", "TeamID", teamScopeTag, "")
		}
	}
}
