// Package shared wires the dependencies the api & admin apps have in common.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/roster"
)

// NewValidator returns a validator knowing every input of the engine, with english messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	activity.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	return validate, translator
}
