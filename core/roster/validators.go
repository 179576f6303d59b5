package roster

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
)

var (
	timeZoneTag  = "tz"
	timeZoneText = "unknown time zone"
)

// InitValidators registers the roster validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(timeZoneTag, timeZoneValidation)
	core.RegisterCustomTranslation(validate, translator, timeZoneTag, timeZoneText)
}

// timeZoneValidation accepts IANA zone names.
func timeZoneValidation(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}
