package validation

import (
	"github.com/gin-gonic/gin/binding"

	"github.com/rs/zerolog/log"
	"gopkg.in/go-playground/validator.v9"

	"github.com/ghxstship/recordguard/internal/domain/org"
)

func SetUpValidators() {
	log.Info().Msg("Setting up custom validators")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation(OrgNameValidatorTag, OrgNameValidator)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up Org name validator")
		}
	}
}

var OrgNameValidatorTag = "orgName"
var OrgNameValidator validator.Func = func(fl validator.FieldLevel) bool {
	orgId, ok := fl.Field().Interface().(org.Id)
	if ok {
		if _, err := org.IdFromString(string(orgId)); err != nil {
			fl.Field()
			return false
		}
	}
	return true
}
