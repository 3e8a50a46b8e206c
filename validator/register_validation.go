package validator

import (
	"regexp"
	"strings"

	"identity-service/domain"

	"github.com/go-playground/validator/v10"
)

const ModuleIDRegexString = `^[1-9]\d*$`

var moduleIDRegex = regexp.MustCompile(ModuleIDRegexString)

type Registration struct {
	Tag  string
	Func validator.Func
}

var defaultRegistrations = [...]Registration{
	{
		Tag:  NotEmpty,
		Func: IsNotEmpty,
	},
	{
		Tag:  ModuleID,
		Func: IsValidModuleID,
	},
	{
		Tag:  Action,
		Func: IsValidAction,
	},
}

// IsNotEmpty rejects strings made only of whitespace.
func IsNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func IsValidModuleID(fl validator.FieldLevel) bool {
	return moduleIDRegex.MatchString(fl.Field().String())
}

func IsValidAction(fl validator.FieldLevel) bool {
	return domain.Action(fl.Field().String()).IsValid()
}
