package validator

import (
	"log"

	enLocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

func (v *validatorImpl) initTranslator() {
	en := enLocale.New()
	v.uni = ut.New(en, en)

	trans, _ := v.uni.GetTranslator("en")
	v.translator = trans

	if err := en_translations.RegisterDefaultTranslations(v.validate, trans); err != nil {
		log.Printf("Failed to register English translations: %v", err)
	}
}

func (v *validatorImpl) registerCustomTranslations() {
	translations := map[string]string{
		NotEmpty: "{0} cannot be empty",
		ModuleID: "{0} must be a positive integer module id",
		Action:   "{0} must be one of create, read, update, delete",
	}

	for tag, message := range translations {
		tag, message := tag, message
		err := v.validate.RegisterTranslation(tag, v.translator,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
		if err != nil {
			log.Printf("Failed to register English translation for %s: %v", tag, err)
		}
	}
}
