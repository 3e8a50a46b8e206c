package validator

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"

	"identity-service/domain"

	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type Validator interface {
	Engine() any
	ValidateStruct(obj any) error
	// Validate is ValidateStruct with failures reported as domain.ErrInputValidation.
	Validate(obj any) error
	GetTranslator(locale string) (ut.Translator, error)
}

var (
	defaultValidator Validator
	vOnce            sync.Once
)

func DefaultValidator() Validator {
	vOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

func RegisterValidatorWithGin() {
	binding.Validator = DefaultValidator().(*validatorImpl)
}

var _ Validator = (*validatorImpl)(nil)
var _ binding.StructValidator = (*validatorImpl)(nil)

func New() Validator {
	v := new(validatorImpl)
	v.validate = validator.New()
	v.validate.SetTagName("binding")

	v.initTranslator()

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, validation := range defaultRegistrations {
		if err := v.validate.RegisterValidation(validation.Tag, validation.Func); err != nil {
			log.Fatalf("register validation %s error: %v", validation.Tag, err)
		}
	}

	v.registerCustomTranslations()
	return v
}

type validatorImpl struct {
	validate   *validator.Validate
	uni        *ut.UniversalTranslator
	translator ut.Translator
}

func (v *validatorImpl) ValidateStruct(obj any) error {
	if kindOfData(obj) == reflect.Struct {
		if err := v.validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *validatorImpl) Validate(obj any) error {
	if obj == nil || (reflect.ValueOf(obj).Kind() == reflect.Ptr && reflect.ValueOf(obj).IsNil()) {
		return domain.ErrInputValidation.WithReason("request body is required")
	}
	if err := v.ValidateStruct(obj); err != nil {
		return v.ToDetailedError(err)
	}
	return nil
}

// ToDetailedError turns validation failures into ErrInputValidation with one
// translated message per field path, e.g. "permissions[0].module_id".
// Other errors are returned as ErrBadRequest.
func (v *validatorImpl) ToDetailedError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domain.ErrBadRequest.WithWrap(err).WithReason(err.Error())
	}

	details := make(map[string]interface{}, len(validationErrs))
	for _, fe := range validationErrs {
		details[fieldPath(fe)] = fe.Translate(v.translator)
	}

	first := validationErrs[0]
	return domain.ErrInputValidation.
		WithWrap(err).
		WithReason(fmt.Sprintf("%s: %s", fieldPath(first), first.Translate(v.translator))).
		WithDetails(details)
}

func (v *validatorImpl) Engine() any {
	return v.validate
}

func (v *validatorImpl) GetTranslator(locale string) (ut.Translator, error) {
	trans, found := v.uni.GetTranslator(locale)
	if !found {
		return nil, fmt.Errorf("translator for locale '%s' not found", locale)
	}
	return trans, nil
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func kindOfData(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// BindError converts an error returned by gin's ShouldBind* into a
// DetailedError using the default validator's translations.
func BindError(err error) error {
	return DefaultValidator().(*validatorImpl).ToDetailedError(err)
}
