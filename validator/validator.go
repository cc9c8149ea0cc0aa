package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validator interface {
	binding.StructValidator
	// TranslateError maps each failing field (by its json name) to a readable
	// message. It returns nil when err is not a validation error.
	TranslateError(err error) map[string]string
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

// RegisterValidatorWithGin makes ShouldBind* run the marketplace rules and
// report fields by the names clients send.
func RegisterValidatorWithGin() {
	binding.Validator = DefaultValidator()
}

var _ Validator = (*validatorImpl)(nil)

type validatorImpl struct {
	validate   *validator.Validate
	uni        *ut.UniversalTranslator
	translator ut.Translator
}

func New() Validator {
	v := &validatorImpl{validate: validator.New()}
	v.validate.SetTagName("binding")
	v.validate.RegisterTagNameFunc(requestFieldName)
	v.validate.RegisterCustomTypeFunc(decimalTypeFunc, decimal.Decimal{})

	for _, r := range defaultRegistrations {
		if err := v.validate.RegisterValidation(r.Tag, r.Func); err != nil {
			panic(fmt.Errorf("register validation %s: %w", r.Tag, err))
		}
	}

	if err := v.registerTranslations(); err != nil {
		panic(err)
	}
	return v
}

// requestFieldName names a field the way it appears on the wire: json body,
// then query/form, then path parameter.
func requestFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// ValidateStruct validates a struct, a pointer to one, or every element of a
// slice of them. Other kinds carry no rules and pass.
func (v *validatorImpl) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return v.validate.Struct(value.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := v.ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validatorImpl) Engine() any {
	return v.validate
}
