package validator

import (
	"errors"
	"fmt"

	enLocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var englishMessages = map[string]string{
	Email:            "{0} must be a valid email address",
	PhoneNumber:      "{0} must be a valid phone number",
	Role:             "{0} must be a valid role",
	NotBlank:         "{0} cannot be blank",
	DecimalGt0:       "{0} must be a decimal greater than zero",
	FutureTime:       "{0} must be a time in the future",
	ProductStatus:    "{0} must be one of active, ended, cancelled",
	NotificationType: "{0} must be a valid notification type",
}

// registerTranslations installs the stock English messages and then the
// marketplace ones, which override any stock message for the same tag.
func (v *validatorImpl) registerTranslations() error {
	en := enLocale.New()
	v.uni = ut.New(en, en)

	trans, ok := v.uni.GetTranslator(en.Locale())
	if !ok {
		return fmt.Errorf("translator %q not found", en.Locale())
	}
	v.translator = trans

	if err := en_translations.RegisterDefaultTranslations(v.validate, trans); err != nil {
		return fmt.Errorf("register default translations: %w", err)
	}

	for tag, message := range englishMessages {
		err := v.validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(tag, fe.Field())
				if err != nil {
					return fe.Error()
				}
				return t
			},
		)
		if err != nil {
			return fmt.Errorf("register translation %s: %w", tag, err)
		}
	}
	return nil
}

// TranslateError maps each failing field (by its json name) to a readable
// message. It returns nil when err is not a validation error.
func (v *validatorImpl) TranslateError(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}
