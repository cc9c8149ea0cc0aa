package validator

import (
	"reflect"
	"strings"
	"time"

	"auction-market/domain"
	"auction-market/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Registration struct {
	Tag  string
	Func validator.Func
}

var defaultRegistrations = [...]Registration{
	{
		Tag:  Email,
		Func: IsValidEmail,
	},
	{
		Tag:  PhoneNumber,
		Func: IsValidPhoneNumber,
	},
	{
		Tag:  Role,
		Func: IsValidRole,
	},
	{
		Tag:  NotBlank,
		Func: IsNotBlank,
	},
	{
		Tag:  DecimalGt0,
		Func: IsPositiveDecimal,
	},
	{
		Tag:  FutureTime,
		Func: IsFutureTime,
	},
	{
		Tag:  ProductStatus,
		Func: IsValidProductStatus,
	},
	{
		Tag:  NotificationType,
		Func: IsValidNotificationType,
	},
}

// decimalTypeFunc lets tags see decimal.Decimal as its string form.
func decimalTypeFunc(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func IsValidPhoneNumber(fl validator.FieldLevel) bool {
	input := fl.Field().String()
	if input == "" {
		return true
	}
	return utils.IsValidPhone(input)
}

func IsValidEmail(fl validator.FieldLevel) bool {
	return utils.IsEmail(fl.Field().String())
}

func IsValidRole(fl validator.FieldLevel) bool {
	return lo.Contains([]domain.RoleID{
		domain.RoleIDSuperAdmin,
		domain.RoleIDAdmin,
		domain.RoleIDUser,
		domain.RoleIDGuest,
	}, domain.RoleID(fl.Field().String()))
}

func IsNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// IsPositiveDecimal accepts decimal.Decimal fields and numeric strings.
func IsPositiveDecimal(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(field.String()))
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// IsFutureTime checks a unix millisecond timestamp.
func IsFutureTime(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return field.Int() > time.Now().UnixMilli()
	default:
		return false
	}
}

func IsValidProductStatus(fl validator.FieldLevel) bool {
	return domain.ProductStatus(fl.Field().String()).IsValid()
}

func IsValidNotificationType(fl validator.FieldLevel) bool {
	return domain.NotificationType(fl.Field().String()).IsValid()
}
