package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"bitcash/internal/models"

	"github.com/go-playground/validator/v10"
)

var pinRegex = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d,%d}$`, MinPinLength, MaxPinLength))

var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return IsValidPin(fl.Field().String())
	})
	_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		switch models.TransactionType(fl.Field().String()) {
		case models.TransactionTypeTransfer, models.TransactionTypeDeposit,
			models.TransactionTypeWithdrawal, models.TransactionTypePayment,
			models.TransactionTypeConversion:
			return true
		}
		return false
	})
	return v
}

// IsValidPin reports whether pin is 4 to 6 ASCII digits.
func IsValidPin(pin string) bool {
	return pinRegex.MatchString(pin)
}

// Struct validates s against its `validate` tags. The returned Validator is
// empty when s is valid.
func Struct(s interface{}) *Validator {
	v := New()
	err := validate.Struct(s)
	if err == nil {
		return v
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.AddError("request", "is invalid")
		return v
	}
	for _, fe := range verrs {
		v.AddError(fe.Field(), message(fe))
	}
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "pin":
		return fmt.Sprintf("must be %d to %d digits", MinPinLength, MaxPinLength)
	case "txtype":
		return "is not a known transaction type"
	case "max":
		return fmt.Sprintf("must not be more than %s characters long", fe.Param())
	case "uuid4", "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}
