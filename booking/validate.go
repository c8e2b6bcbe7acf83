package booking

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest wraps every validation failure.
var ErrInvalidRequest = errors.New("booking: invalid request")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "male", "female", "transgender", "m", "f", "t":
				return true
			}
			return false
		})
		_ = v.RegisterValidation("paymethod", func(fl validator.FieldLevel) bool {
			_, ok := ParseMethod(fl.Field().String())
			return ok
		})
		validate = v
	})
	return validate
}

// Validate checks a request before a fill is attempted: at least one
// passenger, every passenger complete, contact fully populated, and a known
// payment method when one is given.
func Validate(req *FillRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	return check(req)
}

// ValidatePassenger checks a single passenger, as stored in a profile.
func ValidatePassenger(p Passenger) error { return check(p) }

// ValidateContact checks contact details, as stored in a profile.
func ValidateContact(c Contact) error { return check(c) }

func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "number", "numeric":
		return field + " must be digits only"
	case "email":
		return field + " is not a valid email"
	case "gender":
		return field + " must be male, female or transgender"
	case "paymethod":
		return field + " is not a known payment method"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
