// Package validation checks request shape and field formats before any
// identity logic runs. Failures are reported as *common.ValidationError with
// one violation per offending field, named by its JSON key.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the accepted dateOfBirth format.
const DateLayout = "2006-01-02"

// MinimumAge is the youngest age allowed to register.
const MinimumAge = 18

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// now is a seam for tests.
var now = time.Now

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister(validate, "phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		mustRegister(validate, "birthdate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
		mustRegister(validate, "adult", func(fl validator.FieldLevel) bool {
			born, err := time.Parse(DateLayout, fl.Field().String())
			if err != nil {
				// reported by birthdate
				return true
			}
			return IsAdult(born, now())
		})
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// IsAdult reports whether someone born on born is at least MinimumAge on the
// calendar date of at. The comparison uses full dates, not just years.
func IsAdult(born, at time.Time) bool {
	y, m, d := at.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	by, bm, bd := born.Date()
	birthday := time.Date(by+MinimumAge, bm, bd, 0, 0, 0, 0, time.UTC)
	// Feb 29 births normalise to Mar 1 in non-leap years
	return !birthday.After(today)
}

// ValidateLogin checks a login request: a well-formed email and a non-empty
// password. Password strength is deliberately not checked here.
func ValidateLogin(c *models.Credential) error {
	return Validate(c)
}

// ValidateRegistration checks every registration field.
func ValidateRegistration(in *models.RegistrationInput) error {
	return Validate(in)
}

// Validate runs the struct tag rules of s.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &common.ValidationError{Violations: []common.FieldViolation{{Field: "body", Message: "Invalid request"}}}
	}

	out := &common.ValidationError{Violations: make([]common.FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, common.FieldViolation{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// Field-specific messages, falling back to a generic one per tag.
var messages = map[string]string{
	"email/email":             "Invalid email address",
	"password/required":       "Password is required",
	"password/max":            "Password must be at most 72 characters",
	"confirmPassword/eqfield": "Passwords do not match",
	"firstName/min":           "First name must be at least 2 characters",
	"lastName/min":            "Last name must be at least 2 characters",
	"dateOfBirth/birthdate":   "Invalid date",
	"dateOfBirth/adult":       "You must be at least 18 years old",
	"phoneNumber/phone":       "Invalid phone number",
	"userType/oneof":          "User type must be one of: DONOR, RECIPIENT, MEDICAL_PROFESSIONAL",
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"/"+fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
