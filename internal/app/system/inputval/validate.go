package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared struct validator with the custom tags
// registered: tckn, phone_tr, birthdate, adult, education, gender, httpurl,
// email_simple.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "tckn", func(fl validator.FieldLevel) bool { return IsValidNationalID(fl.Field().String()) })
		mustRegister(v, "phone_tr", func(fl validator.FieldLevel) bool { return IsValidPhone(fl.Field().String()) })
		mustRegister(v, "education", func(fl validator.FieldLevel) bool { return IsValidEducation(fl.Field().String()) })
		mustRegister(v, "gender", func(fl validator.FieldLevel) bool { return IsValidGender(fl.Field().String()) })
		mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool { return IsValidHTTPURL(fl.Field().String()) })
		mustRegister(v, "email_simple", func(fl validator.FieldLevel) bool { return IsValidEmail(fl.Field().String()) })
		mustRegister(v, "birthdate", func(fl validator.FieldLevel) bool {
			_, ok := ParseBirthDate(fl.Field().String())
			return ok
		})
		mustRegister(v, "adult", func(fl validator.FieldLevel) bool {
			t, ok := ParseBirthDate(fl.Field().String())
			return !ok || IsEligibleAge(t, time.Now().UTC())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("inputval: register %s: %v", tag, err))
	}
}

// Struct validates s and returns every violation keyed by JSON field name.
// It returns nil when s is valid.
func Struct(s interface{}) map[string]string {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

// message renders a violation the way the API reports it.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "email", "email_simple":
		return "must be a valid email address"
	case "tckn":
		return "must be a valid 11-digit national identity number"
	case "phone_tr":
		return "must be a 10-digit phone number, optionally prefixed with +90 or 0"
	case "education":
		return "must be one of " + strings.Join(educationLevels, ", ")
	case "gender":
		return "must be male or female"
	case "birthdate":
		return "must be a date in YYYY-MM-DD format"
	case "adult":
		return fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge)
	case "httpurl":
		return "must be an http or https URL"
	case "mongodb":
		return "must be a valid id"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max_ids":
		return "too many ids"
	default:
		return "is invalid"
	}
}
