package utils

import (
	"html"
	"reflect"
	"regexp"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool
	policy      *bluemonday.Policy
}

var (
	instance      *Validator
	configuration *truemail.Configuration
	once          sync.Once
)

// phonePattern accepts mobile and landline numbers with or without dashes, e.g. 010-1234-5678.
var phonePattern = regexp.MustCompile(`^0\d{1,2}-?\d{3,4}-?\d{4}$`)

const birthLayout = "2006-01-02"

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "team@mail.silverrock.app",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: validateEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

func validateEmail(email string) bool {
	if configuration == nil {
		return false
	}
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("phone_validation", phoneValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("password_validation", passwordValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("birth_validation", birthValidation)
	if err != nil {
		return
	}
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// birthValidation accepts dates of the form YYYY-MM-DD that are not in the future.
func birthValidation(fl validator.FieldLevel) bool {
	birth, err := time.Parse(birthLayout, fl.Field().String())
	if err != nil {
		return false
	}

	return !birth.After(time.Now())
}

func passwordValidation(fl validator.FieldLevel) bool {
	var upperLetter, lowerLetter, number, specialChar bool

	value := fl.Field().String()
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialChar = true
		}
	}

	return upperLetter && lowerLetter && number && specialChar
}

// SanitizeData strips markup from every string field of the struct obj points to.
// Fields of type *string are sanitized in place when set, fields tagged sanitize:"-" are left alone.
func (v *Validator) SanitizeData(obj interface{}) {
	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return
	}

	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		if !field.CanSet() || value.Type().Field(i).Tag.Get("sanitize") == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(v.sanitize(field.String()))
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(v.sanitize(field.Elem().String()))
			}
		default:
		}
	}
}

// sanitize strips markup but keeps the text itself as typed, e.g. "Tom & Jerry" stays unescaped.
func (v *Validator) sanitize(value string) string {
	return html.UnescapeString(v.policy.Sanitize(value))
}
