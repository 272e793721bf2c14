package core

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscPattern  = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the domain tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		if err := RegisterDomainValidators(validate); err != nil {
			panic(err)
		}
	})
	return validate
}

// RegisterDomainValidators adds the pan, ifsc and phone_in tags to v. The
// server calls it on gin's binding engine as well.
func RegisterDomainValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		return IsPAN(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscPattern.MatchString(strings.ToUpper(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("phone_in", func(fl validator.FieldLevel) bool {
		_, ok := NormalizePhone(fl.Field().String())
		return ok
	})
}

// IsPAN reports whether s is a PAN once uppercased.
func IsPAN(s string) bool {
	return panPattern.MatchString(NormalizePAN(s))
}

func NormalizePAN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizePhone reduces an Indian mobile number to its 10 digit form,
// dropping separators and a +91 or 0 prefix.
func NormalizePhone(s string) (string, bool) {
	digits := nonDigits.ReplaceAllString(s, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if !phonePattern.MatchString(digits) {
		return "", false
	}
	return digits, true
}

// ValidateStruct runs the shared validator and converts the first failure
// into an INVALID_INPUT error naming the field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return Invalid(fieldName(fe), "failed "+fe.Tag()+" validation")
	}
	return NewError(err, CodeInvalidInput, nil)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
