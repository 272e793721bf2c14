package config

import (
	"mime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("cron_spec", validateCronSpec); err != nil {
		return err
	}
	return v.RegisterValidation("mime_type", validateMIMEType)
}

// validateCronSpec accepts standard five-field specs and @descriptors.
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cronParser.Parse(fl.Field().String())
	return err == nil
}

// validateMIMEType accepts a bare, lower-case type/subtype pair.
func validateMIMEType(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if strings.Count(raw, "/") != 1 {
		return false
	}
	typ, sub, _ := strings.Cut(raw, "/")
	if typ == "" || sub == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	return err == nil && mediaType == raw
}
