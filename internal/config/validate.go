package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var messages = map[string]string{
	"user_dn/required_without":         "Either 'user_dn' or 'user_search_base' needs to be configured.",
	"user_dn/excluded_with":            "Only one of 'user_dn' and 'user_search_base' may be configured.",
	"user_search_base/required_with":   "'user_search_base' and 'user_search_filter' may only be configured together.",
	"user_search_filter/required_with": "'user_search_base' and 'user_search_filter' may only be configured together.",
	"type/oneof":                       "'type' must be one of 'ad' or 'ldap'.",
	"start_tls/excluded_with":          "Only one of 'use_ssl' and 'start_tls' may be enabled.",
	"log_level/oneof":                  "'log_level' must be one of trace, debug, info, warn or error.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validate(conf *Config) error {
	err := newValidator().Struct(conf)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "illegal config")
	}

	// Report the first failure only.
	fe := verrs[0]
	if msg, ok := messages[fe.Field()+"/"+fe.Tag()]; ok {
		return errors.New("illegal config: " + msg)
	}
	return errors.New("illegal config: " + describe(fe))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.<section>.<key>"
	name := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be defined", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed '%s' validation", name, fe.Tag())
	}
}
