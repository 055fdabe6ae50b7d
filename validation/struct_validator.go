package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/opflow/errors"
)

// structValidator is built once; validator caches struct metadata.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(configKey)
	return v
})

// configKey names a field by the key users write in config files.
func configKey(fld reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "yaml", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return toSnakeCase(fld.Name)
}

// Validate checks s against its `validate` struct tags and reports every
// failure as one INVALID_CONFIG error.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}

	v := New()
	for _, fe := range fieldErrs {
		v.Fail(fieldPath(fe.Namespace()), "%s", describe(fe))
	}
	return v.Err()
}

// fieldPath drops the root type name from a validator namespace:
// "AppConfig.engine.workers" becomes "engine.workers".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var tagMessages = map[string]string{
	"required":      "is required",
	"min":           "must be at least ",
	"gte":           "must be at least ",
	"max":           "must be at most ",
	"lte":           "must be at most ",
	"oneof":         "must be one of: ",
	"url":           "must be a valid URL",
	"hostname_port": "must be host:port",
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid (" + fe.Tag() + ")"
	}
	if strings.HasSuffix(msg, " ") {
		msg += strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return msg
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
