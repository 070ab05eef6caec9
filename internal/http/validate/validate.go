package validate

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries field-level messages keyed by the field's json name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the first message for field, or "".
func (e *ValidationError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Messages maps "field.tag" onto a user-facing message.
type Messages map[string]string

// Validator checks tagged request structs.
type Validator struct {
	v        *validator.Validate
	messages Messages
}

// New returns a Validator reporting failures with messages. Unknown
// field/tag pairs fall back to a generic message.
func New(messages Messages) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// RegisterValidation only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("url_host", hasHost)
	return &Validator{v: v, messages: messages}
}

// hasHost rejects URLs like "http://" or "http:///path" that parse but name no host.
func hasHost(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	return err == nil && u.Hostname() != ""
}

// Struct validates s. It returns a *ValidationError when a rule fails.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string][]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = append(out.Fields[fe.Field()], val.message(fe))
	}
	return out
}

func (val *Validator) message(fe validator.FieldError) string {
	if msg, ok := val.messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("The %s field is invalid.", strings.ReplaceAll(fe.Field(), "_", " "))
}
