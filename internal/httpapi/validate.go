package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairchance/jobintake/internal/model"
)

const maxBodyBytes = 1 << 20

// requestValidator wraps go-playground/validator and turns failures into
// InvalidInput errors.
type requestValidator struct {
	v *validator.Validate
}

func newValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// prefer json tag names in messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return &requestValidator{v: v}
}

// decode reads a JSON body into dst and validates it.
func (v *requestValidator) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return model.InvalidInput("Request body must be valid JSON")
	}
	return v.check(dst)
}

func (v *requestValidator) check(dst any) error {
	err := v.v.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return model.InvalidInput(message(verrs[0]))
	}
	return model.InvalidInput(err.Error())
}

var fieldLabels = map[string]string{
	"url":         "URL",
	"description": "Description",
	"text":        "URLs",
	"urls":        "URLs",
}

func message(fe validator.FieldError) string {
	name := fieldLabels[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required", "required_without":
		return name + " is required"
	case "url", "http_url":
		return name + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "datetime":
		return name + " must be a YYYY-MM-DD date"
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", name, fe.Param())
	}
	return fmt.Sprintf("%s failed on '%s' validation", name, fe.Tag())
}
