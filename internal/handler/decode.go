package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/organlink/internal/apperror"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// MsgInvalidJSON is returned for bodies that are not a JSON object.
const MsgInvalidJSON = "Invalid JSON body"

// validate checks payload shape at the boundary: types, lengths, formats.
// Required-field rules stay in the services, which own those messages.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the JSON field name ("bloodGroup"), not the Go one.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads r's body into dst and runs the validator over it.
// Every failure is an apperror validation error.
//
// A JSON value of the wrong type (a number where a string belongs) is a
// decode error, so services only ever see strings.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("", MsgInvalidJSON)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("", "request body too large")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		}
		return apperror.ValidationFailed("", MsgInvalidJSON)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.ValidationFailed(verrs[0].Field(), validationMessage(verrs[0]))
		}
		return apperror.ValidationFailed("", err.Error())
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
