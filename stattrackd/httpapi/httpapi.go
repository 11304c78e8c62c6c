package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/xerrors"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
)

var validate *validator.Validate

// A single validator instance is used, because it caches struct
// parsing.
func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Write outputs a standardized format to an HTTP response body.
func Write(ctx context.Context, rw http.ResponseWriter, status int, response interface{}) {
	// Pre-encode to catch marshal failures before the status is
	// committed.
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	err := enc.Encode(response)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if ctx.Err() != nil {
		// The client is gone; nothing useful can be written.
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	_, _ = rw.Write(buf.Bytes())
}

// Read decodes JSON from the HTTP request into the value provided. It
// uses go-playground/validator to validate the incoming request body.
// A false return means a response was already written.
func Read(ctx context.Context, rw http.ResponseWriter, r *http.Request, value interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(value)
	if err != nil {
		Write(ctx, rw, http.StatusBadRequest, stattracksdk.Response{
			Message: "Request body must be valid JSON.",
			Detail:  err.Error(),
		})
		return false
	}

	err = validateStruct(value)
	var validationErrors validator.ValidationErrors
	if xerrors.As(err, &validationErrors) {
		apiErrors := make([]stattracksdk.ValidationError, 0, len(validationErrors))
		for _, validationError := range validationErrors {
			apiErrors = append(apiErrors, stattracksdk.ValidationError{
				Field:  validationError.Field(),
				Detail: fmt.Sprintf("Validation failed for tag %q with value: \"%v\"", validationError.Tag(), validationError.Value()),
			})
		}
		Write(ctx, rw, http.StatusBadRequest, stattracksdk.Response{
			Message:     "Validation failed.",
			Validations: apiErrors,
		})
		return false
	}
	if err != nil {
		Write(ctx, rw, http.StatusInternalServerError, stattracksdk.Response{
			Message: "Internal error validating request body payload.",
			Detail:  err.Error(),
		})
		return false
	}
	return true
}

// validateStruct handles the top-level value being a slice, which
// validator.Struct rejects. The heartbeat endpoint accepts an array.
func validateStruct(value interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(value))
	if v.Kind() != reflect.Slice {
		return validate.Struct(value)
	}
	for i := 0; i < v.Len(); i++ {
		if err := validate.Struct(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// InternalServerError writes a generic 500 with the error attached as
// detail.
func InternalServerError(ctx context.Context, rw http.ResponseWriter, err error) {
	var details string
	if err != nil {
		details = err.Error()
	}

	Write(ctx, rw, http.StatusInternalServerError, stattracksdk.Response{
		Message: "An internal server error occurred.",
		Detail:  details,
	})
}
