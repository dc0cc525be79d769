package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("request body is empty")

var validate = newValidator()

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationError carries field-level detail keyed by the JSON path of the field.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 && e.Err != nil {
		return "invalid request: " + e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate runs struct validation and converts failures into *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: err}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return &ValidationError{Fields: fields, Err: err}
}

// DecodeAndValidate reads a JSON body into dst (unknown fields ignored) and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if r.Body == nil {
		return &ValidationError{Err: ErrEmptyBody}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ValidationError{Err: ErrEmptyBody}
		}
		return &ValidationError{Err: fmt.Errorf("malformed JSON: %w", err)}
	}

	return Validate(dst)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// WriteValidationError renders a 400 with field details when err is a *ValidationError.
func WriteValidationError(w http.ResponseWriter, err error, message string) {
	resp := ErrorResponse{Error: message, Code: "validation_failed"}

	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		resp.Details = verr.Fields
	}
	WriteJSON(w, http.StatusBadRequest, resp)
}

// fieldPath drops the root struct name: "CheckoutInput.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
