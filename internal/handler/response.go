package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so that success and
// failure bodies have one shape across the API.
//
// CONSISTENT ERROR FORMAT:
//
//	{"error":"validation_error","message":"Invalid message data",
//	 "errors":[{"field":"content","tag":"required","message":"content is required"}]}
//
// "errors" is only present for validation failures.

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/validation"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string               `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string               `json:"message"`          // Human-readable description
	Errors  []apperror.Violation `json:"errors,omitempty"` // Field-level detail for validation errors
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps err to an HTTP status and sends it.
//
// Typed application errors become 4xx with their message. Anything else is
// logged with the request context and answered with an opaque 500, so SQL,
// file paths and driver messages never reach the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"
		var violations []apperror.Violation

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
			violations = appErr.Violations
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Errors:  violations,
			})
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads one JSON object from the request body into dst and
// validates it. summary is the top-level message of the 400 response,
// e.g. "Invalid message data".
//
// The body must be exactly one JSON value; trailing bytes are rejected. A
// field with the wrong JSON type ("isPublic":"yes") is reported as a
// violation of that field, the same as a failed validate tag.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, summary string) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperror.Invalid(summary, []apperror.Violation{decodeViolation(dst, body, err)})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return apperror.Invalid(summary, []apperror.Violation{decodeViolation(dst, body, io.EOF)})
	}
	if !json.Valid(body) {
		return apperror.Invalid(summary, []apperror.Violation{decodeViolation(dst, body, errInvalidJSON)})
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.Invalid(summary, []apperror.Violation{decodeViolation(dst, body, err)})
	}

	if n, ok := dst.(interface{ normalize() }); ok {
		n.normalize()
	}

	if violations := validation.Struct(dst); len(violations) > 0 {
		return apperror.Invalid(summary, violations)
	}
	return nil
}

var errInvalidJSON = errors.New("invalid JSON")

func decodeViolation(dst any, body []byte, err error) apperror.Violation {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		field := jsonFieldName(dst, typeErr.Field)
		return typeViolation(field, typeErr.Type)
	case errors.As(err, &maxErr):
		return apperror.Violation{Field: "body", Tag: "max", Message: "request body is too large"}
	case errors.Is(err, io.EOF):
		return apperror.Violation{Field: "body", Tag: "required", Message: "request body is required"}
	case errors.Is(err, errInvalidJSON):
		return apperror.Violation{Field: "body", Tag: "json", Message: "request body must be valid JSON"}
	}

	// The decoder does not name the field for every mismatch (booleans come
	// back as syntax errors), so decode the members one by one to find it.
	if field, t, ok := mismatchedMember(dst, body); ok {
		return typeViolation(field, t)
	}
	return apperror.Violation{Field: "body", Tag: "json", Message: "request body must be valid JSON"}
}

func typeViolation(field string, t reflect.Type) apperror.Violation {
	return apperror.Violation{
		Field:   field,
		Tag:     "type",
		Message: field + " must be a " + jsonKind(t),
	}
}

// mismatchedMember returns the JSON key of the first struct field of dst,
// in declaration order, whose member in body does not decode into the
// field's type.
func mismatchedMember(dst any, body []byte) (string, reflect.Type, bool) {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return "", nil, false
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return "", nil, false
	}

	for i := range t.NumField() {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		raw, ok := members[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, reflect.New(f.Type).Interface()); err != nil {
			return name, f.Type, true
		}
	}
	return "", nil, false
}

// jsonFieldName maps the field reported by the decoder (Go name or JSON
// key, depending on the decoder) to the JSON key of dst's struct field.
func jsonFieldName(dst any, field string) string {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return field
	}
	for i := range t.NumField() {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if f.Name == field || name == field {
			if name == "" {
				return f.Name
			}
			return name
		}
	}
	return field
}

func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.Kind().String()
	}
}

// idParam parses the positive integer path parameter {name}.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive number")
	}
	return id, nil
}
