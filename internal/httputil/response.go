// Package httputil holds the JSON request/response helpers shared by the HTTP
// handlers and the outbound service client.
package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

// MaxRequestBodyBytes bounds JSON request bodies.
const MaxRequestBodyBytes = 1 << 20

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"trace_id,omitempty"`
}

// ErrorDetail carries the stable kind and a human-readable message.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes an ErrorBody, tagging it with the request trace id.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	body := ErrorBody{Error: ErrorDetail{Code: code, Message: message, Details: details}}
	if r != nil {
		body.TraceID = logging.GetTraceID(r.Context())
	}
	WriteJSON(w, status, body)
}

// WriteServiceError maps err onto its status and kind. Errors that are not
// ServiceErrors become INTERNAL_ERROR without leaking their text.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Internal("Internal server error", err)
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// DecodeJSON decodes the request body into v. Failures are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.Validation("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.Validation("request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.Validation("request body is required")
		default:
			return errors.Validation(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return nil
}

// BadRequest writes a VALIDATION_ERROR.
func BadRequest(w http.ResponseWriter, message string) {
	WriteServiceError(w, nil, errors.Validation(message))
}

// NotFound writes a NOT_FOUND error for resource.
func NotFound(w http.ResponseWriter, resource string) {
	WriteServiceError(w, nil, errors.NotFound(resource))
}

// Unauthorized writes an UNAUTHORIZED error.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteServiceError(w, nil, errors.Unauthorized(message))
}
