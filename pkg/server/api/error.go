package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-validation error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error by HTTP class.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypePayloadTooLarge    = "payload_too_large"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// Error codes.
const (
	CodeInvalidJSON     = "invalid_json"
	CodeInvalidQuery    = "invalid_query"
	CodeSchemaNotFound  = "schema_not_found"
	CodeBodyTooLarge    = "body_too_large"
	CodeHistoryDisabled = "history_disabled"
	CodeInternal        = "internal_error"
)

// NewError builds an error response.
func NewError(errType, code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Message: message, Type: errType, Code: code}}
}

// WriteError writes an error response with the given status.
func WriteError(w http.ResponseWriter, status int, resp *ErrorResponse) {
	WriteJSON(w, status, resp)
}

// WriteJSON encodes v as the response body. Encoding errors are ignored since
// the status line is already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
