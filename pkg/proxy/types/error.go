package types

import "net/http"

// ErrorResponse represents an OpenAI-compatible error response.
// It is returned only for inbound request errors; upstream failures are
// answered with an empty body.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants matching the OpenAI API.
const (
	// ErrorTypeInvalidRequest indicates a client-side error.
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"
)

// Error code constants for inbound request errors.
const (
	// CodeInvalidJSON indicates the request body is not a JSON object.
	CodeInvalidJSON = "invalid_json"

	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has the wrong JSON type.
	CodeInvalidValue = "invalid_value"

	// CodeInvalidMessage indicates a messages element without string role and content.
	CodeInvalidMessage = "invalid_message"

	// CodeRequestTooLarge indicates the request payload is too large.
	CodeRequestTooLarge = "request_too_large"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests.
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// HTTPStatusCode returns the HTTP status code for the error.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch {
	case e.Code == CodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case e.Type == ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
