// Package types defines the inbound request and error types of the relay.
//
// Request types:
//   - ChatRequest: the body of POST /v1/chat/completions
//   - Message: one role/content turn
//
// Error types:
//   - ErrorResponse: OpenAI-compatible error body for malformed requests
//   - ErrorDetail: message, type, param and code
//
// Field names follow OpenAI's snake_case convention so standard SDKs can read
// the error bodies.
package types
