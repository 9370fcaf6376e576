package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"gaia-relay/llamagate/pkg/proxy/types"
)

// DefaultMaxRequestBytes is the request body limit used when none is configured.
const DefaultMaxRequestBytes = 2 << 20

// ParseChatRequest reads and validates a chat-completion request body.
//
// The body must be at most maxBytes long and be a JSON object whose
// "messages" key holds an array of objects with string "role" and "content".
// Other top-level keys are ignored. A nil error guarantees a non-nil
// Messages slice, so an empty array is forwarded as [].
//
// Validation failures are returned as *RequestError.
func ParseChatRequest(r *http.Request, maxBytes int64) (*types.ChatRequest, int, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, len(body), fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > maxBytes {
		return nil, len(body), &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	req, err := decodeChatRequest(body)
	return req, len(body), err
}

func decodeChatRequest(body []byte) (*types.ChatRequest, error) {
	// encoding/json replaces invalid UTF-8 with U+FFFD instead of failing.
	if !utf8.Valid(body) {
		return nil, &RequestError{
			Message: "request body is not valid UTF-8",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body must be a JSON object: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if key, ok := duplicateKey(body); ok {
		return nil, &RequestError{
			Message: fmt.Sprintf("duplicate field %q", key),
			Code:    types.CodeInvalidJSON,
			Param:   key,
		}
	}

	raw, ok := fields["messages"]
	if !ok || isNull(raw) {
		return nil, &RequestError{
			Message: "messages is required",
			Code:    types.CodeMissingField,
			Param:   "messages",
		}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &RequestError{
			Message: "messages must be an array",
			Code:    types.CodeInvalidValue,
			Param:   "messages",
		}
	}

	req := &types.ChatRequest{Messages: make([]types.Message, 0, len(elems))}
	for i, elem := range elems {
		msg, err := decodeMessage(elem)
		if err != nil {
			return nil, &RequestError{
				Message: fmt.Sprintf("messages[%d]: %v", i, err),
				Code:    types.CodeInvalidMessage,
				Param:   fmt.Sprintf("messages[%d]", i),
			}
		}
		req.Messages = append(req.Messages, msg)
	}

	return req, nil
}

func decodeMessage(raw json.RawMessage) (types.Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return types.Message{}, errors.New("must be an object")
	}
	if key, dup := duplicateKey(raw); dup {
		return types.Message{}, fmt.Errorf("duplicate field %q", key)
	}

	role, err := stringField(fields, "role")
	if err != nil {
		return types.Message{}, err
	}
	content, err := stringField(fields, "content")
	if err != nil {
		return types.Message{}, err
	}

	return types.Message{Role: role, Content: content}, nil
}

// stringField returns fields[name] if it is a JSON string. A JSON null is
// rejected even though encoding/json would decode it into "".
func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", fmt.Errorf("%s must be a string", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

// duplicateKey reports the first key that appears more than once at the top
// level of body, which must already be known to hold a JSON object.
func duplicateKey(body []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return "", false
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, ok := tok.(string)
		if !ok {
			return "", false
		}
		if _, dup := seen[key]; dup {
			return key, true
		}
		seen[key] = struct{}{}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}
	return "", false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an OpenAI-compatible error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
