// Package proxy holds the inbound HTTP plumbing of the relay: request body
// parsing and validation, OpenAI-compatible error bodies, response writers
// and request metadata extraction.
//
// # Request Parsing
//
// ParseChatRequest enforces a body size limit and checks the minimal shape
// the relay needs:
//
//	{"messages": [{"role": "user", "content": "Hello!"}]}
//
// Other top-level keys (model, temperature, stream, ...) are ignored. Roles
// are opaque strings.
//
// # Error Handling
//
// Malformed requests are answered before anything is sent upstream, with a
// 4xx status and an OpenAI-style body:
//
//	{
//	  "error": {
//	    "message": "messages is required",
//	    "type": "invalid_request_error",
//	    "param": "messages",
//	    "code": "missing_field"
//	  }
//	}
//
// Codes are invalid_json, missing_field, invalid_value, invalid_message
// (400) and request_too_large (413). Upstream failures are not request
// errors: HandleError returns nil for them and the caller writes an empty
// 500 with WriteEmpty.
//
// # Middleware
//
// Cross-cutting HTTP concerns (request IDs, access logging, panic recovery)
// live in the middleware subpackage.
package proxy
