// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server wraps the chat-completion handler as:
//
//	handler = Chain(handler,
//	    RecoveryMiddleware(logger),
//	    RequestIDMiddleware,
//	    tracing.HTTPMiddleware,
//	    LoggingMiddleware(logger),
//	)
//
// Recovery is outermost so a panic anywhere below it still produces a
// response. RequestID wraps logging so the completion line carries the ID.
//
// # Request ID
//
// RequestIDMiddleware reuses a well-formed client X-Request-ID or generates a
// UUID v4:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored in the context, echoed in the response header and added
// to every log record by the logging package's handler.
//
// # Recovery
//
// RecoveryMiddleware turns a handler panic into a 500 with an empty body and
// logs the stack trace. Nothing about the panic reaches the client.
package middleware
