// Package logging builds the service's structured logger on log/slog.
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	slog.SetDefault(logger)
//
// Records logged through the *Context methods pick up the request id placed
// in the context by WithRequestID, so handlers do not have to thread it
// through every call:
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request completed") // includes request_id=req-123
package logging
