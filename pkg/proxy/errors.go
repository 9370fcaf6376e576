package proxy

import (
	"errors"

	"gaia-relay/llamagate/pkg/proxy/types"
)

// HandleError converts an inbound request error to an OpenAI-compatible
// error response. It returns nil for anything that is not a *RequestError:
// those are server-side failures and are answered with 500 and no body.
//
// Example usage:
//
//	if errResp := HandleError(err); errResp != nil {
//	    WriteErrorResponse(w, errResp)
//	} else {
//	    WriteEmpty(w, http.StatusInternalServerError)
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}
	return nil
}
