// Package httputil maps domain errors to HTTP responses and provides small
// JSON helpers shared by all handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	derrors "clearcheck/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into an HTTP error response.
// Internal errors omit the description so infrastructure details never
// reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != derrors.CodeInternal {
		resp.ErrorDescription = derrors.MessageOf(err)
	}
	WriteJSON(w, statusFor(code), resp)
}

func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeBadRequest, derrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses the JSON request body into T. On failure it writes a
// bad_request response and returns ok=false; handlers should simply return.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "malformed request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, derrors.New(derrors.CodeBadRequest, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return v, true
}
