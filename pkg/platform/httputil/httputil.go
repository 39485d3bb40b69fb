// Package httputil holds the JSON request/response plumbing shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/requestcontext"
)

// maxBodyBytes caps JSON request bodies. Evidence files go through the blob
// upload route, never through JSON.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs checked before reaching services.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request DTOs that trim/canonicalize input.
// Normalize runs before Validate.
type Normalizable interface {
	Normalize()
}

// ErrorResponse is the body written for every rejected request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto an HTTP status and error body.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = dErrors.Message(err)
	}
	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeDependency:
		return http.StatusBadGateway
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON body into T, normalizes it when supported,
// and validates it. On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	p := PT(&req)
	if n, ok := any(p).(Normalizable); ok {
		n.Normalize()
	}
	if err := p.Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return p, true
}

// WriteServiceError logs err at a level matching its code and writes it.
// Caller mistakes log at Warn; dependency and internal failures at Error.
func WriteServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	code := dErrors.CodeOf(err)
	if StatusFor(code) >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg,
			"error", err,
			"error_code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		logger.WarnContext(ctx, msg,
			"error", err,
			"error_code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	WriteError(w, err)
}
