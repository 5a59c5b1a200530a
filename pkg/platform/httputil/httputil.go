package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	dErrors "clientele/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Validatable is implemented by request structs that normalize and check
// themselves after decoding.
type Validatable interface {
	Normalize()
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any, meta map[string]any) {
	WriteJSON(w, status, Success(data, meta))
}

// WriteFailure writes an error envelope with an explicit status.
func WriteFailure(w http.ResponseWriter, status int, message string, details any) {
	WriteJSON(w, status, Failure(message, details))
}

// WriteError maps a domain error to its HTTP status and writes the error
// envelope. Internal failures get a generic message so details never leak.
func WriteError(w http.ResponseWriter, err error) {
	status, message, details := ErrorResponse(err)
	WriteFailure(w, status, message, details)
}

// ErrorResponse resolves the status, message and details for err.
func ErrorResponse(err error) (int, string, any) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, "Internal server error", nil
	}

	var details any
	if len(de.Fields) > 0 {
		details = de.Fields
	}
	switch de.Code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest, de.Message, details
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized, de.Message, nil
	case dErrors.CodeNotFound:
		return http.StatusNotFound, de.Message, nil
	case dErrors.CodeConflict:
		return http.StatusConflict, de.Message, details
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests, de.Message, nil
	default:
		return http.StatusInternalServerError, "Internal server error", nil
	}
}

// StatusFor returns the HTTP status WriteError would use for err.
func StatusFor(err error) int {
	status, _, _ := ErrorResponse(err)
	return status
}

// DecodeJSON reads a single JSON object from the body into v. Unknown fields
// are ignored.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return dErrors.New(dErrors.CodeBadRequest, "Request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "Request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON body")
	}
	return nil
}

// DecodeAndPrepare decodes the body into a new T and normalizes it. On
// failure the error envelope is already written and ok is false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := DecodeJSON(r, req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"error", err,
				"request_id", requestID,
				"type", fmt.Sprintf("%T", req),
			)
		}
		WriteError(w, err)
		return nil, false
	}
	req.Normalize()
	return req, true
}
