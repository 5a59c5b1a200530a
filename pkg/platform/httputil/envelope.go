package httputil

import (
	"maps"
	"time"
)

// SuccessEnvelope wraps every successful response body.
type SuccessEnvelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// ErrorBody carries the user-facing failure message and optional details.
type ErrorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed response body.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Success builds {success:true, data, metadata:{timestamp, ...meta}}.
// A "timestamp" key in meta is overwritten.
func Success(data any, meta map[string]any) SuccessEnvelope {
	return SuccessAt(data, meta, time.Now())
}

// SuccessAt is Success with an explicit timestamp.
func SuccessAt(data any, meta map[string]any, now time.Time) SuccessEnvelope {
	md := make(map[string]any, len(meta)+1)
	maps.Copy(md, meta)
	md["timestamp"] = now.UTC()
	return SuccessEnvelope{Success: true, Data: data, Metadata: md}
}

// Failure builds {success:false, error:{message, details?}, timestamp}.
func Failure(message string, details any) ErrorEnvelope {
	return FailureAt(message, details, time.Now())
}

// FailureAt is Failure with an explicit timestamp.
func FailureAt(message string, details any, now time.Time) ErrorEnvelope {
	return ErrorEnvelope{
		Success:   false,
		Error:     ErrorBody{Message: message, Details: details},
		Timestamp: now.UTC(),
	}
}
