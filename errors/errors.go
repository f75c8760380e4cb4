package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"go.uber.org/zap"
)

// Error is used by handler functions to wrap errors, assigning a unique error code
// and also specifying which HTTP Status should be used.
type Error struct {
	Err        error  // Original error
	Code       int    // Error code
	HTTPstatus int    // HTTP status code to return
	LogLevel   string // Log level for this error (defaults to "debug")
	Data       any    // Optional data to include in the error response
}

// MarshalJSON returns the uniform error envelope used by every endpoint.
//
// Example output: {"success":false,"error":"user identifier is required","code":40001}
func (e Error) MarshalJSON() ([]byte, error) {
	// This anon struct is needed to actually include the error string,
	// since it wouldn't be marshaled otherwise. (json.Marshal doesn't call Err.Error())
	return json.Marshal(
		struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Code    int    `json:"code"`
			Data    any    `json:"data,omitempty"`
		}{
			Success: false,
			Error:   e.Err.Error(),
			Code:    e.Code,
			Data:    e.Data,
		})
}

// Error returns the message contained inside the API error.
func (e Error) Error() string {
	return e.Err.Error()
}

// Write serializes the error envelope into the response writer.
// It also logs the error with the appropriate level.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		zap.L().Warn("marshal error response failed", zap.Error(err))
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}

	// Get caller information for better logging
	pc, file, line, _ := runtime.Caller(1)
	caller := runtime.FuncForPC(pc).Name()

	if e.HTTPstatus >= 500 {
		// For internal errors, log the full error details
		zap.L().Error("API error response",
			zap.Int("status", e.HTTPstatus),
			zap.Int("code", e.Code),
			zap.String("caller", caller),
			zap.String("file", fmt.Sprintf("%s:%d", file, line)),
			zap.Error(e.Err))
	} else {
		msg := "API error response"
		fields := []zap.Field{
			zap.Int("status", e.HTTPstatus),
			zap.Int("code", e.Code),
			zap.String("caller", caller),
			zap.String("error", e.Error()),
		}
		switch e.LogLevel {
		case "info":
			zap.L().Info(msg, fields...)
		case "warn":
			zap.L().Warn(msg, fields...)
		default:
			zap.L().Debug(msg, fields...)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(msg); err != nil {
		zap.L().Warn("failed to write error response", zap.Error(err))
	}
}

// Withf returns a copy of Error with the Sprintf formatted string appended at the end of e.Err
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
		LogLevel:   e.LogLevel,
		Data:       e.Data,
	}
}

// With returns a copy of Error with the string appended at the end of e.Err
func (e Error) With(s string) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, s),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
		LogLevel:   e.LogLevel,
		Data:       e.Data,
	}
}

// WithErr returns a copy of Error with err.Error() appended at the end of e.Err.
// The original error is preserved for logging purposes.
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err.Error()),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
		LogLevel:   e.LogLevel,
		Data:       e.Data,
	}
}

// WithData returns a copy of Error carrying the given payload in the
// "data" field of the envelope.
func (e Error) WithData(data any) Error {
	return Error{
		Err:        e.Err,
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
		LogLevel:   e.LogLevel,
		Data:       data,
	}
}
