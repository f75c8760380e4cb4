// Package errors provides custom error types and definitions for the application.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the caller's fault,
// and they return HTTP Status 400, 402, 404 or 405, whatever is most appropriate.
//
// Error codes 50000-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXXX or 5XXXX.
// There's no correlation between Code and HTTP Status beyond the leading digit.
var (
	// Caller errors (400)
	ErrMissingUserID     = Error{Code: 40001, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("user identifier is required")}
	ErrMalformedBody     = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrInvalidAmount     = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("amount must be a positive integer")}
	ErrMalformedURLParam = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrInvalidSignature  = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("webhook signature verification failed"), LogLevel: "warn"}

	// Expected business outcomes (402)
	ErrInsufficientCredits = Error{Code: 40201, HTTPstatus: http.StatusPaymentRequired, Err: fmt.Errorf("insufficient credits"), LogLevel: "info"}

	// Not found errors (404)
	ErrPackageNotFound = Error{Code: 40401, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("credit package not found")}
	ErrRouteNotFound   = Error{Code: 40402, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("route not found")}

	// Method errors (405)
	ErrMethodNotAllowed = Error{Code: 40501, HTTPstatus: http.StatusMethodNotAllowed, Err: fmt.Errorf("method not allowed")}

	// Server errors (500) - These should be used sparingly and only for true internal errors
	ErrGenericInternalServerError = Error{Code: 50000, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrStripeWebhookError         = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: stripe webhook failed"), LogLevel: "error"}
	ErrStripeError                = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: payment processing failed"), LogLevel: "error"}
	ErrInternalStorageError       = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: storage operation failed"), LogLevel: "error"}
)
