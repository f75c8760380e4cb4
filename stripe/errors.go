package stripe

import (
	"fmt"
)

// StripeError represents a Stripe-specific error
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Common Stripe errors
var (
	ErrInvalidEvent          = &StripeError{Code: "invalid_event", Message: "invalid webhook event"}
	ErrWebhookValidation     = &StripeError{Code: "webhook_validation", Message: "webhook signature validation failed"}
	ErrMalformedMetadata     = &StripeError{Code: "malformed_metadata", Message: "event metadata is missing required fields"}
	ErrEventAlreadyProcessed = &StripeError{Code: "event_already_processed", Message: "webhook event already processed"}
	ErrAPICallFailed         = &StripeError{Code: "api_call_failed", Message: "stripe API call failed"}
	ErrLedgerUnavailable     = &StripeError{Code: "ledger_unavailable", Message: "credit ledger operation failed"}
	ErrInvalidConfiguration  = &StripeError{Code: "invalid_configuration", Message: "invalid stripe configuration"}
)

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsClientError reports whether the error should be answered with a 4xx:
// the delivery itself was untrusted or unparsable, so a provider retry
// with the same payload cannot succeed.
func IsClientError(err error) bool {
	if stripeErr, ok := err.(*StripeError); ok {
		switch stripeErr.Code {
		case "webhook_validation", "invalid_event":
			return true
		default:
			return false
		}
	}
	return false
}

// IsRetryableError determines if an error is retryable by the provider:
// answering 5xx makes Stripe redeliver the event later.
func IsRetryableError(err error) bool {
	if stripeErr, ok := err.(*StripeError); ok {
		switch stripeErr.Code {
		case "api_call_failed", "ledger_unavailable":
			return true
		default:
			return false
		}
	}
	return false
}
