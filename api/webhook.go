package api

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zkerkeb-class/payment-services-MalicknND/errors"
	"github.com/zkerkeb-class/payment-services-MalicknND/stripe"
)

// maxWebhookBodyBytes caps the webhook payload size as recommended by
// Stripe to guard against oversize bodies.
const maxWebhookBodyBytes = int64(65536)

// handleWebhook receives the signed Stripe events. The raw body is read
// here because signature verification runs over the exact bytes on the
// wire. A 2xx acknowledges the event; any 5xx makes Stripe retry it.
func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		errors.ErrStripeWebhookError.Withf("stripe service not configured").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Warn("failed to read webhook request body", zap.Error(err))
		errors.ErrMalformedBody.WithErr(err).Write(w)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		errors.ErrInvalidSignature.Withf("missing Stripe-Signature header").Write(w)
		return
	}

	if err := a.stripe.ProcessWebhookEvent(r.Context(), payload, signature); err != nil {
		if stripe.IsClientError(err) {
			errors.ErrInvalidSignature.WithErr(err).Write(w)
			return
		}
		// anything past signature verification is our fault; answer 5xx
		// so Stripe redelivers the event
		errors.ErrStripeWebhookError.WithErr(err).Write(w)
		return
	}

	httpWriteRaw(w, map[string]bool{"received": true})
}
