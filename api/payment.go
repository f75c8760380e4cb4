package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zkerkeb-class/payment-services-MalicknND/errors"
)

// createSessionHandler starts a Stripe checkout session for the default
// credit package and returns the redirect URL to the caller.
func (a *API) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	req := &CreateSessionRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.UserID == "" {
		errors.ErrMissingUserID.Write(w)
		return
	}

	session, err := a.stripe.CreateCheckoutSession(req.UserID)
	if err != nil {
		zap.L().Error("failed to create checkout session",
			zap.String("userID", req.UserID),
			zap.Error(err))
		errors.ErrStripeError.WithErr(err).Write(w)
		return
	}

	httpWriteJSON(w, &CreateSessionInfo{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// sessionStatusHandler reports the payment status of a checkout session so
// the frontend can poll after the redirect back from Stripe.
func (a *API) sessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		errors.ErrMalformedURLParam.Withf("missing sessionID").Write(w)
		return
	}

	status, err := a.stripe.GetCheckoutSession(sessionID)
	if err != nil {
		errors.ErrStripeError.WithErr(err).Write(w)
		return
	}

	httpWriteJSON(w, status)
}
