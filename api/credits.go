package api

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zkerkeb-class/payment-services-MalicknND/errors"
	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
)

// getCreditsHandler returns the balance for a user. Never-seen users have
// balance 0 and cannot generate.
func (a *API) getCreditsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		errors.ErrMissingUserID.Write(w)
		return
	}

	balance, err := a.ledger.Balance(r.Context(), userID)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}

	httpWriteJSON(w, &CreditsInfo{
		UserID:      userID,
		Credits:     balance,
		CanGenerate: balance >= 1,
	})
}

// useCreditsHandler debits credits from a user. Insufficient funds is an
// expected business outcome answered with 402 and the current balance, so
// the caller can prompt for a purchase.
func (a *API) useCreditsHandler(w http.ResponseWriter, r *http.Request) {
	req := &UseCreditsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.UserID == "" {
		errors.ErrMissingUserID.Write(w)
		return
	}

	amount := int64(1)
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount < 1 {
		errors.ErrInvalidAmount.Write(w)
		return
	}

	remaining, err := a.ledger.Debit(r.Context(), req.UserID, amount)
	if err != nil {
		var insufficient *ledger.InsufficientFundsError
		switch {
		case goerrors.As(err, &insufficient):
			errors.ErrInsufficientCredits.WithData(&InsufficientCreditsData{
				CurrentCredits:  insufficient.Balance,
				RequiredCredits: insufficient.Required,
				CanGenerate:     false,
			}).Write(w)
		case goerrors.Is(err, ledger.ErrInvalidAmount):
			errors.ErrInvalidAmount.Write(w)
		default:
			errors.ErrInternalStorageError.WithErr(err).Write(w)
		}
		return
	}

	httpWriteJSON(w, &UseCreditsInfo{
		UserID:           req.UserID,
		CreditsUsed:      amount,
		RemainingCredits: remaining,
		CanGenerate:      remaining >= 1,
	})
}
