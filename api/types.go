package api

import "time"

// CreditsInfo is the balance payload returned by the credit read endpoint.
type CreditsInfo struct {
	UserID      string `json:"userId"`
	Credits     int64  `json:"credits"`
	CanGenerate bool   `json:"canGenerate"`
}

// UseCreditsRequest is the debit request body. A nil Amount defaults to 1.
type UseCreditsRequest struct {
	UserID string `json:"userId"`
	Amount *int64 `json:"amount,omitempty"`
}

// UseCreditsInfo is the payload returned by a successful debit.
type UseCreditsInfo struct {
	UserID           string `json:"userId"`
	CreditsUsed      int64  `json:"creditsUsed"`
	RemainingCredits int64  `json:"remainingCredits"`
	CanGenerate      bool   `json:"canGenerate"`
}

// InsufficientCreditsData rides in the error envelope of a 402 response so
// the caller can decide whether to prompt for a purchase.
type InsufficientCreditsData struct {
	CurrentCredits  int64 `json:"currentCredits"`
	RequiredCredits int64 `json:"requiredCredits"`
	CanGenerate     bool  `json:"canGenerate"`
}

// CreateSessionRequest is the checkout initiation body.
type CreateSessionRequest struct {
	UserID string `json:"userId"`
}

// CreateSessionInfo carries the provider redirect for a new checkout session.
type CreateSessionInfo struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// HealthInfo is the liveness/metadata payload.
type HealthInfo struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}
