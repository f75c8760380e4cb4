package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// successEnvelope is the uniform wrapper of every successful API response.
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// httpWriteJSON writes the payload wrapped in the success envelope.
func httpWriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data}); err != nil {
		zap.L().Warn("failed to write on response", zap.Error(err))
	}
}

// httpWriteRaw writes a payload without the envelope. Used by the webhook
// acknowledgment and the health probe, whose formats are fixed.
func httpWriteRaw(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to write on response", zap.Error(err))
	}
}
