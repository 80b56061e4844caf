package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebhookHandler receives provider webhook POSTs, verifies the payload
// signature and hands the event to the dispatcher. Unknown event types are
// acknowledged so the provider does not retry them.
func (s *Server) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("webhook body read failed")
			webhookFailed(w)
			return
		}

		signature := r.Header.Get(WebhookSignatureHeader)
		if err := s.dispatcher.Handle(r.Context(), body, signature); err != nil {
			log.Error().Err(err).RawJSON("event", sanitizeRawEvent(body)).Msg("webhook processing failed")
			webhookFailed(w)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Webhook processed successfully",
		})
	}
}

// webhookFailed is deliberately generic: the payload may be attacker
// controlled, so no detail leaks back.
func webhookFailed(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "Failed to process webhook",
	})
}

// sanitizeRawEvent keeps log lines valid when the failure was a body that
// never parsed as JSON in the first place.
func sanitizeRawEvent(body []byte) []byte {
	if !json.Valid(body) {
		return []byte(`"<malformed>"`)
	}
	return body
}
