package api

import (
	"fmt"
	"log/slog"
	"net/http"
)

// twilioWebhookHandler handles inbound Twilio WhatsApp messages. The sender's
// phone number doubles as the session id, so a WhatsApp conversation keeps
// its flow state across messages.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.twilioWebhookHandler: webhook received")

	if s.msgService == nil {
		slog.Warn("Server.twilioWebhookHandler: no messaging service configured")
		http.Error(w, "Messaging channel not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to parse form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("Server.twilioWebhookHandler: missing fields", "from", from)
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	sessionID, err := s.msgService.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Warn("Server.twilioWebhookHandler: invalid sender", "from", from, "error", err)
		http.Error(w, "Invalid sender", http.StatusBadRequest)
		return
	}

	result := s.router.Route(r.Context(), sessionID, body)
	slog.Info("Server.twilioWebhookHandler: turn handled", "session", sessionID, "type", result.Type)

	if err := s.msgService.SendMessage(r.Context(), sessionID, result.Text); err != nil {
		slog.Error("Server.twilioWebhookHandler: reply failed", "session", sessionID, "error", err)
		http.Error(w, "Failed to send reply", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
