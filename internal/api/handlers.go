// Package api provides HTTP handlers for Parley endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/util"
)

// chatResponse is the payload returned by the chat endpoint. The session id
// is echoed back so first-contact clients learn their allocated id.
type chatResponse struct {
	SessionID string `json:"session_id"`
	models.ChatResult
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = util.NewSessionID()
		slog.Debug("Server.chatHandler: allocated session id", "session", sessionID)
	}

	result := s.router.Route(r.Context(), sessionID, req.Message)
	slog.Info("Server.chatHandler: turn handled", "session", sessionID, "type", result.Type)
	writeJSONResponse(w, http.StatusOK, models.Success(chatResponse{SessionID: sessionID, ChatResult: result}))
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	session, err := s.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("Server.historyHandler: failed to load session", "error", err, "session", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(session.History))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	if err := s.sessions.DeleteSession(r.Context(), sessionID); err != nil {
		slog.Error("Server.deleteSessionHandler: failed to delete session", "error", err, "session", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	slog.Info("Server.deleteSessionHandler: session deleted", "session", sessionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

func (s *Server) listLeadsHandler(w http.ResponseWriter, r *http.Request) {
	status := models.LeadStatus(r.URL.Query().Get("status"))
	if status != "" && status != "ALL" && !models.IsValidLeadStatus(status) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid status filter"))
		return
	}
	if status == "ALL" {
		status = ""
	}
	leads, err := s.leads.ListLeads(r.Context(), status)
	if err != nil {
		slog.Error("Server.listLeadsHandler: failed to list leads", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list leads"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(leads))
}

func (s *Server) leadStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.leads.LeadStats(r.Context())
	if err != nil {
		slog.Error("Server.leadStatsHandler: failed to compute stats", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to compute statistics"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

func (s *Server) getLeadHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lead, err := s.leads.GetLead(r.Context(), id)
	if errors.Is(err, models.ErrLeadNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
		return
	}
	if err != nil {
		slog.Error("Server.getLeadHandler: failed to get lead", "error", err, "lead", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get lead"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(lead))
}

func (s *Server) updateLeadStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := r.PathValue("id")
	var body struct {
		Status models.LeadStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	err := s.leads.UpdateLeadStatus(r.Context(), id, body.Status)
	switch {
	case errors.Is(err, models.ErrLeadNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
	case errors.Is(err, models.ErrInvalidLeadStatus):
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid lead status"))
	case errors.Is(err, models.ErrInvalidTransition):
		writeJSONResponse(w, http.StatusConflict, models.Error("Invalid status transition"))
	case err != nil:
		slog.Error("Server.updateLeadStatusHandler: failed to update status", "error", err, "lead", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update lead status"))
	default:
		slog.Info("Server.updateLeadStatusHandler: status updated", "lead", id, "status", body.Status)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Status updated", nil))
	}
}

func (s *Server) updateLeadNotesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := r.PathValue("id")
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	err := s.leads.UpdateLeadNotes(r.Context(), id, body.Notes)
	switch {
	case errors.Is(err, models.ErrLeadNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
	case err != nil:
		slog.Error("Server.updateLeadNotesHandler: failed to update notes", "error", err, "lead", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update lead notes"))
	default:
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Notes updated", nil))
	}
}

func (s *Server) deleteLeadHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.leads.DeleteLead(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrLeadNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Error("Lead not found"))
	case err != nil:
		slog.Error("Server.deleteLeadHandler: failed to delete lead", "error", err, "lead", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete lead"))
	default:
		slog.Info("Server.deleteLeadHandler: lead deleted", "lead", id)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Lead deleted", nil))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}
