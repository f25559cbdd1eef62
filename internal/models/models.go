// Package models defines the core data structures for Parley.
//
// It includes the chat turn request/response types shared across the router,
// flow engine, knowledge responder, and API modules.
package models

import (
	"errors"
	"strings"
)

// ResponseType classifies the outcome of a single chat turn.
type ResponseType string

const (
	// ResponseTypeKnowledge indicates the turn was answered from the knowledge base.
	ResponseTypeKnowledge ResponseType = "knowledge"
	// ResponseTypeTransaction indicates the turn advanced or started a transactional flow.
	ResponseTypeTransaction ResponseType = "transaction"
	// ResponseTypeHandoff indicates the turn escalated to a human channel.
	ResponseTypeHandoff ResponseType = "handoff"
)

// Validation constants for input validation
const (
	// MaxUtteranceLength defines the maximum allowed length for an inbound message
	MaxUtteranceLength = 4096
	// MaxSessionIDLength defines the maximum allowed length for a session identifier
	MaxSessionIDLength = 128
	// MaxActionsPerResponse caps the number of suggested actions on any response
	MaxActionsPerResponse = 4
	// MaxSourcesPerResponse caps the number of source URLs on a knowledge response
	MaxSourcesPerResponse = 3
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID    = errors.New("session id cannot be empty")
	ErrSessionIDTooLong  = errors.New("session id exceeds maximum length")
	ErrEmptyUtterance    = errors.New("message cannot be empty")
	ErrUtteranceTooLong  = errors.New("message exceeds maximum length")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrInvalidLeadStatus = errors.New("invalid lead status")
	ErrInvalidTransition = errors.New("invalid lead status transition")
)

// ActionKind describes what a suggested action does when selected.
type ActionKind string

const (
	// ActionOpenLink opens an external URL.
	ActionOpenLink ActionKind = "open_link"
	// ActionStartFlow names a flow-start intent for the router to recognize on the next turn.
	ActionStartFlow ActionKind = "start_flow"
	// ActionShowContact surfaces a contact channel (phone or email value).
	ActionShowContact ActionKind = "show_contact"
	// ActionQuickReply sends the value back as the next utterance.
	ActionQuickReply ActionKind = "quick_reply"
)

// Action is a suggested button attached to a response. It either links
// externally, proposes starting a flow, or echoes a quick-reply value.
type Action struct {
	Label string     `json:"label"`
	Kind  ActionKind `json:"kind"`
	URL   string     `json:"url,omitempty"`
	Flow  string     `json:"flow,omitempty"`
	Value string     `json:"value,omitempty"`
}

// ChatRequest is the inbound payload for a single message turn.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// Validate checks a ChatRequest for well-formedness. An empty session id is
// allowed; the API allocates one.
func (r *ChatRequest) Validate() error {
	if len(r.SessionID) > MaxSessionIDLength {
		return ErrSessionIDTooLong
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyUtterance
	}
	if len(r.Message) > MaxUtteranceLength {
		return ErrUtteranceTooLong
	}
	return nil
}

// ChatResult is the structured outcome of one routed turn.
type ChatResult struct {
	Type     ResponseType `json:"type"`
	Text     string       `json:"text"`
	Flow     string       `json:"flow,omitempty"`
	Step     int          `json:"step,omitempty"`
	Steps    int          `json:"total_steps,omitempty"`
	Sources  []string     `json:"sources,omitempty"`
	Actions  []Action     `json:"suggested_actions,omitempty"`
	TicketID string       `json:"ticket_id,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
