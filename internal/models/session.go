// Package models defines session state structures for Parley conversations.
package models

import "time"

// FlowID names a transactional flow.
type FlowID string

// StepID names a step within a flow.
type StepID string

// FieldKey names a collected field within a flow.
type FieldKey string

// Flow identifiers for the shipped flows.
const (
	FlowNone    FlowID = ""
	FlowDemo    FlowID = "demo"
	FlowCareer  FlowID = "career"
	FlowRFP     FlowID = "rfp"
	FlowContact FlowID = "contact"
)

// FlowState is the tagged (flow, step) pair identifying where a session is
// inside a multi-turn flow. The zero value means no flow is active.
type FlowState struct {
	Flow FlowID `json:"flow,omitempty"`
	Step StepID `json:"step,omitempty"`
}

// Active reports whether a flow is in progress.
func (fs FlowState) Active() bool {
	return fs.Flow != FlowNone && fs.Step != ""
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one recorded message in the session history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// MaxHistoryTurns bounds the per-session history window passed to the
// generation collaborator (10 user + 10 assistant turns).
const MaxHistoryTurns = 20

// Session holds per-conversation state: the in-flight flow (if any), the
// fields collected so far for that flow attempt, retry bookkeeping, and a
// bounded history window.
type Session struct {
	ID          string              `json:"id"`
	State       FlowState           `json:"state"`
	Collected   map[FieldKey]string `json:"collected,omitempty"`
	Retries     int                 `json:"retries,omitempty"` // rejections on the current step
	History     []Turn              `json:"history,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	LastUpdated time.Time           `json:"last_updated"`
}

// NewSession creates a fresh session with no active flow.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		Collected:   make(map[FieldKey]string),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// ClearFlow resets the session to the no-flow state and discards the fields
// collected for the current attempt. History is kept.
func (s *Session) ClearFlow() {
	s.State = FlowState{}
	s.Collected = make(map[FieldKey]string)
	s.Retries = 0
}

// Set records a collected field value for the current flow attempt.
func (s *Session) Set(key FieldKey, value string) {
	if s.Collected == nil {
		s.Collected = make(map[FieldKey]string)
	}
	s.Collected[key] = value
}

// Get returns a collected field value, or "" if absent.
func (s *Session) Get(key FieldKey) string {
	if s.Collected == nil {
		return ""
	}
	return s.Collected[key]
}

// AppendTurn records a history turn, trimming the window to MaxHistoryTurns.
func (s *Session) AppendTurn(role Role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}
