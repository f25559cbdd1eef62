// Package flow implements the multi-turn transactional flows.
//
// All flows run on one generic linear machine parameterized by a Definition:
// an ordered chain of steps, each collecting one field. A step may carry a
// validator (rejection re-prompts, never advances) and a branch hook that
// redirects to a follow-up step based on the answer, which is how the demo
// flow asks for a custom industry when "Other" is picked. The terminal step
// synthesizes a Lead, persists it, and resets the session.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parleyhq/parley/internal/intent"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/util"
)

// MaxFieldRetries bounds validator rejections on one step. The next
// rejection escalates to a human instead of re-prompting forever.
const MaxFieldRetries = 3

// Support contact channels surfaced on handoff responses.
const (
	SupportEmail = "support@instalogic.in"
	SupportPhone = "+91-XXX-XXX-XXXX"
)

// Step is one field-collecting turn in a flow.
type Step struct {
	ID     models.StepID
	Field  models.FieldKey
	Prompt func(s *models.Session) string
	// Buttons are quick replies offered with the prompt.
	Buttons []models.Action
	// Validate rejects a value with an explanation used to re-prompt.
	Validate func(value string) error
	// Branch redirects to another step based on the raw value. A redirect
	// consumes the value without recording it.
	Branch func(value string) (models.StepID, bool)
	// Next names the following step. Empty means terminal.
	Next models.StepID
	// Num is the user-visible step number. Branch follow-ups share the
	// number of the step they refine.
	Num int
}

// Definition is one named flow: a linear step chain ending in a Lead.
type Definition struct {
	Name       models.FlowID
	Steps      []Step
	TotalSteps int
	// Synthesize builds the Lead persisted when the flow completes.
	Synthesize func(s *models.Session, ticketID string) models.Lead
	// Confirm builds the completion message and follow-up actions.
	Confirm func(s *models.Session, ticketID string) (string, []models.Action)
	// CancelText acknowledges an aborted flow.
	CancelText string
}

func (d *Definition) step(id models.StepID) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

// Engine drives flow definitions against session state.
type Engine struct {
	defs  map[models.FlowID]*Definition
	leads store.LeadStore
}

// NewEngine creates an engine with the shipped flow definitions.
func NewEngine(leads store.LeadStore) *Engine {
	e := &Engine{defs: make(map[models.FlowID]*Definition), leads: leads}
	for _, d := range []*Definition{demoDefinition(), careerDefinition(), rfpDefinition(), contactDefinition()} {
		e.defs[d.Name] = d
	}
	return e
}

// Known reports whether a flow id has a definition.
func (e *Engine) Known(flow models.FlowID) bool {
	_, ok := e.defs[flow]
	return ok
}

// Start initializes a flow on the session and emits the first prompt. The
// triggering utterance is classification input, never field data.
func (e *Engine) Start(ctx context.Context, session *models.Session, flow models.FlowID) models.ChatResult {
	def, ok := e.defs[flow]
	if !ok {
		slog.Error("Flow Start with unknown flow", "flow", flow)
		session.ClearFlow()
		return restartResult()
	}
	session.ClearFlow()
	first := def.Steps[0]
	session.State = models.FlowState{Flow: def.Name, Step: first.ID}
	slog.Info("Flow started", "flow", def.Name, "session", session.ID)
	return e.promptResult(def, &first, session)
}

// Continue consumes one utterance as the value for the awaited field.
func (e *Engine) Continue(ctx context.Context, session *models.Session, utterance string) models.ChatResult {
	def, ok := e.defs[session.State.Flow]
	if !ok {
		slog.Warn("Flow Continue with unknown flow state, self-healing", "flow", session.State.Flow, "session", session.ID)
		session.ClearFlow()
		return restartResult()
	}

	if intent.IsCancel(utterance) {
		slog.Info("Flow cancelled", "flow", def.Name, "session", session.ID)
		session.ClearFlow()
		return models.ChatResult{
			Type: models.ResponseTypeTransaction,
			Flow: string(def.Name),
			Text: def.CancelText,
		}
	}

	step := def.step(session.State.Step)
	if step == nil {
		slog.Warn("Flow Continue with unknown step, self-healing", "flow", def.Name, "step", session.State.Step, "session", session.ID)
		session.ClearFlow()
		return restartResult()
	}

	value := strings.TrimSpace(utterance)
	if err := validateValue(step, value, session); err != nil {
		session.Retries++
		slog.Debug("Flow field rejected", "flow", def.Name, "step", step.ID, "retries", session.Retries, "reason", err)
		if session.Retries >= MaxFieldRetries {
			slog.Info("Flow retry limit reached, escalating", "flow", def.Name, "step", step.ID, "session", session.ID)
			session.ClearFlow()
			return Escalate(ctx, e.leads, utterance)
		}
		return models.ChatResult{
			Type:    models.ResponseTypeTransaction,
			Flow:    string(def.Name),
			Text:    err.Error(),
			Actions: step.Buttons,
			Step:    step.Num,
			Steps:   def.TotalSteps,
		}
	}
	session.Retries = 0

	if step.Branch != nil {
		if target, ok := step.Branch(value); ok {
			next := def.step(target)
			if next == nil {
				slog.Error("Flow branch to unknown step", "flow", def.Name, "target", target)
				session.ClearFlow()
				return restartResult()
			}
			session.State.Step = next.ID
			return e.promptResult(def, next, session)
		}
	}

	if step.Field != "" {
		session.Set(step.Field, value)
	}

	if step.Next == "" {
		return e.complete(ctx, def, session)
	}

	next := def.step(step.Next)
	if next == nil {
		slog.Error("Flow step chain broken", "flow", def.Name, "step", step.ID, "next", step.Next)
		session.ClearFlow()
		return restartResult()
	}
	session.State.Step = next.ID
	return e.promptResult(def, next, session)
}

// complete runs the terminal transition: synthesize the Lead, persist it,
// reset the session, confirm with the ticket id. A failed save keeps the
// collected data in the session so the same attempt can be retried.
func (e *Engine) complete(ctx context.Context, def *Definition, session *models.Session) models.ChatResult {
	ticketID := util.NewTicketID()
	lead := def.Synthesize(session, ticketID)

	if _, err := e.leads.SaveLead(ctx, lead); err != nil {
		slog.Error("Flow lead save failed, retaining session state", "flow", def.Name, "session", session.ID, "error", err)
		return models.ChatResult{
			Type:  models.ResponseTypeTransaction,
			Flow:  string(def.Name),
			Text:  "I couldn't save your request just now. Please send your last answer again in a moment.",
			Step:  def.TotalSteps,
			Steps: def.TotalSteps,
		}
	}

	text, actions := def.Confirm(session, ticketID)
	session.ClearFlow()
	slog.Info("Flow completed", "flow", def.Name, "session", session.ID, "ticket_id", ticketID)
	return models.ChatResult{
		Type:     models.ResponseTypeTransaction,
		Flow:     string(def.Name),
		Text:     text,
		Actions:  actions,
		TicketID: ticketID,
		Step:     def.TotalSteps,
		Steps:    def.TotalSteps,
	}
}

func (e *Engine) promptResult(def *Definition, step *Step, session *models.Session) models.ChatResult {
	return models.ChatResult{
		Type:    models.ResponseTypeTransaction,
		Flow:    string(def.Name),
		Text:    step.Prompt(session),
		Actions: step.Buttons,
		Step:    step.Num,
		Steps:   def.TotalSteps,
	}
}

func validateValue(step *Step, value string, session *models.Session) error {
	if value == "" {
		return fmt.Errorf("I didn't catch that. %s", step.Prompt(session))
	}
	if step.Validate != nil {
		return step.Validate(value)
	}
	return nil
}

func restartResult() models.ChatResult {
	return models.ChatResult{
		Type: models.ResponseTypeTransaction,
		Text: "I'm sorry, something went wrong with that request. Let's start over. What would you like to do?",
	}
}

// Escalate handles a human handoff: persist a HUMAN_HANDOFF lead, allocate a
// ticket, and answer with contact-channel actions. A failed lead save is
// logged but never blocks the escalation.
func Escalate(ctx context.Context, leads store.LeadStore, query string) models.ChatResult {
	ticketID := util.NewTicketID()
	lead := models.Lead{
		Type:     models.LeadTypeHumanHandoff,
		Name:     "Urgent Request",
		Contact:  "See chat history",
		Info:     "User requested human assistance: " + query,
		Status:   models.LeadStatusNew,
		TicketID: ticketID,
		Metadata: map[string]string{
			"original_query": query,
			"priority":       "high",
		},
	}
	if leads != nil {
		if _, err := leads.SaveLead(ctx, lead); err != nil {
			slog.Warn("Handoff lead save failed", "ticket_id", ticketID, "error", err)
		}
	}
	slog.Info("Escalated to human", "ticket_id", ticketID)
	return models.ChatResult{
		Type: models.ResponseTypeHandoff,
		Text: fmt.Sprintf("I understand you'd like to speak with a human agent. Let me connect you with our support team right away.\n\nYour escalation ticket ID is %s. A team member will contact you shortly.", ticketID),
		Actions: []models.Action{
			{Label: "Call Us", Kind: models.ActionShowContact, Value: SupportPhone},
			{Label: "Email Us", Kind: models.ActionShowContact, Value: SupportEmail},
		},
		TicketID: ticketID,
	}
}
