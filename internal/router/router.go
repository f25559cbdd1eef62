// Package router is the top-level per-message decision layer.
//
// Every inbound utterance is handled in strict priority order: human handoff
// first, then continuation of an active flow, then a newly matched
// transactional intent, then the knowledge responder. Turns for one session
// are serialized on a per-session lock; different sessions proceed in
// parallel. No error or panic escapes Route; every branch yields a
// well-formed result.
package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parleyhq/parley/internal/flow"
	"github.com/parleyhq/parley/internal/intent"
	"github.com/parleyhq/parley/internal/knowledge"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

// Router routes inbound messages to the flow engine or knowledge responder.
type Router struct {
	sessions  store.SessionStore
	leads     store.LeadStore
	engine    *flow.Engine
	responder *knowledge.Responder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires a router from its collaborators.
func New(sessions store.SessionStore, leads store.LeadStore, engine *flow.Engine, responder *knowledge.Responder) *Router {
	return &Router{
		sessions:  sessions,
		leads:     leads,
		engine:    engine,
		responder: responder,
		locks:     make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing turns for one session id.
func (r *Router) sessionLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Route handles one message turn for a session.
func (r *Router) Route(ctx context.Context, sessionID, utterance string) (result models.ChatResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Router recovered from panic", "session", sessionID, "panic", rec)
			result = models.ChatResult{
				Type: models.ResponseTypeKnowledge,
				Text: knowledge.FallbackText,
			}
		}
	}()

	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		// The turn is still answered; only state continuity is lost.
		slog.Error("Router session load failed, using transient session", "session", sessionID, "error", err)
		session = models.NewSession(sessionID)
	}
	r.heal(session)

	cls := intent.Classify(utterance, session.State.Flow)
	slog.Debug("Router classified utterance", "session", sessionID, "kind", cls.Kind, "flow", cls.Flow)

	switch cls.Kind {
	case intent.KindHandoff:
		// Preempts any active flow; partial data is discarded.
		session.ClearFlow()
		result = flow.Escalate(ctx, r.leads, utterance)
	case intent.KindContinue:
		result = r.engine.Continue(ctx, session, utterance)
	case intent.KindStart:
		result = r.engine.Start(ctx, session, cls.Flow)
	default:
		result = r.responder.Answer(ctx, utterance, session.History)
	}

	session.AppendTurn(models.RoleUser, utterance)
	session.AppendTurn(models.RoleAssistant, result.Text)
	if err := r.sessions.PutSession(ctx, session); err != nil {
		slog.Error("Router session save failed", "session", sessionID, "error", err)
	}
	return result
}

// StartFlow begins a named flow directly, bypassing intent classification.
// Channel adapters use it when the user taps a start-flow action.
func (r *Router) StartFlow(ctx context.Context, sessionID string, flowID models.FlowID) models.ChatResult {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("Router session load failed, using transient session", "session", sessionID, "error", err)
		session = models.NewSession(sessionID)
	}
	result := r.engine.Start(ctx, session, flowID)
	session.AppendTurn(models.RoleAssistant, result.Text)
	if err := r.sessions.PutSession(ctx, session); err != nil {
		slog.Error("Router session save failed", "session", sessionID, "error", err)
	}
	return result
}

// heal resets session state the engine cannot interpret. An unknown flow
// behaves as no flow at all rather than erroring.
func (r *Router) heal(session *models.Session) {
	if session.State.Flow == models.FlowNone && session.State.Step == "" {
		return
	}
	if !r.engine.Known(session.State.Flow) {
		slog.Warn("Router healing malformed session state", "session", session.ID, "state", session.State)
		session.ClearFlow()
	}
}
