package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/parleyhq/parley/internal/flow"
	"github.com/parleyhq/parley/internal/knowledge"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

type stubRetriever struct{}

func (stubRetriever) Retrieve(ctx context.Context, query string) ([]models.KnowledgeCandidate, error) {
	return []models.KnowledgeCandidate{
		{Text: "our service offering is a complete solution"},
	}, nil
}

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, history []models.Turn) (string, error) {
	return g.text, g.err
}

func newTestRouter() (*Router, *store.InMemoryStore) {
	backing := store.NewInMemoryStore()
	engine := flow.NewEngine(backing)
	responder := knowledge.NewResponder(stubRetriever{}, stubGenerator{text: "We offer data analytics."})
	return New(backing, backing, engine, responder), backing
}

func TestRoute_FreshDemoIntent(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	got := r.Route(ctx, "s1", "I want a demo")
	if got.Type != models.ResponseTypeTransaction {
		t.Fatalf("type = %v, want transaction", got.Type)
	}
	if got.Flow != string(models.FlowDemo) {
		t.Errorf("flow = %q, want demo", got.Flow)
	}
	if !strings.Contains(got.Text, "industry") {
		t.Errorf("prompt = %q, want industry question", got.Text)
	}

	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Flow != models.FlowDemo || session.State.Step != "awaiting_industry" {
		t.Errorf("state = %+v", session.State)
	}
}

func TestRoute_ActiveFlowConsumesUtteranceAsData(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "s1", "I want a demo")
	r.Route(ctx, "s1", "Finance")
	// This utterance contains intent keywords but must be consumed as the name.
	r.Route(ctx, "s1", "I work for a finance company")

	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Flow != models.FlowDemo {
		t.Fatalf("flow hijacked: %+v", session.State)
	}
	if session.Get(flow.FieldName) != "I work for a finance company" {
		t.Errorf("name = %q", session.Get(flow.FieldName))
	}
}

func TestRoute_EmailStepAdvances(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "s1", "I want a demo")
	r.Route(ctx, "s1", "Finance")
	r.Route(ctx, "s1", "Jane")
	r.Route(ctx, "s1", "jane@example.com")

	session, _ := backing.GetSession(ctx, "s1")
	if session.Get(flow.FieldEmail) != "jane@example.com" {
		t.Errorf("email = %q", session.Get(flow.FieldEmail))
	}
	if session.State.Step != "awaiting_phone" {
		t.Errorf("step = %v, want awaiting_phone", session.State.Step)
	}
}

func TestRoute_HandoffPreemptsActiveFlow(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "s1", "I want a demo")
	r.Route(ctx, "s1", "Finance")

	got := r.Route(ctx, "s1", "I need to speak to a human")
	if got.Type != models.ResponseTypeHandoff {
		t.Fatalf("type = %v, want handoff", got.Type)
	}
	if got.TicketID == "" {
		t.Error("handoff must carry a ticket id")
	}

	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Active() {
		t.Errorf("state should reset to none, got %+v", session.State)
	}
	if len(session.Collected) != 0 {
		t.Errorf("partial demo data should be discarded, got %v", session.Collected)
	}

	all, _ := backing.ListLeads(ctx, "")
	if len(all) != 1 || all[0].Type != models.LeadTypeHumanHandoff {
		t.Errorf("leads = %+v", all)
	}
}

func TestRoute_HandoffWithoutFlow(t *testing.T) {
	r, _ := newTestRouter()
	got := r.Route(context.Background(), "s1", "please escalate this urgent issue")
	if got.Type != models.ResponseTypeHandoff {
		t.Errorf("type = %v, want handoff", got.Type)
	}
}

func TestRoute_KnowledgeFallback(t *testing.T) {
	r, _ := newTestRouter()
	got := r.Route(context.Background(), "s1", "what services do you offer?")
	if got.Type != models.ResponseTypeKnowledge {
		t.Fatalf("type = %v, want knowledge", got.Type)
	}
	if got.Text != "We offer data analytics." {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Sources) == 0 {
		t.Error("expected attributed sources")
	}
	if len(got.Actions) == 0 {
		t.Error("expected enrichment actions")
	}
}

func TestRoute_GenerationFailureDegrades(t *testing.T) {
	backing := store.NewInMemoryStore()
	engine := flow.NewEngine(backing)
	responder := knowledge.NewResponder(stubRetriever{}, stubGenerator{err: errors.New("down")})
	r := New(backing, backing, engine, responder)

	got := r.Route(context.Background(), "s1", "what do you do?")
	if got.Text != knowledge.FallbackText {
		t.Errorf("text = %q, want fallback", got.Text)
	}
	if len(got.Sources) != 0 {
		t.Errorf("fallback carries no sources, got %v", got.Sources)
	}
}

func TestRoute_CompletedFlowProducesOneLead(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	for _, msg := range []string{
		"I want a demo", "Finance", "Jane", "jane@example.com",
		"+91 98765 43210", "Google Search",
	} {
		r.Route(ctx, "s1", msg)
	}
	final := r.Route(ctx, "s1", "next Tuesday 4pm")

	if final.TicketID == "" {
		t.Fatal("missing ticket id")
	}
	all, _ := backing.ListLeads(ctx, "")
	if len(all) != 1 {
		t.Fatalf("lead count = %d, want 1", len(all))
	}
	if all[0].Status != models.LeadStatusNew || all[0].TicketID != final.TicketID {
		t.Errorf("lead = %+v", all[0])
	}

	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Active() {
		t.Errorf("session should be reset, got %+v", session.State)
	}
}

func TestRoute_RecordsHistory(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "s1", "hello there")
	session, _ := backing.GetSession(ctx, "s1")
	if len(session.History) != 2 {
		t.Fatalf("history len = %d, want 2", len(session.History))
	}
	if session.History[0].Role != models.RoleUser || session.History[0].Text != "hello there" {
		t.Errorf("history[0] = %+v", session.History[0])
	}
	if session.History[1].Role != models.RoleAssistant {
		t.Errorf("history[1] = %+v", session.History[1])
	}
}

func TestRoute_HistoryBounded(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		r.Route(ctx, "s1", "tell me something")
	}
	session, _ := backing.GetSession(ctx, "s1")
	if len(session.History) != models.MaxHistoryTurns {
		t.Errorf("history len = %d, want %d", len(session.History), models.MaxHistoryTurns)
	}
}

func TestRoute_MalformedStateSelfHeals(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	session, _ := backing.GetSession(ctx, "s1")
	session.State = models.FlowState{Flow: "no-such-flow", Step: "nowhere"}
	backing.PutSession(ctx, session)

	got := r.Route(ctx, "s1", "what services do you offer?")
	if got.Type != models.ResponseTypeKnowledge {
		t.Errorf("healed turn should fall through to knowledge, got %v", got.Type)
	}
	healed, _ := backing.GetSession(ctx, "s1")
	if healed.State.Active() {
		t.Errorf("state = %+v, want none", healed.State)
	}
}

func TestRoute_SessionsIndependent(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "a", "I want a demo")
	r.Route(ctx, "b", "are you hiring?")

	sa, _ := backing.GetSession(ctx, "a")
	sb, _ := backing.GetSession(ctx, "b")
	if sa.State.Flow != models.FlowDemo || sb.State.Flow != models.FlowCareer {
		t.Errorf("states = %+v / %+v", sa.State, sb.State)
	}
}

func TestRoute_ConcurrentSameSessionStaysConsistent(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	r.Route(ctx, "s1", "I want a demo")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Route(ctx, "s1", "Finance")
		}()
	}
	wg.Wait()

	// Serialized turns mean the flow advanced deterministically one step at
	// a time; the state must still name a real demo step.
	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Active() && session.State.Flow != models.FlowDemo {
		t.Errorf("state corrupted: %+v", session.State)
	}
}

func TestStartFlow_Direct(t *testing.T) {
	r, backing := newTestRouter()
	ctx := context.Background()

	got := r.StartFlow(ctx, "s1", models.FlowRFP)
	if got.Flow != string(models.FlowRFP) {
		t.Errorf("flow = %q", got.Flow)
	}
	session, _ := backing.GetSession(ctx, "s1")
	if session.State.Flow != models.FlowRFP {
		t.Errorf("state = %+v", session.State)
	}
}
