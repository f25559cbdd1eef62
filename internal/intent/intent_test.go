package intent

import (
	"testing"

	"github.com/parleyhq/parley/internal/models"
)

func TestClassify_Handoff(t *testing.T) {
	cases := []string{
		"I need to speak to a human",
		"can I talk to an agent?",
		"connect me to support",
		"this is an URGENT issue",
		"please escalate",
		"human agent now",
	}
	for _, utterance := range cases {
		t.Run(utterance, func(t *testing.T) {
			got := Classify(utterance, models.FlowNone)
			if got.Kind != KindHandoff {
				t.Errorf("Classify(%q) = %v, want HANDOFF", utterance, got.Kind)
			}
		})
	}
}

func TestClassify_HandoffPreemptsActiveFlow(t *testing.T) {
	got := Classify("I need to speak to a human", models.FlowDemo)
	if got.Kind != KindHandoff {
		t.Errorf("handoff mid-flow = %v, want HANDOFF", got.Kind)
	}
}

func TestClassify_ActiveFlowShortCircuits(t *testing.T) {
	// Intent keywords inside a free-text answer must not hijack the flow.
	got := Classify("I want a demo for my finance company", models.FlowCareer)
	if got.Kind != KindContinue {
		t.Fatalf("Classify with active flow = %v, want CONTINUE", got.Kind)
	}
	if got.Flow != models.FlowCareer {
		t.Errorf("CONTINUE flow = %v, want career", got.Flow)
	}
}

func TestClassify_TransactionalIntents(t *testing.T) {
	cases := []struct {
		utterance string
		want      models.FlowID
	}{
		{"I want a demo", models.FlowDemo},
		{"Can I see a demo?", models.FlowDemo},
		{"book a proof of concept", models.FlowDemo},
		{"show me a demo", models.FlowDemo},
		{"are you hiring?", models.FlowCareer},
		{"I'd like to submit my resume", models.FlowCareer},
		{"how do i apply", models.FlowCareer},
		{"any job openings?", models.FlowCareer},
		{"we have an RFP", models.FlowRFP},
		{"I want to upload our rfp", models.FlowRFP},
		{"request for proposal", models.FlowRFP},
		{"I want to contact sales", models.FlowContact},
		{"schedule a call", models.FlowContact},
		{"get in touch", models.FlowContact},
	}
	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			got := Classify(tc.utterance, models.FlowNone)
			if got.Kind != KindStart {
				t.Fatalf("Classify(%q) = %v, want START", tc.utterance, got.Kind)
			}
			if got.Flow != tc.want {
				t.Errorf("Classify(%q) flow = %v, want %v", tc.utterance, got.Flow, tc.want)
			}
		})
	}
}

func TestClassify_DeclarationOrderWins(t *testing.T) {
	// Matches both the demo and contact rule sets; demo is declared first.
	got := Classify("I want a demo, please schedule a call", models.FlowNone)
	if got.Kind != KindStart || got.Flow != models.FlowDemo {
		t.Errorf("got %+v, want START demo", got)
	}
}

func TestClassify_None(t *testing.T) {
	cases := []string{
		"what services do you offer?",
		"tell me about your company",
		"hello",
	}
	for _, utterance := range cases {
		got := Classify(utterance, models.FlowNone)
		if got.Kind != KindNone {
			t.Errorf("Classify(%q) = %v, want NONE", utterance, got.Kind)
		}
	}
}

func TestIsCancel(t *testing.T) {
	cases := []struct {
		utterance string
		want      bool
	}{
		{"cancel", true},
		{"  Cancel  ", true},
		{"never mind", true},
		{"nevermind", true},
		{"stop", true},
		{"forget it", true},
		{"quit", true},
		{"please stop sending me prompts about the budget", false},
		{"Acme Cancel Services Ltd", false},
		{"jane@example.com", false},
	}
	for _, tc := range cases {
		if got := IsCancel(tc.utterance); got != tc.want {
			t.Errorf("IsCancel(%q) = %v, want %v", tc.utterance, got, tc.want)
		}
	}
}
