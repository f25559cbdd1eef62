package enrich

import (
	"testing"

	"github.com/parleyhq/parley/internal/models"
)

func TestDetectTopics(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []Topic
	}{
		{"careers", "are you hiring data analysts?", []Topic{TopicCareers}},
		{"demo", "can I see a demo of the dashboard", []Topic{TopicDemo}},
		{"pricing", "what does a typical project cost?", []Topic{TopicCaseStudies, TopicPricing}},
		{"none", "hello there", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectTopics(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("DetectTopics(%q) = %v, want %v", tc.text, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("topic[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestActions_CapAtFour(t *testing.T) {
	// Query hits careers, demo, and services; combined action sets exceed 4.
	got := Actions("I want a demo of your services and a job", "")
	if len(got) != models.MaxActionsPerResponse {
		t.Fatalf("len = %d, want %d", len(got), models.MaxActionsPerResponse)
	}
	// Careers is first in table order, so its actions lead.
	if got[0].Label != "View Open Positions" {
		t.Errorf("first action = %q, want careers action first", got[0].Label)
	}
}

func TestActions_DefaultSet(t *testing.T) {
	got := Actions("hello", "hi, how can I help?")
	if len(got) != 3 {
		t.Fatalf("default set len = %d, want 3", len(got))
	}
	if got[0].Kind != models.ActionOpenLink || got[1].Kind != models.ActionStartFlow {
		t.Errorf("unexpected default actions: %+v", got)
	}
}

func TestActions_ProcurementProposesRFPFlow(t *testing.T) {
	got := Actions("we have a tender coming up", "")
	found := false
	for _, a := range got {
		if a.Kind == models.ActionStartFlow && a.Flow == string(models.FlowRFP) {
			found = true
		}
	}
	if !found {
		t.Errorf("procurement topic should propose the rfp flow, got %+v", got)
	}
}

func TestActions_AnswerTextCounts(t *testing.T) {
	// Topic keyword appears only in the generated answer.
	got := Actions("tell me more", "We offer dashboards, integration work, and API development.")
	found := false
	for _, a := range got {
		if a.Kind == models.ActionStartFlow && a.Flow == string(models.FlowDemo) {
			found = true
		}
	}
	if !found {
		t.Errorf("technical topic from answer text should propose a demo, got %+v", got)
	}
}
