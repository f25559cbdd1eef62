// Package enrich attaches suggested actions to knowledge answers.
//
// Topic detection runs over the user query plus the generated answer against
// a fixed topic keyword table. Matched topics contribute their action sets in
// table order, capped at four actions total. The enricher only proposes
// actions; starting a flow from one of them is the router's business on the
// next turn.
package enrich

import (
	"strings"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/relevance"
)

// Topic is one detectable subject area in a conversation turn.
type Topic string

const (
	TopicCareers     Topic = "careers"
	TopicDemo        Topic = "demo"
	TopicServices    Topic = "services"
	TopicCaseStudies Topic = "case_studies"
	TopicPricing     Topic = "pricing"
	TopicContact     Topic = "contact"
	TopicTechnical   Topic = "technical"
	TopicProcurement Topic = "procurement"
)

// topicOrder fixes the match priority: earlier topics contribute actions
// first when several match.
var topicOrder = []Topic{
	TopicCareers,
	TopicDemo,
	TopicServices,
	TopicCaseStudies,
	TopicPricing,
	TopicContact,
	TopicTechnical,
	TopicProcurement,
}

var topicKeywords = map[Topic][]string{
	TopicCareers:     {"job", "career", "hiring", "apply", "resume", "position", "opening", "work at"},
	TopicDemo:        {"demo", "demonstration", "poc", "proof of concept", "trial", "sandbox"},
	TopicServices:    {"service", "offering", "capability", "solution", "provide", "deliver"},
	TopicCaseStudies: {"case study", "case studies", "past work", "project", "client example"},
	TopicPricing:     {"price", "cost", "pricing", "budget", "estimate", "quotation"},
	TopicContact:     {"contact", "reach", "phone", "email", "address", "location", "office"},
	TopicTechnical:   {"tool", "technology", "framework", "database", "integration", "api"},
	TopicProcurement: {"rfp", "proposal", "tender", "procurement", "bid"},
}

var topicActions = map[Topic][]models.Action{
	TopicCareers: {
		{Label: "View Open Positions", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryCareers)},
		{Label: "Apply Now", Kind: models.ActionStartFlow, Flow: string(models.FlowCareer)},
	},
	TopicDemo: {
		{Label: "Request Demo", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
		{Label: "Request PoC", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
	},
	TopicServices: {
		{Label: "View All Services", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryServices)},
		{Label: "Request Demo", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
		{Label: "Contact Sales", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
	},
	TopicCaseStudies: {
		{Label: "View Case Studies", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryCaseStudies)},
		{Label: "Request Demo", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
	},
	TopicPricing: {
		{Label: "Get Quote", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
		{Label: "Request Estimate", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
	},
	TopicContact: {
		{Label: "Schedule Call", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
		{Label: "Contact Us", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryContact)},
	},
	TopicTechnical: {
		{Label: "Request Demo", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
		{Label: "View All Services", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryServices)},
	},
	TopicProcurement: {
		{Label: "Upload RFP", Kind: models.ActionStartFlow, Flow: string(models.FlowRFP)},
		{Label: "Request NDA", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
	},
}

// defaultActions apply when no topic matches at all.
var defaultActions = []models.Action{
	{Label: "View Services", Kind: models.ActionOpenLink, URL: relevance.URLFor(relevance.CategoryServices)},
	{Label: "Request Demo", Kind: models.ActionStartFlow, Flow: string(models.FlowDemo)},
	{Label: "Contact Sales", Kind: models.ActionStartFlow, Flow: string(models.FlowContact)},
}

// DetectTopics returns the matched topics in table order.
func DetectTopics(text string) []Topic {
	lower := strings.ToLower(text)
	var matched []Topic
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				matched = append(matched, topic)
				break
			}
		}
	}
	return matched
}

// Actions builds the suggested-action set for one knowledge turn from the
// user query and the generated answer. The result never exceeds
// models.MaxActionsPerResponse.
func Actions(query, answer string) []models.Action {
	topics := DetectTopics(query + " " + answer)

	var out []models.Action
	for _, topic := range topics {
		out = append(out, topicActions[topic]...)
	}
	if len(out) == 0 {
		out = append(out, defaultActions...)
	}
	if len(out) > models.MaxActionsPerResponse {
		out = out[:models.MaxActionsPerResponse]
	}
	return out
}
