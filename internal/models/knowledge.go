// Package models defines the knowledge retrieval structures consumed by the
// relevance scorer and the knowledge responder.
package models

// SourceCategory is a fixed destination category for knowledge snippets.
type SourceCategory string

const (
	CategoryServices    SourceCategory = "services"
	CategoryCaseStudies SourceCategory = "case-studies"
	CategoryCareers     SourceCategory = "careers"
	CategoryAbout       SourceCategory = "about"
	CategoryContact     SourceCategory = "contact"
)

// KnowledgeCandidate is one retrieved snippet with its attributed source.
// The URL may be empty when the retriever cannot resolve one; the responder
// then maps the snippet text to a canonical URL via the relevance scorer.
type KnowledgeCandidate struct {
	Text     string         `json:"text"`
	Category SourceCategory `json:"category,omitempty"`
	URL      string         `json:"url,omitempty"`
	Score    float64        `json:"score,omitempty"`
}
