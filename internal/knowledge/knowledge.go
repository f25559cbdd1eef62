// Package knowledge answers free-form questions from the retrieval and
// generation collaborators.
//
// The responder is mostly an adapter: it forwards the query and a bounded
// history window to the collaborators, attributes each retrieved snippet to a
// canonical source URL, filters the source list, and asks the enricher for
// suggested actions. Collaborator failures degrade to a fixed fallback text
// instead of retrying.
package knowledge

import (
	"context"
	"log/slog"

	"github.com/parleyhq/parley/internal/enrich"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/relevance"
)

// SystemPrompt instructs the generation collaborator to answer in first
// person and stay short.
const SystemPrompt = `You are InstaLogic's AI assistant. You represent the company directly.

CRITICAL RULES:
1. Speak in FIRST PERSON - use "we", "our", "us" (NOT "InstaLogic's")
2. NEVER say "Based on the context provided" or similar phrases
3. Keep responses SHORT (2-3 sentences max)
4. Use bullet points for lists (max 4 items)
5. Be natural and conversational

Be brief, warm, and professional.`

// FallbackText is returned when generation fails. No sources accompany it.
const FallbackText = "I'm sorry, I'm having trouble answering that right now. Please try again in a moment, or ask to speak with our team."

// Retriever fetches knowledge candidates for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.KnowledgeCandidate, error)
}

// Generator produces answer text from a prompt and conversation history.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, history []models.Turn) (string, error)
}

// Responder answers knowledge queries.
type Responder struct {
	retriever Retriever
	generator Generator
}

// NewResponder wires a responder from its collaborators.
func NewResponder(retriever Retriever, generator Generator) *Responder {
	return &Responder{retriever: retriever, generator: generator}
}

// Answer handles one knowledge turn. It never returns an error; collaborator
// failures produce the fallback result instead.
func (r *Responder) Answer(ctx context.Context, query string, history []models.Turn) models.ChatResult {
	var candidates []models.KnowledgeCandidate
	if r.retriever != nil {
		var err error
		candidates, err = r.retriever.Retrieve(ctx, query)
		if err != nil {
			slog.Warn("Knowledge retrieval failed, answering without context", "error", err)
			candidates = nil
		}
	}

	text, err := r.generator.Generate(ctx, promptWithContext(candidates), query, history)
	if err != nil {
		slog.Error("Knowledge generation failed, degrading to fallback", "error", err)
		return models.ChatResult{
			Type: models.ResponseTypeKnowledge,
			Text: FallbackText,
		}
	}

	var attributed []string
	for _, c := range candidates {
		url := c.URL
		if url == "" {
			url = relevance.CategoryURL(c.Text)
		}
		attributed = append(attributed, url)
	}

	result := models.ChatResult{
		Type:    models.ResponseTypeKnowledge,
		Text:    text,
		Sources: relevance.FilterSources(query, attributed),
		Actions: enrich.Actions(query, text),
	}
	slog.Debug("Knowledge answer produced", "sources", len(result.Sources), "actions", len(result.Actions))
	return result
}

// promptWithContext appends retrieved snippets to the system prompt.
func promptWithContext(candidates []models.KnowledgeCandidate) string {
	if len(candidates) == 0 {
		return SystemPrompt
	}
	prompt := SystemPrompt + "\n\nRETRIEVED CONTEXT:\n"
	for _, c := range candidates {
		prompt += c.Text + "\n\n"
	}
	return prompt + "Use the above context to answer the user's question. If the context doesn't contain relevant information, use your general knowledge about the company."
}
