// Package knowledge: static corpus retriever.
//
// This file implements a Retriever over an embedded company knowledge
// document, for deployments without an external vector store. Sections are
// scored by query keyword overlap.
package knowledge

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	_ "embed"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/relevance"
)

//go:embed corpus.md
var corpus string

// DefaultMaxResults bounds how many sections one retrieval returns.
const DefaultMaxResults = 3

// StaticRetriever retrieves sections of the embedded knowledge document.
type StaticRetriever struct {
	sections   []string
	maxResults int
}

// NewStaticRetriever parses the embedded corpus into sections.
func NewStaticRetriever() *StaticRetriever {
	sections := splitSections(corpus)
	slog.Debug("StaticRetriever initialized", "sections", len(sections))
	return &StaticRetriever{sections: sections, maxResults: DefaultMaxResults}
}

// splitSections breaks the document on level-two headings. The heading line
// stays with its section so topic words in titles count toward the score.
func splitSections(doc string) []string {
	var sections []string
	var current []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			sections = append(sections, text)
		}
		current = nil
	}
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

// Retrieve scores each section by distinct query-word overlap and returns the
// best-matching sections as knowledge candidates.
func (r *StaticRetriever) Retrieve(ctx context.Context, query string) ([]models.KnowledgeCandidate, error) {
	words := queryWords(query)
	if len(words) == 0 {
		return nil, nil
	}

	type scored struct {
		text  string
		score int
	}
	var hits []scored
	for _, section := range r.sections {
		lower := strings.ToLower(section)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: section, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	var out []models.KnowledgeCandidate
	for _, h := range hits {
		out = append(out, models.KnowledgeCandidate{
			Text:  h.text,
			URL:   relevance.CategoryURL(h.text),
			Score: float64(h.score),
		})
		if len(out) == r.maxResults {
			break
		}
	}
	slog.Debug("StaticRetriever retrieved", "candidates", len(out))
	return out, nil
}

// queryWords extracts the distinct query terms worth matching. Short filler
// words are skipped.
func queryWords(query string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}
