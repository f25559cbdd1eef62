// Package relevance maps knowledge snippets to canonical site URLs and
// filters the source lists shown with knowledge answers.
//
// Everything here is a pure function over fixed keyword tables. Scoring is
// count-based: a snippet maps to the category with the most distinct keyword
// hits, not to whichever category's keyword happens to appear first. The
// filtering pass default-excludes the case-studies category unless the user's
// own query asked for it; that asymmetry is deliberate, case-study wording
// shows up incidentally in snippets about unrelated topics.
package relevance

import (
	"sort"
	"strings"
)

const (
	// BaseURL is the site root, used as the fallback when no category scores.
	BaseURL = "https://www.instalogic.in/"
	// MaxSources caps the source list presented with one answer.
	MaxSources = 3
)

// Category is one destination category for knowledge snippets.
type Category string

const (
	CategoryServices    Category = "services"
	CategoryCaseStudies Category = "case-studies"
	CategoryCareers     Category = "careers"
	CategoryAbout       Category = "about"
	CategoryContact     Category = "contact"
)

// categoryOrder is the tie-break priority for URL mapping. Earlier wins.
var categoryOrder = []Category{
	CategoryServices,
	CategoryCaseStudies,
	CategoryCareers,
	CategoryAbout,
	CategoryContact,
}

// categoryKeywords is data, not code: tune the tables, not the functions.
var categoryKeywords = map[Category][]string{
	CategoryServices:    {"service", "offering", "solution", "capability", "what we do"},
	CategoryCaseStudies: {"case study", "case studies", "project", "client work", "success story"},
	CategoryCareers:     {"career", "job", "hiring", "position", "opening", "work with us", "join our team"},
	CategoryAbout:       {"about us", "our story", "history", "mission", "vision", "values"},
	CategoryContact:     {"contact", "reach us", "get in touch", "email", "phone", "address"},
}

var categoryURLs = map[Category]string{
	CategoryServices:    BaseURL + "our-services/",
	CategoryCaseStudies: BaseURL + "case-studies/",
	CategoryCareers:     BaseURL + "careers/",
	CategoryAbout:       BaseURL + "our-story/",
	CategoryContact:     BaseURL + "contact-us/",
}

// caseStudyAllowlist gates the case-studies category in FilterSources. Only a
// query containing one of these phrases lets case-study sources through.
var caseStudyAllowlist = []string{
	"case study",
	"case studies",
	"past work",
	"portfolio",
	"success story",
}

// Score counts the distinct category keywords contained in text,
// case-insensitive. Repeated occurrences of one keyword count once; a score
// is driven by keyword coverage, not by one incidental word repeating.
func Score(text string, category Category) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range categoryKeywords[category] {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// CategoryURL returns the canonical URL of the category scoring highest on
// text. Ties break by fixed priority order; an all-zero score falls back to
// the homepage.
func CategoryURL(text string) string {
	best := Category("")
	bestScore := 0
	for _, c := range categoryOrder {
		if s := Score(text, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore == 0 {
		return BaseURL
	}
	return categoryURLs[best]
}

// URLFor returns the canonical URL for a known category, or the homepage.
func URLFor(category Category) string {
	if u, ok := categoryURLs[category]; ok {
		return u
	}
	return BaseURL
}

// queryWantsCaseStudies reports whether the original user query explicitly
// asked about case studies.
func queryWantsCaseStudies(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range caseStudyAllowlist {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// FilterSources selects at most MaxSources URLs from the sources attributed
// to one answer's retrieved snippets. sources preserves retrieval order and
// may contain duplicates; duplicates raise a URL's rank. The case-studies URL
// is dropped unless the original query contains an explicit case-study
// phrase. Ranking is by per-source frequency, ties by first-seen order.
func FilterSources(query string, sources []string) []string {
	allowCaseStudies := queryWantsCaseStudies(query)
	caseStudiesURL := categoryURLs[CategoryCaseStudies]

	type ranked struct {
		url   string
		count int
	}
	var order []ranked
	index := make(map[string]int)

	for _, u := range sources {
		if u == "" {
			continue
		}
		if u == caseStudiesURL && !allowCaseStudies {
			continue
		}
		if pos, ok := index[u]; ok {
			order[pos].count++
			continue
		}
		index[u] = len(order)
		order = append(order, ranked{url: u, count: 1})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	var out []string
	for _, r := range order {
		out = append(out, r.url)
		if len(out) == MaxSources {
			break
		}
	}
	return out
}
