package relevance

import (
	"reflect"
	"strings"
	"testing"
)

func TestScore_DistinctKeywordsOnly(t *testing.T) {
	// "service" repeated should count once; distinct keywords add up.
	if got := Score("service service service", CategoryServices); got != 1 {
		t.Errorf("repeated keyword score = %d, want 1", got)
	}
	if got := Score("our service is a solution offering", CategoryServices); got != 3 {
		t.Errorf("distinct keyword score = %d, want 3", got)
	}
	if got := Score("nothing relevant here", CategoryServices); got != 0 {
		t.Errorf("no-match score = %d, want 0", got)
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	if got := Score("Our SERVICE Offering", CategoryServices); got != 2 {
		t.Errorf("score = %d, want 2", got)
	}
}

func TestCategoryURL(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "services beats incidental case-study keyword",
			text: "We provide a full service offering, a complete solution for any project",
			want: URLFor(CategoryServices),
		},
		{
			name: "case studies on its own terms",
			text: "This case study describes client work on a dashboard project, a real success story",
			want: URLFor(CategoryCaseStudies),
		},
		{
			name: "careers",
			text: "We are hiring! See every open position on our career page and join our team",
			want: URLFor(CategoryCareers),
		},
		{
			name: "homepage fallback on zero score",
			text: "completely unrelated text",
			want: BaseURL,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CategoryURL(tc.text); got != tc.want {
				t.Errorf("CategoryURL(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestCategoryURL_Monotonic(t *testing.T) {
	// Adding one more unique services keyword never makes services lose.
	base := "our service offering covers every solution"
	if got := CategoryURL(base); got != URLFor(CategoryServices) {
		t.Fatalf("base text should map to services, got %q", got)
	}
	stronger := base + " and shows what we do"
	if got := CategoryURL(stronger); got != URLFor(CategoryServices) {
		t.Errorf("adding a services keyword changed the winner to %q", got)
	}
}

func TestCategoryURL_TieBreakByPriority(t *testing.T) {
	// One keyword each for services and contact: services is higher priority.
	text := "email us about a service"
	if got := CategoryURL(text); got != URLFor(CategoryServices) {
		t.Errorf("tie break = %q, want services URL", got)
	}
}

func TestFilterSources_CaseStudiesDefaultExcluded(t *testing.T) {
	sources := []string{
		URLFor(CategoryServices),
		URLFor(CategoryCaseStudies),
		URLFor(CategoryCareers),
	}
	got := FilterSources("what services do you offer", sources)
	want := []string{URLFor(CategoryServices), URLFor(CategoryCareers)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterSources = %v, want %v", got, want)
	}
}

func TestFilterSources_AllowlistAdmitsCaseStudies(t *testing.T) {
	sources := []string{
		URLFor(CategoryServices),
		URLFor(CategoryCaseStudies),
		URLFor(CategoryCareers),
	}
	got := FilterSources("show me your past work", sources)
	found := false
	for _, u := range got {
		if u == URLFor(CategoryCaseStudies) {
			found = true
		}
	}
	if !found {
		t.Errorf("query with 'past work' should admit case-studies, got %v", got)
	}
}

func TestFilterSources_FrequencyRankingAndCap(t *testing.T) {
	sources := []string{
		URLFor(CategoryAbout),
		URLFor(CategoryServices),
		URLFor(CategoryServices),
		URLFor(CategoryContact),
		URLFor(CategoryCareers),
	}
	got := FilterSources("tell me about the company", sources)
	if len(got) != MaxSources {
		t.Fatalf("len = %d, want %d", len(got), MaxSources)
	}
	if got[0] != URLFor(CategoryServices) {
		t.Errorf("most frequent source should rank first, got %q", got[0])
	}
	// Equal-count sources keep first-seen order.
	if got[1] != URLFor(CategoryAbout) || got[2] != URLFor(CategoryContact) {
		t.Errorf("tie order = %v, want about then contact", got[1:])
	}
}

func TestFilterSources_OnlyCaseStudiesIsGated(t *testing.T) {
	// A contact source passes without any contact phrase in the query.
	got := FilterSources("random question", []string{URLFor(CategoryContact)})
	if len(got) != 1 || got[0] != URLFor(CategoryContact) {
		t.Errorf("non-case-study sources must pass ungated, got %v", got)
	}
}

func TestFilterSources_Empty(t *testing.T) {
	if got := FilterSources("anything", nil); got != nil {
		t.Errorf("FilterSources(nil) = %v, want nil", got)
	}
}

func TestURLsShareBase(t *testing.T) {
	for _, c := range []Category{CategoryServices, CategoryCaseStudies, CategoryCareers, CategoryAbout, CategoryContact} {
		if !strings.HasPrefix(URLFor(c), BaseURL) {
			t.Errorf("URL for %s does not start with base URL: %q", c, URLFor(c))
		}
	}
}
