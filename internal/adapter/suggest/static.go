// Package suggest offers follow-up questions from fixed question banks.
package suggest

import "strings"

// Category names accepted by StaticSuggester.Category.
const (
	CategoryPatent = "patent"
	CategoryBIS    = "bis"
	CategoryAll    = "all"
)

const maxSuggestions = 3

var patentQuestions = []string{
	"What is the patent application process?",
	"How long does patent protection last?",
	"What are the costs involved in patent filing?",
	"What are the requirements for patentability?",
	"How do I check if my invention is patentable?",
	"What is the difference between a patent and a trademark?",
	"Can I file a patent internationally?",
	"What happens after I file a patent application?",
}

var bisQuestions = []string{
	"What is the BIS certification process?",
	"How long does BIS certification take?",
	"What are the costs of BIS certification?",
	"Which products need BIS certification?",
	"How do I apply for BIS certification?",
	"What are BIS quality standards?",
	"How to renew BIS certification?",
	"What documents are required for BIS certification?",
}

var exampleQuestions = []string{
	"What is the process of applying for a patent?",
	"How long does it take to get a patent granted?",
	"What is the validity period of a BIS certificate?",
	"How can I get BIS certification for my product?",
}

var (
	suggestPatentKeywords  = []string{"patent", "invention", "intellectual property"}
	suggestBISKeywords     = []string{"bis", "certification", "standard"}
	categoryPatentKeywords = []string{"patent", "invention", "ip"}
)

// StaticSuggester picks follow-ups by plain keyword containment.
type StaticSuggester struct{}

func NewStaticSuggester() *StaticSuggester {
	return &StaticSuggester{}
}

// Suggest returns at most three follow-up questions, patent ones first.
func (s *StaticSuggester) Suggest(query string) []string {
	q := strings.ToLower(query)

	var out []string
	if containsAny(q, suggestPatentKeywords) {
		out = append(out, patentQuestions[:2]...)
	}
	if containsAny(q, suggestBISKeywords) {
		out = append(out, bisQuestions[:2]...)
	}
	if len(out) == 0 {
		out = []string{patentQuestions[0], bisQuestions[0]}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Category returns the question bank for a sidebar category. For "all" the
// mix leans towards whichever domain the query mentions.
func (s *StaticSuggester) Category(query, category string) []string {
	switch category {
	case CategoryPatent:
		return clone(patentQuestions)
	case CategoryBIS:
		return clone(bisQuestions)
	}

	q := strings.ToLower(query)
	switch {
	case containsAny(q, categoryPatentKeywords):
		return concat(patentQuestions[:4], bisQuestions[:2])
	case containsAny(q, suggestBISKeywords):
		return concat(bisQuestions[:4], patentQuestions[:2])
	default:
		return concat(patentQuestions[:3], bisQuestions[:3])
	}
}

// Bank returns every question of both banks, patent first. It is the corpus
// the TF-IDF suggester ranks over.
func Bank() []string {
	return concat(patentQuestions, bisQuestions)
}

// ExampleQuestions is the fixed menu shown before the first question.
func ExampleQuestions() []string {
	return clone(exampleQuestions)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
