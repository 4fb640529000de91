// Package router decides which FAQ collections a question should be
// answered from by counting domain keywords.
package router

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"faqbot/internal/domain"
)

var (
	// DefaultPatentKeywords route a question to the patent collection.
	DefaultPatentKeywords = []string{"patent", "intellectual property", "ip", "invention", "patent application"}
	// DefaultBISKeywords route a question to the BIS collection. "certification"
	// is left out because both corpora use it.
	DefaultBISKeywords = []string{"bis", "bureau of indian standards", "standard", "quality"}
)

type Router struct {
	patent []string
	bis    []string
}

// New builds a router. Empty keyword lists fall back to the defaults.
func New(patent, bis []string) *Router {
	if len(patent) == 0 {
		patent = DefaultPatentKeywords
	}
	if len(bis) == 0 {
		bis = DefaultBISKeywords
	}
	return &Router{
		patent: lowerAll(patent),
		bis:    lowerAll(bis),
	}
}

// Route picks the collection(s) for query. The side with strictly more
// keyword hits wins, anything else goes to both.
func (r *Router) Route(query string) domain.Route {
	patent, bis := r.Scores(query)
	switch {
	case patent > bis:
		return domain.RoutePatent
	case bis > patent:
		return domain.RouteBIS
	default:
		return domain.RouteBoth
	}
}

// Scores returns the keyword hit counts for both domains.
func (r *Router) Scores(query string) (patent, bis int) {
	q := strings.ToLower(query)
	return countAll(q, r.patent), countAll(q, r.bis)
}

// Collections maps a route to collection names, patent first.
func Collections(route domain.Route) []string {
	return route.Collections()
}

func countAll(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += countOccurrences(text, kw)
	}
	return total
}

// countOccurrences counts non-overlapping matches of kw that begin at a
// word boundary. The end of the match is not checked, so "standards"
// counts as "standard".
func countOccurrences(text, kw string) int {
	if kw == "" {
		return 0
	}

	n := 0
	for i := 0; i <= len(text)-len(kw); {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			break
		}
		pos := i + j
		if atWordStart(text, pos) {
			n++
			i = pos + len(kw)
		} else {
			i = pos + 1
		}
	}
	return n
}

func atWordStart(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
