package router

import (
	"reflect"
	"testing"

	"faqbot/internal/domain"
)

func TestRoute(t *testing.T) {
	r := New(nil, nil)

	tests := []struct {
		query string
		want  domain.Route
	}{
		{"What is BIS certification?", domain.RouteBIS},
		{"What is a patent and how is BIS certification different", domain.RouteBoth},
		{"How do I protect my invention with a patent?", domain.RoutePatent},
		{"Which quality standards does the Bureau of Indian Standards publish?", domain.RouteBIS},
		{"hello there", domain.RouteBoth},
		{"", domain.RouteBoth},
		{"PATENT", domain.RoutePatent},
	}

	for _, tt := range tests {
		if got := r.Route(tt.query); got != tt.want {
			t.Errorf("Route(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestScoresCountRepeats(t *testing.T) {
	r := New(nil, nil)

	patent, bis := r.Scores("patent patent patent bis")
	if patent != 3 || bis != 1 {
		t.Errorf("expected 3/1, got %d/%d", patent, bis)
	}
}

func TestScoresPatentApplication(t *testing.T) {
	r := New(nil, nil)

	patent, bis := r.Scores("How do I file a patent application?")
	if patent != 2 || bis != 0 {
		t.Errorf("expected patent and patent application to both count, got %d/%d", patent, bis)
	}
	if got := r.Route("How do I file a patent application?"); got != domain.RoutePatent {
		t.Errorf("expected patent route, got %s", got)
	}
}

func TestScoresWordBoundary(t *testing.T) {
	r := New(nil, nil)

	patent, _ := r.Scores("our relationship with the shipping company")
	if patent != 0 {
		t.Errorf("ip matched inside another word: %d", patent)
	}

	patent, _ = r.Scores("is my ip safe")
	if patent != 1 {
		t.Errorf("expected standalone ip to count, got %d", patent)
	}

	_, bis := r.Scores("indian standards")
	if bis != 1 {
		t.Errorf("expected prefix match on standards, got %d", bis)
	}
}

func TestCustomKeywords(t *testing.T) {
	r := New([]string{"Trademark"}, []string{"ISI mark"})

	if got := r.Route("Is a trademark enough?"); got != domain.RoutePatent {
		t.Errorf("expected patent route, got %s", got)
	}
	if got := r.Route("where is the isi mark printed"); got != domain.RouteBIS {
		t.Errorf("expected bis route, got %s", got)
	}
}

func TestCollections(t *testing.T) {
	tests := []struct {
		route domain.Route
		want  []string
	}{
		{domain.RoutePatent, []string{domain.PatentCollection}},
		{domain.RouteBIS, []string{domain.BISCollection}},
		{domain.RouteBoth, []string{domain.PatentCollection, domain.BISCollection}},
	}

	for _, tt := range tests {
		if got := Collections(tt.route); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Collections(%s) = %v, want %v", tt.route, got, tt.want)
		}
	}
}
