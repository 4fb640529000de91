package suggest

import (
	"reflect"
	"testing"
)

func TestStaticSuggest(t *testing.T) {
	s := NewStaticSuggester()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "patent",
			query: "How do I file a Patent?",
			want:  patentQuestions[:2],
		},
		{
			name:  "bis",
			query: "what is bis certification",
			want:  bisQuestions[:2],
		},
		{
			name:  "both capped at three",
			query: "patent vs BIS certification",
			want:  []string{patentQuestions[0], patentQuestions[1], bisQuestions[0]},
		},
		{
			name:  "no keyword",
			query: "hello",
			want:  []string{patentQuestions[0], bisQuestions[0]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Suggest(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q) = %v, want %v", tt.query, got, tt.want)
			}
			if len(got) > 3 {
				t.Errorf("more than 3 suggestions: %d", len(got))
			}
		})
	}
}

func TestStaticCategory(t *testing.T) {
	s := NewStaticSuggester()

	if got := s.Category("", CategoryPatent); len(got) != 8 || got[0] != patentQuestions[0] {
		t.Errorf("unexpected patent bank %v", got)
	}
	if got := s.Category("", CategoryBIS); len(got) != 8 || got[7] != bisQuestions[7] {
		t.Errorf("unexpected bis bank %v", got)
	}

	got := s.Category("my invention", CategoryAll)
	if len(got) != 6 || got[3] != patentQuestions[3] || got[4] != bisQuestions[0] {
		t.Errorf("unexpected patent-leaning mix %v", got)
	}

	got = s.Category("indian standard", CategoryAll)
	if len(got) != 6 || got[0] != bisQuestions[0] || got[5] != patentQuestions[1] {
		t.Errorf("unexpected bis-leaning mix %v", got)
	}

	got = s.Category("hello", CategoryAll)
	if len(got) != 6 || got[2] != patentQuestions[2] || got[3] != bisQuestions[0] {
		t.Errorf("unexpected even mix %v", got)
	}
}

func TestCategoryReturnsCopy(t *testing.T) {
	s := NewStaticSuggester()
	got := s.Category("", CategoryPatent)
	got[0] = "changed"
	if patentQuestions[0] == "changed" {
		t.Error("Category exposed the internal bank")
	}
}

func TestExampleQuestions(t *testing.T) {
	got := ExampleQuestions()
	if len(got) != 4 {
		t.Fatalf("expected 4 example questions, got %d", len(got))
	}
	if got[2] != "What is the validity period of a BIS certificate?" {
		t.Errorf("unexpected example %q", got[2])
	}
}

func TestTFIDFExactMatchFirst(t *testing.T) {
	s := NewTFIDFSuggester()
	s.Load(Bank())

	got := s.Suggest("How long does BIS certification take?", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	if got[0] != "How long does BIS certification take?" {
		t.Errorf("expected exact question first, got %v", got)
	}
}

func TestTFIDFRanksByOverlap(t *testing.T) {
	s := NewTFIDFSuggester()
	s.Load([]string{
		"renew certification",
		"patent trademark difference",
		"trademark registration",
	})

	got := s.Suggest("trademark difference", 2)
	want := []string{"patent trademark difference", "trademark registration"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTFIDFTiesPreferLaterEntries(t *testing.T) {
	s := NewTFIDFSuggester()
	s.Load([]string{"alpha question", "beta question", "gamma question"})

	got := s.Suggest("nothing in common", 2)
	want := []string{"gamma question", "beta question"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTFIDFEmptyBank(t *testing.T) {
	s := NewTFIDFSuggester()
	if got := s.Suggest("patent", 3); got == nil || len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}

	s.Load(nil)
	if got := s.Suggest("patent", 3); len(got) != 0 {
		t.Errorf("expected empty list after loading nothing, got %v", got)
	}
}

func TestTFIDFCapsK(t *testing.T) {
	s := NewTFIDFSuggester()
	s.Load([]string{"patent term", "bis mark"})
	if got := s.Suggest("patent", 10); len(got) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(got))
	}
}
