package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeEmbedder struct {
	dimension int
	provider  string
	err       error
	calls     int
}

func (f *fakeEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	texts, err := validate(texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dimension }
func (f *fakeEmbedder) Provider() string  { return f.provider }
func (f *fakeEmbedder) ModelName() string { return f.provider + "-model" }

func TestValidationErrors(t *testing.T) {
	embedders := map[string]interface {
		Generate(context.Context, []string) ([][]float32, error)
	}{
		"local":    NewLocalEmbedder(),
		"mock":     NewMockEmbedder(8),
		"fallback": NewFallbackEmbedder(context.Background(), nil, NewLocalEmbedder()),
	}

	for name, e := range embedders {
		for _, input := range [][]string{nil, {}, {"", "  "}, {"\n\t"}} {
			_, err := e.Generate(context.Background(), input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%s: expected ErrInvalidInput for %q, got %v", name, input, err)
			}
			if errors.Is(err, ErrProvider) {
				t.Errorf("%s: validation error must not be a provider error", name)
			}
		}
	}
}

func TestLocalEmbedderShapeAndOrder(t *testing.T) {
	e := NewLocalEmbedder()

	texts := []string{"patent filing fees", "", "BIS certification lasts 2 years", "   ", "a"}
	vectors, err := e.Generate(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}

	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors (one per non-blank text), got %d", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != LocalDimension {
			t.Errorf("vector %d: expected dimension %d, got %d", i, LocalDimension, len(v))
		}
		if math.Abs(norm(v)-1) > 1e-5 {
			t.Errorf("vector %d: expected unit norm, got %f", i, norm(v))
		}
	}

	single, _ := e.Generate(context.Background(), []string{"BIS certification lasts 2 years"})
	for i := range single[0] {
		if single[0][i] != vectors[1][i] {
			t.Fatal("expected order to be preserved and embeddings to be deterministic")
		}
	}
}

func TestLocalEmbedderSimilarity(t *testing.T) {
	e := NewLocalEmbedder()

	vectors, err := e.Generate(context.Background(), []string{
		"How long does BIS certification last?",
		"BIS certification lasts 2 years.",
		"Patent filing fees for startups",
	})
	if err != nil {
		t.Fatal(err)
	}

	related := dot(vectors[0], vectors[1])
	unrelated := dot(vectors[0], vectors[2])
	if related <= unrelated {
		t.Errorf("expected related texts to score higher: related=%f unrelated=%f", related, unrelated)
	}
}

func TestFallbackProbeFailureUsesLocal(t *testing.T) {
	remote := &fakeEmbedder{dimension: 1536, provider: "remote", err: errors.New("connection refused")}
	local := &fakeEmbedder{dimension: 384, provider: "local"}

	e := NewFallbackEmbedder(context.Background(), remote, local)
	if e.Provider() != "local" {
		t.Errorf("expected local provider, got %s", e.Provider())
	}
	if e.Dimension() != 384 {
		t.Errorf("expected dimension 384, got %d", e.Dimension())
	}

	if _, err := e.Generate(context.Background(), []string{"hello"}); err != nil {
		t.Fatal(err)
	}
	if remote.calls != 1 {
		t.Errorf("expected remote to be probed exactly once, got %d calls", remote.calls)
	}
}

func TestFallbackRuntimeSwitch(t *testing.T) {
	remote := &fakeEmbedder{dimension: 1536, provider: "remote"}
	local := &fakeEmbedder{dimension: 384, provider: "local"}

	e := NewFallbackEmbedder(context.Background(), remote, local)
	if e.Provider() != "remote" {
		t.Fatalf("expected remote provider after successful probe, got %s", e.Provider())
	}

	remote.err = errors.New("rate limited")
	vectors, err := e.Generate(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 384 {
		t.Errorf("expected 2 local vectors of dimension 384, got %d", len(vectors))
	}
	if e.Provider() != "local" {
		t.Errorf("expected provider flag to flip to local, got %s", e.Provider())
	}

	callsBefore := remote.calls
	e.Generate(context.Background(), []string{"three"})
	if remote.calls != callsBefore {
		t.Error("remote provider must not be retried after the switch")
	}
}

func TestFallbackKeepsRemoteOnCancelledContext(t *testing.T) {
	remote := &fakeEmbedder{dimension: 1536, provider: "remote"}
	local := &fakeEmbedder{dimension: 384, provider: "local"}

	e := NewFallbackEmbedder(context.Background(), remote, local)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	remote.err = ctx.Err()

	_, err := e.Generate(ctx, []string{"hello"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if e.Provider() != "remote" {
		t.Errorf("a cancelled call must not switch providers, got %s", e.Provider())
	}
	if local.calls != 0 {
		t.Errorf("expected no local calls, got %d", local.calls)
	}

	remote.err = nil
	vectors, err := e.Generate(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors[0]) != 1536 {
		t.Errorf("expected remote vectors after cancellation, got dimension %d", len(vectors[0]))
	}
}

func TestRemoteEmbedderWrapsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newRemoteEmbedder("test-key", "all-minilm", server.URL+"/v1")
	_, err := e.Generate(ctx, []string{"hello"})
	if !errors.Is(err, ErrProvider) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected ErrProvider wrapping context.Canceled, got %v", err)
	}
}

func TestFallbackLocalFailurePropagates(t *testing.T) {
	local := &fakeEmbedder{dimension: 384, provider: "local", err: errors.New("model crashed")}

	e := NewFallbackEmbedder(context.Background(), nil, local)
	if _, err := e.Generate(context.Background(), []string{"hello"}); err == nil {
		t.Error("expected local failure to propagate")
	}
}

func TestRemoteEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		// Reverse order to check that results are placed by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, 384)
			vec[0] = float32(i)
			data = append(data, item{Object: "embedding", Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "all-minilm"})
	}))
	defer server.Close()

	e := newRemoteEmbedder("test-key", "all-minilm", server.URL+"/v1")
	if e.Dimension() != 384 {
		t.Fatalf("expected dimension 384, got %d", e.Dimension())
	}

	vectors, err := e.Generate(context.Background(), []string{"a", " ", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, v[0])
		}
	}
}

func TestRemoteEmbedderProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"unknown model","type":"invalid_request_error"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	e := newRemoteEmbedder("test-key", "all-minilm", server.URL)
	_, err := e.Generate(context.Background(), []string{"hello"})
	if !errors.Is(err, ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
}

func TestNewRemoteEmbedderMissingKey(t *testing.T) {
	t.Setenv("FAQBOT_TEST_EMPTY_KEY", "")
	if _, err := NewRemoteEmbedder("FAQBOT_TEST_EMPTY_KEY", "text-embedding-3-small", ""); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestSelect(t *testing.T) {
	t.Setenv("FAQBOT_TEST_EMPTY_KEY", "")

	tests := []struct {
		name     string
		provider string
	}{
		{"local provider", "local"},
		{"missing key falls back", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Select(context.Background(), tt.provider, "text-embedding-3-small", "FAQBOT_TEST_EMPTY_KEY", "")
			info := e.Info()
			if info.Provider != "local" || info.Dimension != LocalDimension {
				t.Errorf("expected local embedder, got %+v", info)
			}
		})
	}
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
