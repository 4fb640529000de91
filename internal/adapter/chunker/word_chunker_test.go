package chunker

import (
	"strings"
	"testing"
)

func TestWordChunkerBasic(t *testing.T) {
	chunker := NewWordChunker(40, 0)

	text := `What is a patent? A patent is an exclusive right granted for an invention,
which is a product or a process that provides a new way of doing something.`

	chunks := chunker.Chunks(text, "/data/patent.pdf")
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	for i, chunk := range chunks {
		if chunk.Text == "" {
			t.Error("chunk has empty text")
		}
		if chunk.Metadata.ChunkID != i {
			t.Errorf("expected chunk id %d, got %d", i, chunk.Metadata.ChunkID)
		}
		if chunk.Metadata.Source != "/data/patent.pdf" {
			t.Errorf("expected source '/data/patent.pdf', got '%s'", chunk.Metadata.Source)
		}
	}
}

func TestWordChunkerSizeBound(t *testing.T) {
	text := strings.Repeat("certification standards hallmarking licence inspection ", 60)

	for _, size := range []int{10, 50, 100, 1000} {
		chunker := NewWordChunker(size, 0)
		for _, chunk := range chunker.Split(text) {
			words := strings.Fields(chunk)
			last := words[len(words)-1]
			if len(chunk) > size+len(last) {
				t.Errorf("size %d: chunk length %d exceeds bound %d", size, len(chunk), size+len(last))
			}
		}
	}
}

func TestWordChunkerRoundTrip(t *testing.T) {
	text := "The  BIS\tcertification\nlasts 2 years.\n\nRenewal requires a fresh application and fee."
	chunker := NewWordChunker(12, 0)

	var rebuilt []string
	for _, chunk := range chunker.Split(text) {
		rebuilt = append(rebuilt, strings.Fields(chunk)...)
	}

	original := strings.Fields(text)
	if len(rebuilt) != len(original) {
		t.Fatalf("expected %d words, got %d", len(original), len(rebuilt))
	}
	for i := range original {
		if rebuilt[i] != original[i] {
			t.Errorf("word %d: expected %q, got %q", i, original[i], rebuilt[i])
		}
	}
}

func TestWordChunkerTrailingPartial(t *testing.T) {
	chunker := NewWordChunker(10, 0)

	chunks := chunker.Split("aaaaaaaaaa bb")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[1] != "bb" {
		t.Errorf("expected trailing chunk 'bb', got %q", chunks[1])
	}
}

func TestWordChunkerEmpty(t *testing.T) {
	chunker := NewWordChunker(100, 0)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		if chunks := chunker.Split(text); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %v", text, chunks)
		}
	}
}

func TestWordChunkerOverlap(t *testing.T) {
	chunker := NewWordChunker(10, 1)

	chunks := chunker.Split("alpha bravo charlie delta echo")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		if cur[0] != prev[len(prev)-1] {
			t.Errorf("chunk %d should start with %q, got %q", i, prev[len(prev)-1], cur[0])
		}
	}
}

func TestWordChunkerOverlapTerminates(t *testing.T) {
	chunker := NewWordChunker(1, 5)

	chunks := chunker.Split("one two three")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
}
