package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "patent.pdf"))
	touch(t, filepath.Join(root, "bis", "june.pdf"))
	touch(t, filepath.Join(root, "bis", "notes.txt"))
	touch(t, filepath.Join(root, "archive", "old.txt"))

	w := NewWalker(nil, []string{"**/archive/**"})

	t.Run("glob", func(t *testing.T) {
		got, err := w.Expand([]string{filepath.Join(root, "**", "*.pdf")})
		if err != nil {
			t.Fatal(err)
		}
		want := []string{
			filepath.Join(root, "bis", "june.pdf"),
			filepath.Join(root, "patent.pdf"),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("directory", func(t *testing.T) {
		touch(t, filepath.Join(root, "archive", "old.pdf"))
		defer os.Remove(filepath.Join(root, "archive", "old.pdf"))

		got, err := w.Expand([]string{root})
		if err != nil {
			t.Fatal(err)
		}
		want := []string{
			filepath.Join(root, "bis", "june.pdf"),
			filepath.Join(root, "patent.pdf"),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("literal and duplicates", func(t *testing.T) {
		missing := filepath.Join(root, "missing.pdf")
		patent := filepath.Join(root, "patent.pdf")
		got, err := w.Expand([]string{patent, missing, patent})
		if err != nil {
			t.Fatal(err)
		}
		want := []string{patent, missing}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestWalkIncludes(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.txt"))

	files, err := NewWalker([]string{"*.txt"}, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "b.txt" {
		t.Errorf("unexpected files %+v", files)
	}
}
