// Package fs resolves document paths, globs and directories into the list of
// files to ingest.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches the PDFs found when a directory is given.
const DefaultInclude = "**/*.pdf"

type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{DefaultInclude}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Expand turns patterns into file paths. A glob is matched against the file
// system, a directory is walked for included files, and anything else is
// kept as a literal path so a missing file surfaces when it is loaded.
// Results keep pattern order and contain no duplicates.
func (w *Walker) Expand(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] || w.shouldExclude(filepath.ToSlash(path)) {
			return
		}
		seen[path] = true
		out = append(out, path)
	}

	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		if hasMeta(pattern) {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err == nil && info.IsDir() {
			files, err := w.Walk(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", pattern, err)
			}
			for _, f := range files {
				add(f.Path)
			}
			continue
		}

		add(pattern)
	}

	return out, nil
}

// Walk lists the included files under root.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
