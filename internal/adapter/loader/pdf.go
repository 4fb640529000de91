package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts plain text from PDF files page by page.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load returns the text of every page followed by a newline. A page that
// cannot be decoded contributes nothing; the remaining pages are kept.
func (l *PDFLoader) Load(path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var content strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page, perr := pageText(r, i)
		if perr != nil {
			slog.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", perr)
			continue
		}
		content.WriteString(page)
		content.WriteString("\n")
	}

	return content.String(), nil
}

// LoadText is Load with errors logged and swallowed: an unreadable file
// yields empty text.
func (l *PDFLoader) LoadText(path string) string {
	text, err := l.Load(path)
	if err != nil {
		slog.Error("error loading pdf", "path", path, "error", err)
		return ""
	}
	return text
}

func pageText(r *pdf.Reader, num int) (text string, err error) {
	// The pdf package panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
