package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/pokegraph/pkg/loader"

	lpdf "github.com/ledongthuc/pdf"
)

var reNewlines = regexp.MustCompile(`\n{3,}`)

// PDFGraphLoader loads PDF files and extracts their plain text content.
type PDFGraphLoader struct {
	loader loader.GraphFileLoader
	cache  *loader.Cache
}

// NewPDFGraphLoader creates a PDF loader that reads the raw document through
// the given loader.
func NewPDFGraphLoader(source loader.GraphFileLoader) *PDFGraphLoader {
	return &PDFGraphLoader{
		loader: source,
		cache:  loader.NewCache(),
	}
}

// GetFileText extracts text from a PDF file.
func (l *PDFGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Do(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return ParsePDF(content)
	})
}

// GetBase64 returns the PDF encoded as base64.
func (l *PDFGraphLoader) GetBase64(ctx context.Context, file loader.GraphFile) (loader.GraphBase64, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return loader.GraphBase64{}, err
	}
	return loader.EncodeBase64(file.FilePath, content), nil
}

// ParsePDF returns the plain text of all pages with runs of blank lines
// collapsed.
func ParsePDF(input []byte) ([]byte, error) {
	r, err := lpdf.NewReader(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	out, err := io.ReadAll(plain)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\r\n", "\n"))
	text = reNewlines.ReplaceAllString(text, "\n\n")
	if text != "" {
		text += "\n"
	}
	return []byte(text), nil
}
