package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/OFFIS-RIT/pokegraph/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
)

// WebGraphLoader loads content from web URLs and extracts readable text.
// For HTML pages, it uses readability to extract the main content.
//
// A file path that is not an http(s) URL is treated as a link file whose
// first line holds the URL; it is read through the source loader.
type WebGraphLoader struct {
	source loader.GraphFileLoader
	client *http.Client
	cache  *loader.Cache
}

// NewWebGraphLoader creates a web loader. source may be nil when only
// direct URLs are loaded.
func NewWebGraphLoader(source loader.GraphFileLoader, client *http.Client) *WebGraphLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebGraphLoader{
		source: source,
		client: client,
		cache:  loader.NewCache(),
	}
}

func (l *WebGraphLoader) resolveURL(ctx context.Context, file loader.GraphFile) (string, error) {
	if strings.HasPrefix(file.FilePath, "http://") || strings.HasPrefix(file.FilePath, "https://") {
		return file.FilePath, nil
	}
	if l.source == nil {
		return "", fmt.Errorf("no source loader to read link file %s", file.FilePath)
	}
	content, err := l.source.GetFileText(ctx, file)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(content)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("link file %s is empty", file.FilePath)
	}
	return line, nil
}

func (l *WebGraphLoader) fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}
	return resp, nil
}

// GetFileText fetches a URL and extracts readable text content.
// For HTML pages, it uses readability to extract the main article content.
func (l *WebGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Do(loader.CacheKey(file), func() ([]byte, error) {
		rawURL, err := l.resolveURL(ctx, file)
		if err != nil {
			return nil, err
		}

		resp, err := l.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, "text/html") {
			return io.ReadAll(resp.Body)
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url: %w", err)
		}
		article, err := readability.FromReader(resp.Body, u)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html: %w", err)
		}
		var builder strings.Builder
		if err := article.RenderText(&builder); err != nil {
			return nil, fmt.Errorf("failed to render article text: %w", err)
		}
		return []byte(strings.TrimSpace(builder.String())), nil
	})
}

// GetBase64 fetches a URL and returns its content encoded as base64.
func (l *WebGraphLoader) GetBase64(ctx context.Context, file loader.GraphFile) (loader.GraphBase64, error) {
	rawURL, err := l.resolveURL(ctx, file)
	if err != nil {
		return loader.GraphBase64{}, err
	}

	resp, err := l.fetch(ctx, rawURL)
	if err != nil {
		return loader.GraphBase64{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return loader.GraphBase64{}, err
	}

	contentType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	if contentType == "" {
		u, _ := url.Parse(rawURL)
		contentType = mime.TypeByExtension(path.Ext(u.Path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	b64 := loader.EncodeBase64(rawURL, data)
	b64.FileType = fmt.Sprintf("data:%s;base64,", strings.TrimSpace(contentType))
	return b64, nil
}
