package doc

import (
	"context"

	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
)

// DocGraphLoader loads Word documents (.docx) and extracts their text.
type DocGraphLoader struct {
	loader loader.GraphFileLoader
	cache  *loader.Cache
}

// NewDocGraphLoader creates a loader that reads the raw document through
// source and extracts the text from its document XML.
func NewDocGraphLoader(source loader.GraphFileLoader) *DocGraphLoader {
	return &DocGraphLoader{
		loader: source,
		cache:  loader.NewCache(),
	}
}

// GetFileText extracts the text of a Word document.
func (l *DocGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Do(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return ParseDocx(content)
	})
}

// GetBase64 returns the raw document encoded as base64.
func (l *DocGraphLoader) GetBase64(ctx context.Context, file loader.GraphFile) (loader.GraphBase64, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return loader.GraphBase64{}, err
	}
	return loader.GraphBase64{
		Base64:   loader.EncodeBase64(file.FilePath, content).Base64,
		FileType: "data:application/vnd.openxmlformats-officedocument.wordprocessingml.document;base64,",
	}, nil
}
