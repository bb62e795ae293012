package image

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
)

// ImageGraphLoader loads image files and generates text descriptions using an AI vision model.
type ImageGraphLoader struct {
	aiClient ai.GraphAIClient
	loader   loader.GraphFileLoader
	cache    *loader.Cache
}

// NewImageGraphLoaderParams contains configuration for creating an ImageGraphLoader.
type NewImageGraphLoaderParams struct {
	AIClient ai.GraphAIClient
	Loader   loader.GraphFileLoader
}

// NewImageGraphLoader creates a new loader that describes images using AI vision.
func NewImageGraphLoader(params NewImageGraphLoaderParams) *ImageGraphLoader {
	return &ImageGraphLoader{
		aiClient: params.AIClient,
		loader:   params.Loader,
		cache:    loader.NewCache(),
	}
}

// GetFileText generates a text description of the image using AI vision.
func (l *ImageGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Do(loader.CacheKey(file), func() ([]byte, error) {
		b64, err := l.GetBase64(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := l.aiClient.GenerateImageDescription(ctx, ai.ImagePrompt, b64)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	})
}

// GetFileTextFromIO generates a text description of an image provided as an io.Reader.
// mimeType defaults to image/png.
func GetFileTextFromIO(ctx context.Context, aiClient ai.GraphAIClient, input io.Reader, mimeType string) ([]byte, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	b64Image := loader.GraphBase64{
		Base64:   base64.StdEncoding.EncodeToString(content),
		FileType: "data:" + mimeType + ";base64,",
	}

	text, err := aiClient.GenerateImageDescription(ctx, ai.ImagePrompt, b64Image)
	if err != nil {
		return nil, err
	}

	return []byte(text), nil
}

// GetBase64 returns the image encoded as base64 with appropriate MIME type prefix.
func (l *ImageGraphLoader) GetBase64(ctx context.Context, file loader.GraphFile) (loader.GraphBase64, error) {
	return l.loader.GetBase64(ctx, file)
}
