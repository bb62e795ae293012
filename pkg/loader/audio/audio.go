package audio

import (
	"context"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
)

// AudioGraphLoader loads audio files and transcribes them to text using an AI client.
type AudioGraphLoader struct {
	aiClient ai.GraphAIClient
	loader   loader.GraphFileLoader
	language string
	cache    *loader.Cache
}

// NewAudioGraphLoaderParams contains configuration for creating an AudioGraphLoader.
// Language is an optional transcription hint such as "en".
type NewAudioGraphLoaderParams struct {
	AIClient ai.GraphAIClient
	Loader   loader.GraphFileLoader
	Language string
}

// NewAudioGraphLoader creates a new loader that transcribes audio files to text.
func NewAudioGraphLoader(params NewAudioGraphLoaderParams) *AudioGraphLoader {
	return &AudioGraphLoader{
		aiClient: params.AIClient,
		loader:   params.Loader,
		language: params.Language,
		cache:    loader.NewCache(),
	}
}

// GetFileText reads the audio file and returns its transcription as text.
func (l *AudioGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Do(loader.CacheKey(file), func() ([]byte, error) {
		rawAudio, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := l.aiClient.GenerateAudioTranscription(ctx, rawAudio, l.language)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	})
}

// GetBase64 returns the raw audio file encoded as base64.
func (l *AudioGraphLoader) GetBase64(ctx context.Context, file loader.GraphFile) (loader.GraphBase64, error) {
	return l.loader.GetBase64(ctx, file)
}
