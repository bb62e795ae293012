package ollama

import (
	"context"
	"errors"
)

// ErrAudioUnsupported is returned because Ollama has no transcription endpoint.
var ErrAudioUnsupported = errors.New("ollama: audio transcription is not supported")

// GenerateAudioTranscription always fails with ErrAudioUnsupported. Audio
// records must carry a transcript when the Ollama adapter is used.
func (c *GraphOllamaClient) GenerateAudioTranscription(
	ctx context.Context,
	audio []byte,
	language string,
) (string, error) {
	return "", ErrAudioUnsupported
}
