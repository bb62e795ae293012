package openai

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateAudioTranscription transcribes audio data to text using the configured audio model.
// The language parameter is optional and can be used to hint the expected language.
func (c *GraphOpenAIClient) GenerateAudioTranscription(
	ctx context.Context,
	audio []byte,
	language string,
) (string, error) {
	client := c.AudioClient
	if client == nil {
		return "", fmt.Errorf("audio client not configured")
	}

	params := openai.AudioTranscriptionNewParams{
		File:  bytes.NewReader(audio),
		Model: openai.AudioModel(c.audioModel),
	}

	if language != "" {
		params.Language = openai.String(language)
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	start := time.Now()
	transcription, err := client.Audio.Transcriptions.New(rCtx, params)
	if err != nil {
		return "", err
	}

	// no token usage is reported for transcriptions
	c.Record(ai.ModelMetrics{
		DurationMs: time.Since(start).Milliseconds(),
	})

	return transcription.Text, nil
}
