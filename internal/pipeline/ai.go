package pipeline

import (
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	oai "github.com/OFFIS-RIT/pokegraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/pokegraph/pkg/ai/openai"
)

// NewAIClientFromEnv builds the AI client selected by AI_ADAPTER.
func NewAIClientFromEnv() (ai.GraphAIClient, error) {
	maxReq := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4))
	timeoutMin := util.GetEnvInt("AI_TIMEOUT_MIN", 10)
	embedDim := util.GetEnvInt("AI_EMBED_DIM", 1536)

	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			ImageModel:      util.GetEnv("AI_IMAGE_MODEL"),
			EmbeddingDim:    embedDim,

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: maxReq,
			TimeoutMin:            timeoutMin,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel:  util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			ImageModel:      util.GetEnv("AI_IMAGE_MODEL"),
			AudioModel:      util.GetEnv("AI_AUDIO_MODEL"),
			EmbeddingDim:    embedDim,

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			ImageURL:     util.GetEnv("AI_IMAGE_URL"),
			ImageKey:     util.GetEnv("AI_IMAGE_KEY"),
			AudioURL:     util.GetEnv("AI_AUDIO_URL"),
			AudioKey:     util.GetEnv("AI_AUDIO_KEY"),

			MaxConcurrentRequests: maxReq,
			TimeoutMin:            timeoutMin,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}
