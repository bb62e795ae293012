package openai

import (
	"github.com/OFFIS-RIT/pokegraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// GraphOpenAIClient talks to OpenAI compatible endpoints for extraction,
// embeddings, image description and audio transcription. Each concern may
// use its own base URL and key.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	embeddingModel  string
	extractionModel string
	imageModel      string
	audioModel      string
	embeddingDim    int
	timeoutMin      int

	chatURL string

	chatLock      *semaphore.Weighted
	embeddingLock *semaphore.Weighted
	imageLock     *semaphore.Weighted

	ai.Meter

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
	ImageClient     *openai.Client
	AudioClient     *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ExtractionModel is used for fragment extraction. ChatURL and ChatKey
// configure its endpoint; the other URL/key pairs work the same way for
// their concern. An empty key leaves that client unset.
type NewGraphOpenAIClientParams struct {
	EmbeddingModel  string
	ExtractionModel string
	ImageModel      string
	AudioModel      string
	EmbeddingDim    int

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
	ImageURL     string
	ImageKey     string
	AudioURL     string
	AudioKey     string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		EmbeddingModel:  "text-embedding-3-small",
//		ExtractionModel: "gpt-4.1-mini",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//		EmbeddingKey:    os.Getenv("AI_EMBED_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 10
	}
	dim := params.EmbeddingDim
	if dim <= 0 {
		dim = defaultDimensions
	}

	return &GraphOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,
		imageModel:      params.ImageModel,
		audioModel:      params.AudioModel,
		embeddingDim:    dim,
		timeoutMin:      timeoutMin,

		chatURL: params.ChatURL,

		chatLock:      semaphore.NewWeighted(maxReq),
		embeddingLock: semaphore.NewWeighted(maxReq),
		imageLock:     semaphore.NewWeighted(maxReq),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
		ImageClient:     newOpenaiClient(params.ImageURL, params.ImageKey),
		AudioClient:     newOpenaiClient(params.AudioURL, params.AudioKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
