package ai

import (
	"context"

	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	Thinking      string   // Extended thinking mode configuration

	// ResponseSchema, when set, is the value the response JSON schema is
	// derived from instead of out. Callers decoding into a json.RawMessage
	// use it to keep the model's answer unaltered.
	ResponseSchema any
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// Add accumulates m into the receiver and recomputes the token rate.
func (mm *ModelMetrics) Add(m ModelMetrics) {
	mm.InputTokens += m.InputTokens
	mm.OutputTokens += m.OutputTokens
	mm.TotalTokens += m.TotalTokens
	mm.DurationMs += m.DurationMs

	if mm.DurationMs > 0 {
		tps := (float64(mm.TotalTokens) * 1000.0) / float64(mm.DurationMs)
		mm.TokenPerSecond = float32(int(tps*100)) / 100
	}
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking returns a GenerateOption that enables extended thinking mode.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// WithResponseSchema derives the response format from v instead of the
// decode target.
//
// Example:
//
//	var raw json.RawMessage
//	client.GenerateCompletionWithFormat(ctx, "fragment", "...", prompt, &raw,
//		ai.WithResponseSchema(&extractResponse{}))
func WithResponseSchema(v any) GenerateOption {
	return func(o *GenerateOptions) {
		o.ResponseSchema = v
	}
}

// SchemaSource returns the value the response schema is generated from.
func (o GenerateOptions) SchemaSource(out any) any {
	if o.ResponseSchema != nil {
		return o.ResponseSchema
	}
	return out
}

// ApplyOptions returns defaults with opts applied in order.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// GraphAIClient defines the AI operations used while ingesting media and
// extracting graph fragments.
type GraphAIClient interface {
	// GenerateCompletionWithFormat sends prompt and decodes the structured
	// answer into out, which must be a pointer to a struct. The JSON schema
	// sent to the model is derived from out.
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
	GenerateImageDescription(
		ctx context.Context,
		prompt string,
		base64 loader.GraphBase64,
	) (string, error)
	GenerateAudioTranscription(
		ctx context.Context,
		audio []byte,
		language string,
	) (string, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
