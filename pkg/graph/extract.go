package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/schema"

	"github.com/pkoukk/tiktoken-go"
)

// Extractor turns the text of one media item into a raw fragment document.
// The build validates the returned document before merging it. hint is the
// entity name associated with the record, or empty.
type Extractor interface {
	Extract(ctx context.Context, text string, mediaID string, hint string) (json.RawMessage, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, text string, mediaID string, hint string) (json.RawMessage, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string, mediaID string, hint string) (json.RawMessage, error) {
	return f(ctx, text, mediaID, hint)
}

type extractEntityNode struct {
	Name          string `json:"name" jsonschema_description:"Canonical name of the pokemon, capitalized as in the games"`
	Generation    int    `json:"generation" jsonschema_description:"Generation the pokemon was introduced in"`
	PrimaryType   string `json:"primary_type" jsonschema_description:"Primary type of the pokemon, empty string if unknown"`
	SecondaryType string `json:"secondary_type" jsonschema_description:"Secondary type of the pokemon, empty string if it has none or it is unknown"`
}

type extractCategoryNode struct {
	Name string `json:"name" jsonschema_description:"Name of a pokemon type, e.g. Grass"`
}

type extractCategoryEdge struct {
	FromEntity string `json:"from_entity" jsonschema_description:"Name of the pokemon"`
	ToCategory string `json:"to_category" jsonschema_description:"Name of one of its types"`
}

type extractEvolutionEdge struct {
	FromEntity string `json:"from_entity" jsonschema_description:"Name of the pokemon that evolves"`
	ToEntity   string `json:"to_entity" jsonschema_description:"Name of the pokemon it evolves into"`
}

type extractMentionsEdge struct {
	FromMediaID string `json:"from_media_id" jsonschema_description:"The media id given in the instructions"`
	ToEntity    string `json:"to_entity" jsonschema_description:"Name of a pokemon mentioned in the media"`
}

type extractResponse struct {
	EntityNodes         []extractEntityNode    `json:"entity_nodes" jsonschema_description:"Pokemon described in the media"`
	CategoryNodes       []extractCategoryNode  `json:"category_nodes" jsonschema_description:"Pokemon types named in the media"`
	EntityCategoryEdges []extractCategoryEdge  `json:"entity_category_edges" jsonschema_description:"Which pokemon has which type"`
	EvolutionEdges      []extractEvolutionEdge `json:"evolution_edges" jsonschema_description:"Evolution steps named in the media"`
	MentionsEdges       []extractMentionsEdge  `json:"mentions_edges" jsonschema_description:"Pokemon the media talks about"`
}

// Tokenizer counts and cuts text in model tokens.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenizer) Encode(text string) []int   { return t.enc.Encode(text, nil, nil) }
func (t tiktokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }

// AIExtractor extracts fragments with a structured language model call.
type AIExtractor struct {
	client    ai.GraphAIClient
	tokenizer func() (Tokenizer, error)
	maxTokens int
	model     string
}

// NewAIExtractorParams contains configuration for creating an AIExtractor.
//
// TokenEncoder and MaxTokens bound the text sent to the model; longer text
// is cut at the token limit. Tokenizer replaces the tiktoken encoder named
// by TokenEncoder, which is otherwise loaded on first use. Model overrides
// the client's extraction model.
type NewAIExtractorParams struct {
	AIClient     ai.GraphAIClient
	TokenEncoder string
	Tokenizer    Tokenizer
	MaxTokens    int
	Model        string
}

// NewAIExtractor creates an extractor backed by the given AI client.
func NewAIExtractor(params NewAIExtractorParams) *AIExtractor {
	enc := params.TokenEncoder
	if enc == "" {
		enc = "o200k_base"
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 6000
	}

	tokenizer := func() (Tokenizer, error) { return params.Tokenizer, nil }
	if params.Tokenizer == nil {
		tokenizer = sync.OnceValues(func() (Tokenizer, error) {
			e, err := tiktoken.GetEncoding(enc)
			if err != nil {
				return nil, fmt.Errorf("failed to load token encoder %s: %w", enc, err)
			}
			return tiktokenizer{enc: e}, nil
		})
	}

	return &AIExtractor{
		client:    params.AIClient,
		tokenizer: tokenizer,
		maxTokens: maxTokens,
		model:     params.Model,
	}
}

// Extract asks the model for a fragment. The raw answer must satisfy the
// fragment contract; only then are names trimmed and empty type strings
// turned into absent fields. A non-conforming answer is returned as a
// *schema.SchemaViolation.
func (e *AIExtractor) Extract(ctx context.Context, text string, mediaID string, hint string) (json.RawMessage, error) {
	if e.client == nil {
		return nil, errors.New("ai extractor has no client")
	}

	tok, err := e.tokenizer()
	if err != nil {
		return nil, err
	}
	input := truncateTokens(text, tok, e.maxTokens)

	hintLine := "none"
	if strings.TrimSpace(hint) != "" {
		hintLine = hint
	}
	systemPrompt := fmt.Sprintf(ai.ExtractFragmentPrompt, mediaID, hintLine, mediaID)

	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompt),
		ai.WithResponseSchema(&extractResponse{}),
	}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}

	var raw json.RawMessage
	err = e.client.GenerateCompletionWithFormat(
		ctx,
		"extract_pokemon_fragment",
		"Extract pokemon, their types, evolutions and mentions from one media item.",
		input,
		&raw,
		opts...,
	)
	if err != nil {
		return nil, err
	}

	if err := schema.ValidateFragment(raw); err != nil {
		return nil, err
	}

	var res extractResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}
	return json.Marshal(res.toFragment())
}

func (r extractResponse) toFragment() common.Fragment {
	f := common.NewFragment()
	for _, n := range r.EntityNodes {
		f.EntityNodes = append(f.EntityNodes, common.EntityNode{
			Name:          strings.TrimSpace(n.Name),
			Generation:    n.Generation,
			PrimaryType:   optionalString(n.PrimaryType),
			SecondaryType: optionalString(n.SecondaryType),
		})
	}
	for _, n := range r.CategoryNodes {
		f.CategoryNodes = append(f.CategoryNodes, common.CategoryNode{Name: strings.TrimSpace(n.Name)})
	}
	for _, e := range r.EntityCategoryEdges {
		f.EntityCategoryEdges = append(f.EntityCategoryEdges, common.CategoryEdge{
			FromEntity: strings.TrimSpace(e.FromEntity),
			ToCategory: strings.TrimSpace(e.ToCategory),
		})
	}
	for _, e := range r.EvolutionEdges {
		f.EvolutionEdges = append(f.EvolutionEdges, common.EvolutionEdge{
			FromEntity: strings.TrimSpace(e.FromEntity),
			ToEntity:   strings.TrimSpace(e.ToEntity),
		})
	}
	for _, e := range r.MentionsEdges {
		f.MentionsEdges = append(f.MentionsEdges, common.MentionsEdge{
			FromMediaID: strings.TrimSpace(e.FromMediaID),
			ToEntity:    strings.TrimSpace(e.ToEntity),
		})
	}
	return f
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func truncateTokens(text string, tok Tokenizer, maxTokens int) string {
	tokens := tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return tok.Decode(tokens[:maxTokens])
}
