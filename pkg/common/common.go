package common

// Modality identifies the kind of media an intermediate record was read from.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
)

// Modalities lists every modality in stream order. Later streams win when
// the same entity node appears in more than one stream.
var Modalities = []Modality{ModalityText, ModalityImage, ModalityAudio}

// Record is the normalized output of a source reader for one media item.
// Records are written once as a line of a modality stream and are consumed
// exactly once by the graph build.
type Record struct {
	ID         string   `json:"id" validate:"required"`
	Modality   Modality `json:"modality,omitempty" validate:"omitempty,oneof=text image audio"`
	SourcePath string   `json:"source_path,omitempty"`
	Text       string   `json:"text"`
	Pokemon    *string  `json:"pokemon,omitempty"`
	Generation *int     `json:"generation,omitempty"`
	Types      []string `json:"types,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Hint returns the associated entity name of the record or an empty string.
func (r Record) Hint() string {
	if r.Pokemon == nil {
		return ""
	}
	return *r.Pokemon
}

// EntityNode is a graph node keyed by its case-sensitive name.
type EntityNode struct {
	Name          string  `json:"name"`
	Generation    int     `json:"generation"`
	PrimaryType   *string `json:"primary_type,omitempty"`
	SecondaryType *string `json:"secondary_type,omitempty"`
}

// CategoryNode is a graph node for a category (a pokemon type).
type CategoryNode struct {
	Name string `json:"name"`
}

// CategoryEdge links an entity to one of its categories.
type CategoryEdge struct {
	FromEntity string `json:"from_entity"`
	ToCategory string `json:"to_category"`
}

// EvolutionEdge is directed: FromEntity evolves into ToEntity.
type EvolutionEdge struct {
	FromEntity string `json:"from_entity"`
	ToEntity   string `json:"to_entity"`
}

// MentionsEdge links a media item to an entity it talks about.
type MentionsEdge struct {
	FromMediaID string `json:"from_media_id"`
	ToEntity    string `json:"to_entity"`
}

// Fragment is the structured result of one extraction call for one media
// item. It only lives for the duration of a single merge step.
type Fragment struct {
	EntityNodes         []EntityNode    `json:"entity_nodes"`
	CategoryNodes       []CategoryNode  `json:"category_nodes"`
	EntityCategoryEdges []CategoryEdge  `json:"entity_category_edges"`
	EvolutionEdges      []EvolutionEdge `json:"evolution_edges"`
	MentionsEdges       []MentionsEdge  `json:"mentions_edges"`
}

// Graph is the canonical graph produced by a build. Nodes are in first
// insertion order, edges are unique. A Graph returned by a build shares no
// memory with the builder that produced it.
type Graph struct {
	EntityNodes    []EntityNode
	CategoryNodes  []CategoryNode
	CategoryEdges  []CategoryEdge
	EvolutionEdges []EvolutionEdge
	MentionsEdges  []MentionsEdge
}

// NewFragment returns a fragment with all five collections initialized, so
// that it serializes with empty arrays instead of nulls.
func NewFragment() Fragment {
	return Fragment{
		EntityNodes:         []EntityNode{},
		CategoryNodes:       []CategoryNode{},
		EntityCategoryEdges: []CategoryEdge{},
		EvolutionEdges:      []EvolutionEdge{},
		MentionsEdges:       []MentionsEdge{},
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
