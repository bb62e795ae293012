package graph

import (
	"slices"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
)

type edgeKey struct {
	from string
	to   string
}

// edgeSet keeps unique pairs in arrival order.
type edgeSet struct {
	seen  map[edgeKey]struct{}
	order []edgeKey
}

func newEdgeSet() edgeSet {
	return edgeSet{seen: make(map[edgeKey]struct{})}
}

func (s *edgeSet) add(from, to string) {
	k := edgeKey{from: from, to: to}
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.order = append(s.order, k)
}

func (s *edgeSet) len() int {
	return len(s.order)
}

// nodeMap stores values by key, keeping the position of the first insert
// while later inserts replace the value.
type nodeMap[T any] struct {
	index  map[string]int
	values []T
}

func newNodeMap[T any]() nodeMap[T] {
	return nodeMap[T]{index: make(map[string]int)}
}

func (m *nodeMap[T]) put(key string, v T) {
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.values)
	m.values = append(m.values, v)
}

// GraphBuilder accumulates fragments into a canonical graph. It is not safe
// for concurrent use; callers that extract in parallel must serialize Merge.
type GraphBuilder struct {
	entities   nodeMap[common.EntityNode]
	categories nodeMap[common.CategoryNode]

	categoryEdges  edgeSet
	evolutionEdges edgeSet
	mentionsEdges  edgeSet
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		entities:       newNodeMap[common.EntityNode](),
		categories:     newNodeMap[common.CategoryNode](),
		categoryEdges:  newEdgeSet(),
		evolutionEdges: newEdgeSet(),
		mentionsEdges:  newEdgeSet(),
	}
}

// Merge folds one fragment into the graph. Nodes replace any earlier node
// with the same name as a whole, edges are added only if not yet present.
// Edges that reference unknown nodes are kept as they are.
func (b *GraphBuilder) Merge(f common.Fragment) {
	for _, n := range f.EntityNodes {
		b.entities.put(n.Name, cloneEntity(n))
	}
	for _, n := range f.CategoryNodes {
		b.categories.put(n.Name, n)
	}
	for _, e := range f.EntityCategoryEdges {
		b.categoryEdges.add(e.FromEntity, e.ToCategory)
	}
	for _, e := range f.EvolutionEdges {
		b.evolutionEdges.add(e.FromEntity, e.ToEntity)
	}
	for _, e := range f.MentionsEdges {
		b.mentionsEdges.add(e.FromMediaID, e.ToEntity)
	}
}

// Finalize materializes the accumulated state. The returned graph does not
// share memory with the builder, so further merges do not affect it.
func (b *GraphBuilder) Finalize() common.Graph {
	g := common.Graph{
		EntityNodes:    make([]common.EntityNode, 0, len(b.entities.values)),
		CategoryNodes:  slices.Clone(b.categories.values),
		CategoryEdges:  make([]common.CategoryEdge, 0, b.categoryEdges.len()),
		EvolutionEdges: make([]common.EvolutionEdge, 0, b.evolutionEdges.len()),
		MentionsEdges:  make([]common.MentionsEdge, 0, b.mentionsEdges.len()),
	}
	if g.CategoryNodes == nil {
		g.CategoryNodes = []common.CategoryNode{}
	}

	for _, n := range b.entities.values {
		g.EntityNodes = append(g.EntityNodes, cloneEntity(n))
	}
	for _, k := range b.categoryEdges.order {
		g.CategoryEdges = append(g.CategoryEdges, common.CategoryEdge{FromEntity: k.from, ToCategory: k.to})
	}
	for _, k := range b.evolutionEdges.order {
		g.EvolutionEdges = append(g.EvolutionEdges, common.EvolutionEdge{FromEntity: k.from, ToEntity: k.to})
	}
	for _, k := range b.mentionsEdges.order {
		g.MentionsEdges = append(g.MentionsEdges, common.MentionsEdge{FromMediaID: k.from, ToEntity: k.to})
	}

	return g
}

func cloneEntity(n common.EntityNode) common.EntityNode {
	if n.PrimaryType != nil {
		n.PrimaryType = common.Ptr(*n.PrimaryType)
	}
	if n.SecondaryType != nil {
		n.SecondaryType = common.Ptr(*n.SecondaryType)
	}
	return n
}
