// Package kin derives generation layout, kinship, relational paths and
// connected family groups from a snapshot of individuals and relationships.
//
// A Graph is built once per snapshot with Build and is read-only afterwards,
// so any number of goroutines may query the same Graph.
package kin

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vanshika/kintrace/internal/domain"
)

// EdgeKind is the role a neighbor plays relative to the owner of an adjacency entry.
type EdgeKind uint8

const (
	// EdgeParent marks a neighbor that is a parent of the entry owner.
	EdgeParent EdgeKind = iota + 1
	// EdgeChild marks a neighbor that is a child of the entry owner.
	EdgeChild
	// EdgeSpouse marks a spouse of the entry owner.
	EdgeSpouse
)

// MarshalText encodes the edge kind by name.
func (k EdgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeParent:
		return "parent"
	case EdgeChild:
		return "child"
	case EdgeSpouse:
		return "spouse"
	default:
		return fmt.Sprintf("EdgeKind(%d)", uint8(k))
	}
}

// Neighbor is one typed adjacency of an individual.
type Neighbor struct {
	ID   string
	Kind EdgeKind
}

// Reasons attached to dropped edges.
const (
	DropUnknownSource   = "unknown source individual"
	DropUnknownTarget   = "unknown target individual"
	DropUnsupportedKind = "unsupported kind"
	DropSelfSpouse      = "self spouse"
)

// DroppedEdge is an input edge that Build skipped.
type DroppedEdge struct {
	Edge   domain.RelationshipEdge
	Reason string
}

// Graph is the typed adjacency structure of one family snapshot.
type Graph struct {
	order     []string
	index     map[string]int
	people    []domain.Individual
	adjacency [][]Neighbor
	dropped   []DroppedEdge
	edges     int
}

// Option customises Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
}

// WithLogger routes dropped-edge diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Build converts individuals and relationship edges into a Graph. Every parent
// edge yields a parent entry on the child and a child entry on the parent;
// every spouse edge yields a spouse entry on both sides. Edges that reference
// unknown individuals are dropped and reported through Dropped.
func Build(individuals []domain.Individual, edges []domain.RelationshipEdge, opts ...Option) (*Graph, error) {
	o := buildOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		order:     make([]string, 0, len(individuals)),
		index:     make(map[string]int, len(individuals)),
		people:    make([]domain.Individual, 0, len(individuals)),
		adjacency: make([][]Neighbor, len(individuals)),
	}
	for _, ind := range individuals {
		if ind.ID == "" {
			return nil, ErrEmptyIndividualID
		}
		if _, exists := g.index[ind.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIndividual, ind.ID)
		}
		g.index[ind.ID] = len(g.order)
		g.order = append(g.order, ind.ID)
		g.people = append(g.people, ind)
	}

	type entryKey struct {
		owner int
		n     Neighbor
	}
	seen := make(map[entryKey]struct{})
	add := func(owner int, n Neighbor) bool {
		key := entryKey{owner: owner, n: n}
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		g.adjacency[owner] = append(g.adjacency[owner], n)
		return true
	}

	for _, e := range edges {
		if e.Kind != domain.RelationParent && e.Kind != domain.RelationSpouse {
			g.drop(o.logger, e, DropUnsupportedKind, slog.LevelDebug)
			continue
		}
		src, ok := g.index[e.SourceID]
		if !ok {
			g.drop(o.logger, e, DropUnknownSource, slog.LevelWarn)
			continue
		}
		dst, ok := g.index[e.TargetID]
		if !ok {
			g.drop(o.logger, e, DropUnknownTarget, slog.LevelWarn)
			continue
		}

		var added bool
		switch e.Kind {
		case domain.RelationParent:
			a := add(src, Neighbor{ID: e.TargetID, Kind: EdgeChild})
			b := add(dst, Neighbor{ID: e.SourceID, Kind: EdgeParent})
			added = a || b
		case domain.RelationSpouse:
			if src == dst {
				g.drop(o.logger, e, DropSelfSpouse, slog.LevelWarn)
				continue
			}
			a := add(src, Neighbor{ID: e.TargetID, Kind: EdgeSpouse})
			b := add(dst, Neighbor{ID: e.SourceID, Kind: EdgeSpouse})
			added = a || b
		}
		if added {
			g.edges++
		}
	}

	return g, nil
}

func (g *Graph) drop(logger *slog.Logger, e domain.RelationshipEdge, reason string, level slog.Level) {
	g.dropped = append(g.dropped, DroppedEdge{Edge: e, Reason: reason})
	logger.Log(context.Background(), level, "dropping relationship edge",
		"sourceId", e.SourceID,
		"targetId", e.TargetID,
		"kind", string(e.Kind),
		"reason", reason,
	)
}

// Len returns the number of individuals.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of distinct relationships kept.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// IDs returns the individual IDs in input order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Has reports whether id is part of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Individual returns the record stored for id.
func (g *Graph) Individual(id string) (domain.Individual, bool) {
	idx, ok := g.index[id]
	if !ok {
		return domain.Individual{}, false
	}
	return g.people[idx], true
}

// Neighbors returns a copy of the adjacency entry of id in insertion order.
func (g *Graph) Neighbors(id string) []Neighbor {
	return append([]Neighbor(nil), g.neighbors(id)...)
}

// Parents returns the distinct recorded parents of id.
func (g *Graph) Parents(id string) []string {
	return g.related(id, EdgeParent)
}

// Children returns the distinct recorded children of id.
func (g *Graph) Children(id string) []string {
	return g.related(id, EdgeChild)
}

// Spouses returns the distinct recorded spouses of id.
func (g *Graph) Spouses(id string) []string {
	return g.related(id, EdgeSpouse)
}

// Dropped returns the edges skipped while building.
func (g *Graph) Dropped() []DroppedEdge {
	return append([]DroppedEdge(nil), g.dropped...)
}

func (g *Graph) neighbors(id string) []Neighbor {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.adjacency[idx]
}

func (g *Graph) related(id string, kind EdgeKind) []string {
	var out []string
	for _, n := range g.neighbors(id) {
		if n.Kind == kind {
			out = append(out, n.ID)
		}
	}
	return out
}

func (g *Graph) position(id string) int {
	return g.index[id]
}
