// Package layout computes positions for issue graphs using a layered
// (Sugiyama-style) strategy: rank assignment along the flow direction,
// crossing reduction within ranks, then coordinate assignment.
package layout

import (
	"context"

	"github.com/stonebell/issuegraph/pkg/model"
)

// Direction selects the layout axis.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// Side identifies a node connector side.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Node is an issue identity with a canvas coordinate and the connector
// sides implied by the layout direction.
type Node struct {
	ID         string             `json:"id"`
	Position   model.NodePosition `json:"position"`
	TargetSide Side               `json:"targetSide,omitempty"`
	SourceSide Side               `json:"sourceSide,omitempty"`
}

// Edge is a directed source→target pair between node IDs.
type Edge struct {
	Source string
	Target string
}

// EdgesOf converts dependencies to layout edges.
func EdgesOf(deps []model.Dependency) []Edge {
	edges := make([]Edge, len(deps))
	for i, d := range deps {
		edges[i] = Edge{Source: d.Source, Target: d.Target}
	}
	return edges
}

// Default node geometry and spacing, chosen for 220x40 issue cards.
const (
	DefaultNodeWidth    = 220
	DefaultNodeHeight   = 40
	DefaultNodeSpacing  = 30
	DefaultLayerSpacing = 320
)

// Engine runs the layered algorithm with fixed node geometry.
type Engine struct {
	NodeWidth    float64
	NodeHeight   float64
	NodeSpacing  float64
	LayerSpacing float64
}

// NewEngine returns an Engine with the default geometry.
func NewEngine() *Engine {
	return &Engine{
		NodeWidth:    DefaultNodeWidth,
		NodeHeight:   DefaultNodeHeight,
		NodeSpacing:  DefaultNodeSpacing,
		LayerSpacing: DefaultLayerSpacing,
	}
}

// Layout assigns a coordinate to every node. The input slices are not
// mutated; a new node slice is returned. Edges referencing a node outside
// the supplied set are dropped before the algorithm runs, since the ranking
// is strict about referential integrity. An empty node set returns an empty
// result without running the algorithm. Algorithm errors propagate to the
// caller unretried.
func (e *Engine) Layout(ctx context.Context, nodes []Node, edges []Edge, direction Direction) ([]Node, error) {
	if len(nodes) == 0 {
		return []Node{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(nodes))
	known := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		known[n.ID] = struct{}{}
	}

	valid := make([]Edge, 0, len(edges))
	for _, edge := range edges {
		if edge.Source == edge.Target {
			continue
		}
		if _, ok := known[edge.Source]; !ok {
			continue
		}
		if _, ok := known[edge.Target]; !ok {
			continue
		}
		valid = append(valid, edge)
	}

	positions, err := e.layeredPositions(ids, valid, direction == Horizontal)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targetSide, sourceSide := SideTop, SideBottom
	if direction == Horizontal {
		targetSide, sourceSide = SideLeft, SideRight
	}

	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{
			ID:         n.ID,
			Position:   positions[n.ID],
			TargetSide: targetSide,
			SourceSide: sourceSide,
		}
	}
	return out, nil
}
