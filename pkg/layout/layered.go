package layout

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/stonebell/issuegraph/pkg/model"
)

// layeredPositions ranks nodes along the flow axis by longest path from the
// roots, reduces crossings with barycenter sweeps, and spreads each rank
// centered on the widest one. Deterministic for identical input.
func (e *Engine) layeredPositions(ids []string, edges []Edge, horizontal bool) (map[string]model.NodePosition, error) {
	index := make(map[string]int64, len(ids))
	for i, id := range ids {
		index[id] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for i := range ids {
		g.AddNode(simple.Node(i))
	}
	for _, edge := range edges {
		g.SetEdge(simple.Edge{F: simple.Node(index[edge.Source]), T: simple.Node(index[edge.Target])})
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		// Cyclic references are legal in tracker data (mutual blocked_by).
		// Linearize each cycle in ID order; the edges running against the
		// resulting order are treated as back edges and do not rank.
		unorderable, ok := err.(topo.Unorderable)
		if !ok {
			return nil, fmt.Errorf("layered ranking: %w", err)
		}
		sorted = spliceCycles(sorted, unorderable)
	}

	linear := make([]int, len(ids))
	for i, n := range sorted {
		linear[n.ID()] = i
	}

	// Forward adjacency only: an edge against the linear order is a broken
	// cycle's back edge.
	succ := make([][]int, len(ids))
	pred := make([][]int, len(ids))
	for _, edge := range edges {
		u, v := int(index[edge.Source]), int(index[edge.Target])
		if linear[u] < linear[v] {
			succ[u] = append(succ[u], v)
			pred[v] = append(pred[v], u)
		}
	}

	// Longest-path layering: relaxation in topological order.
	rank := make([]int, len(ids))
	maxRank := 0
	for _, n := range sorted {
		u := int(n.ID())
		for _, v := range succ[u] {
			if rank[u]+1 > rank[v] {
				rank[v] = rank[u] + 1
			}
			if rank[v] > maxRank {
				maxRank = rank[v]
			}
		}
	}

	layers := make([][]int, maxRank+1)
	for _, n := range sorted {
		u := int(n.ID())
		layers[rank[u]] = append(layers[rank[u]], u)
	}

	orderLayers(layers, pred, succ, len(ids))

	return e.spreadLayers(ids, layers, horizontal), nil
}

// spliceCycles rebuilds a full ordering from a partial topological sort,
// replacing each nil placeholder with its cyclic component in ID order.
func spliceCycles(sorted []graph.Node, unorderable topo.Unorderable) []graph.Node {
	out := make([]graph.Node, 0, len(sorted))
	ci := 0
	for _, n := range sorted {
		if n != nil {
			out = append(out, n)
			continue
		}
		component := unorderable[ci]
		ci++
		sort.Slice(component, func(a, b int) bool { return component[a].ID() < component[b].ID() })
		out = append(out, component...)
	}
	return out
}

// orderLayers runs alternating downward/upward barycenter sweeps to reduce
// edge crossings. Nodes without neighbors in the fixed direction keep their
// slot, and ties preserve the incoming order, so the result is stable.
func orderLayers(layers [][]int, pred, succ [][]int, n int) {
	slot := make([]float64, n)
	updateSlots := func() {
		for _, layer := range layers {
			for j, u := range layer {
				slot[u] = float64(j)
			}
		}
	}
	updateSlots()

	barycenter := func(u int, neighbors []int) float64 {
		if len(neighbors) == 0 {
			return slot[u]
		}
		sum := 0.0
		for _, v := range neighbors {
			sum += slot[v]
		}
		return sum / float64(len(neighbors))
	}

	const sweeps = 2
	for s := 0; s < sweeps; s++ {
		// Downward: order each layer by the slots of its predecessors.
		for i := 1; i < len(layers); i++ {
			layer := layers[i]
			sort.SliceStable(layer, func(a, b int) bool {
				return barycenter(layer[a], pred[layer[a]]) < barycenter(layer[b], pred[layer[b]])
			})
			updateSlots()
		}
		// Upward: order each layer by the slots of its successors.
		for i := len(layers) - 2; i >= 0; i-- {
			layer := layers[i]
			sort.SliceStable(layer, func(a, b int) bool {
				return barycenter(layer[a], succ[layer[a]]) < barycenter(layer[b], succ[layer[b]])
			})
			updateSlots()
		}
	}
}

// spreadLayers assigns coordinates: ranks advance along the layout axis,
// and each rank is centered against the widest one on the cross axis.
func (e *Engine) spreadLayers(ids []string, layers [][]int, horizontal bool) map[string]model.NodePosition {
	crossSize, crossGap := e.NodeWidth, e.NodeSpacing
	axisSize, axisGap := e.NodeHeight, e.LayerSpacing
	if horizontal {
		crossSize, crossGap = e.NodeHeight, e.NodeSpacing
		axisSize, axisGap = e.NodeWidth, e.LayerSpacing
	}

	maxExtent := 0.0
	for _, layer := range layers {
		extent := float64(len(layer))*crossSize + float64(len(layer)-1)*crossGap
		if extent > maxExtent {
			maxExtent = extent
		}
	}

	positions := make(map[string]model.NodePosition, len(ids))
	for r, layer := range layers {
		extent := float64(len(layer))*crossSize + float64(len(layer)-1)*crossGap
		start := (maxExtent - extent) / 2
		along := float64(r) * (axisSize + axisGap)
		for j, u := range layer {
			across := start + float64(j)*(crossSize+crossGap)
			if horizontal {
				positions[ids[u]] = model.NodePosition{X: along, Y: across}
			} else {
				positions[ids[u]] = model.NodePosition{X: across, Y: along}
			}
		}
	}
	return positions
}
