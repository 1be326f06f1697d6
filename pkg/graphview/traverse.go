package graphview

import (
	"context"
	"fmt"

	"github.com/stonebell/issuegraph/pkg/layout"
	"github.com/stonebell/issuegraph/pkg/model"
)

// Descendants returns every identity reachable from id along dependency
// edges, excluding id itself. Order is breadth-first from id.
func (c *Controller) Descendants(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traverseLocked(id, func(d model.Dependency) (string, string) {
		return d.Source, d.Target
	})
}

// Ancestors returns every identity that can reach id along dependency
// edges, excluding id itself. Order is breadth-first from id.
func (c *Controller) Ancestors(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traverseLocked(id, func(d model.Dependency) (string, string) {
		return d.Target, d.Source
	})
}

// traverseLocked walks edges from id, with next mapping a dependency to its
// (from, to) pair in the walk direction. Called with c.mu held.
func (c *Controller) traverseLocked(id string, next func(model.Dependency) (string, string)) []string {
	adjacency := map[string][]string{}
	for _, d := range c.deps {
		from, to := next(d)
		adjacency[from] = append(adjacency[from], to)
	}

	seen := map[string]struct{}{id: {}}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range adjacency[cur] {
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			out = append(out, nb)
			queue = append(queue, nb)
		}
	}
	return out
}

// LayoutSelection re-runs the layered algorithm over just the selected
// identities, using only edges whose endpoints are both selected, and
// anchors the result at the selection's previous top-left corner so the
// rest of the canvas is untouched. The rewritten positions are persisted
// through the usual coalesced write.
func (c *Controller) LayoutSelection(ctx context.Context, ids []string) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoProject
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return fmt.Errorf("layout selection: view not ready")
	}

	selected := make(map[string]struct{}, len(ids))
	var nodes []layout.Node
	minX, minY := 0.0, 0.0
	first := true
	for _, id := range ids {
		i, ok := c.index[id]
		if !ok {
			continue
		}
		selected[id] = struct{}{}
		n := c.nodes[i]
		nodes = append(nodes, layout.Node{ID: n.ID})
		if first || n.Position.X < minX {
			minX = n.Position.X
		}
		if first || n.Position.Y < minY {
			minY = n.Position.Y
		}
		first = false
	}
	if len(nodes) < 2 {
		c.mu.Unlock()
		return nil
	}

	var edges []layout.Edge
	for _, d := range c.deps {
		if _, ok := selected[d.Source]; !ok {
			continue
		}
		if _, ok := selected[d.Target]; !ok {
			continue
		}
		edges = append(edges, layout.Edge{Source: d.Source, Target: d.Target})
	}
	direction := c.direction
	c.mu.Unlock()

	laid, err := c.engine.Layout(ctx, nodes, edges, direction)
	if err != nil {
		return fmt.Errorf("layout selection: %w", err)
	}

	subMinX, subMinY := 0.0, 0.0
	for i, n := range laid {
		if i == 0 || n.Position.X < subMinX {
			subMinX = n.Position.X
		}
		if i == 0 || n.Position.Y < subMinY {
			subMinY = n.Position.Y
		}
	}
	dx, dy := minX-subMinX, minY-subMinY

	c.mu.Lock()
	for _, n := range laid {
		i, ok := c.index[n.ID]
		if !ok {
			continue
		}
		c.nodes[i].Position = model.NodePosition{
			X: n.Position.X + dx,
			Y: n.Position.Y + dy,
		}
	}
	c.mu.Unlock()

	c.schedulePersist(ctx)
	return nil
}
