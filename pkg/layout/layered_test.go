package layout

import (
	"context"
	"testing"
)

func TestLayeredRanksAreContiguous(t *testing.T) {
	engine := NewEngine()
	nodes := nodesOf("r", "m1", "m2", "leaf")
	edges := []Edge{
		{Source: "r", Target: "m1"},
		{Source: "r", Target: "m2"},
		{Source: "m1", Target: "leaf"},
		{Source: "m2", Target: "leaf"},
	}

	out, err := engine.Layout(context.Background(), nodes, edges, Vertical)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := positionsByID(out)

	step := engine.NodeHeight + engine.LayerSpacing
	want := map[string]float64{"r": 0, "m1": step, "m2": step, "leaf": 2 * step}
	for id, y := range want {
		if pos[id].Y != y {
			t.Errorf("node %s y = %v, want %v", id, pos[id].Y, y)
		}
	}
}

func TestLayeredSiblingsDoNotOverlap(t *testing.T) {
	engine := NewEngine()
	nodes := nodesOf("p", "c1", "c2", "c3")
	edges := []Edge{
		{Source: "p", Target: "c1"},
		{Source: "p", Target: "c2"},
		{Source: "p", Target: "c3"},
	}

	out, err := engine.Layout(context.Background(), nodes, edges, Vertical)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := positionsByID(out)

	xs := map[float64]string{}
	for _, id := range []string{"c1", "c2", "c3"} {
		if prev, dup := xs[pos[id].X]; dup {
			t.Errorf("siblings %s and %s share x=%v", prev, id, pos[id].X)
		}
		xs[pos[id].X] = id
	}
}

func TestLayeredDisconnectedComponents(t *testing.T) {
	engine := NewEngine()
	nodes := nodesOf("a", "b", "x", "y")
	edges := []Edge{
		{Source: "a", Target: "b"},
		{Source: "x", Target: "y"},
	}

	out, err := engine.Layout(context.Background(), nodes, edges, Vertical)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := positionsByID(out)
	if !(pos["a"].Y < pos["b"].Y) || !(pos["x"].Y < pos["y"].Y) {
		t.Errorf("component ordering lost: %v", pos)
	}
}

func TestLayeredCrossingReduction(t *testing.T) {
	// Two parents each with their own child: after the barycenter sweeps
	// each child sits on its parent's side, not crossed over.
	engine := NewEngine()
	nodes := nodesOf("p1", "p2", "c1", "c2")
	edges := []Edge{
		{Source: "p1", Target: "c1"},
		{Source: "p2", Target: "c2"},
	}

	out, err := engine.Layout(context.Background(), nodes, edges, Vertical)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := positionsByID(out)

	parentOrder := pos["p1"].X < pos["p2"].X
	childOrder := pos["c1"].X < pos["c2"].X
	if parentOrder != childOrder {
		t.Errorf("children crossed: parents %v/%v children %v/%v",
			pos["p1"].X, pos["p2"].X, pos["c1"].X, pos["c2"].X)
	}
}
