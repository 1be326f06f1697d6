package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stonebell/issuegraph/pkg/layout"
	"github.com/stonebell/issuegraph/pkg/model"
)

func snapshotFixture() ([]layout.Node, []model.Dependency, []model.Issue) {
	nodes := []layout.Node{
		{ID: "o/r#1", Position: model.NodePosition{X: 0, Y: 0}},
		{ID: "o/r#2", Position: model.NodePosition{X: -120, Y: 360}},
		{ID: "o/r#3", Position: model.NodePosition{X: 130, Y: 360}},
	}
	deps := []model.Dependency{
		{Source: "o/r#1", Target: "o/r#2", Type: model.DepSubIssue},
		{Source: "o/r#3", Target: "o/r#2", Type: model.DepBlockedBy},
	}
	issues := []model.Issue{
		{ID: "o/r#1", Title: "Parent epic", State: model.StateOpen},
		{ID: "o/r#2", Title: "Blocked child", State: model.StateOpen},
		{ID: "o/r#3", Title: "Finished blocker", State: model.StateClosed},
	}
	return nodes, deps, issues
}

func TestSaveGraphSnapshot_SVGAndPNG(t *testing.T) {
	nodes, deps, issues := snapshotFixture()
	tmp := t.TempDir()

	for _, name := range []string{"graph.svg", "graph.png"} {
		t.Run(filepath.Ext(name), func(t *testing.T) {
			out := filepath.Join(tmp, name)
			err := SaveGraphSnapshot(GraphSnapshotOptions{
				Path:   out,
				Nodes:  nodes,
				Edges:  deps,
				Issues: issues,
			})
			if err != nil {
				t.Fatalf("SaveGraphSnapshot error: %v", err)
			}
			info, err := os.Stat(out)
			if err != nil {
				t.Fatalf("output not created: %v", err)
			}
			if info.Size() == 0 {
				t.Fatalf("output file is empty")
			}
		})
	}
}

func TestSaveGraphSnapshot_SVGContent(t *testing.T) {
	nodes, deps, issues := snapshotFixture()
	out := filepath.Join(t.TempDir(), "graph.svg")
	if err := SaveGraphSnapshot(GraphSnapshotOptions{Path: out, Nodes: nodes, Edges: deps, Issues: issues}); err != nil {
		t.Fatalf("SaveGraphSnapshot error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	body := string(data)
	for _, want := range []string{"Parent epic", closedFill, blockedEdge, "stroke-dasharray"} {
		if !strings.Contains(body, want) {
			t.Errorf("svg output missing %q", want)
		}
	}
}

func TestSaveGraphSnapshot_InvalidFormat(t *testing.T) {
	nodes, deps, issues := snapshotFixture()
	err := SaveGraphSnapshot(GraphSnapshotOptions{
		Path:   "graph.txt",
		Format: "txt",
		Nodes:  nodes,
		Edges:  deps,
		Issues: issues,
	})
	if err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestSaveGraphSnapshot_FormatFromExtension(t *testing.T) {
	nodes, _, issues := snapshotFixture()
	out := filepath.Join(t.TempDir(), "snap.SVG")
	if err := SaveGraphSnapshot(GraphSnapshotOptions{Path: out, Nodes: nodes, Issues: issues}); err != nil {
		t.Fatalf("extension-derived format: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output not created: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 30); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	long := strings.Repeat("a", 40)
	got := truncate(long, 30)
	if len([]rune(got)) != 30 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate(long) = %q", got)
	}
}
