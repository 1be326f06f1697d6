// Package export renders a laid-out dependency graph to SVG or PNG for
// sharing outside the console.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"

	"github.com/stonebell/issuegraph/pkg/layout"
	"github.com/stonebell/issuegraph/pkg/model"
)

// Node card geometry, matching the layout engine defaults.
const (
	nodeWidth  = 220
	nodeHeight = 40
	padding    = 60
)

// Issue card palette.
const (
	openFill     = "#dafbe1"
	openStroke   = "#1a7f37"
	closedFill   = "#f0e6ff"
	closedStroke = "#8250df"
	blockedEdge  = "#cf222e"
	subIssueEdge = "#656d76"
	background   = "#ffffff"
	titleColor   = "#1f2328"
)

// GraphSnapshotOptions describes one snapshot render.
type GraphSnapshotOptions struct {
	Path   string // output file; extension selects the format when Format is empty
	Format string // "svg" or "png"
	Nodes  []layout.Node
	Edges  []model.Dependency
	Issues []model.Issue // supplies titles and state per node ID
}

// SaveGraphSnapshot renders the graph to Path. The format comes from
// Format, falling back to the path extension; anything but svg or png is an
// error.
func SaveGraphSnapshot(opts GraphSnapshotOptions) error {
	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(opts.Path), ".")
	}
	format = strings.ToLower(format)

	scene := buildScene(opts)
	switch format {
	case "svg":
		return scene.renderSVG(opts.Path)
	case "png":
		return scene.renderPNG(opts.Path)
	default:
		return fmt.Errorf("unsupported snapshot format %q (want svg or png)", format)
	}
}

type sceneNode struct {
	x, y         float64
	title        string
	fill, stroke string
}

type sceneEdge struct {
	x1, y1, x2, y2 float64
	color          string
	dashed         bool
}

type scene struct {
	width, height int
	nodes         []sceneNode
	edges         []sceneEdge
}

// buildScene translates graph coordinates into canvas space: everything is
// shifted so the top-left node sits at the padding margin.
func buildScene(opts GraphSnapshotOptions) *scene {
	byID := make(map[string]layout.Node, len(opts.Nodes))
	minX, minY := 0.0, 0.0
	maxX, maxY := 0.0, 0.0
	for i, n := range opts.Nodes {
		byID[n.ID] = n
		if i == 0 || n.Position.X < minX {
			minX = n.Position.X
		}
		if i == 0 || n.Position.Y < minY {
			minY = n.Position.Y
		}
		if i == 0 || n.Position.X > maxX {
			maxX = n.Position.X
		}
		if i == 0 || n.Position.Y > maxY {
			maxY = n.Position.Y
		}
	}

	issues := make(map[string]model.Issue, len(opts.Issues))
	for _, iss := range opts.Issues {
		issues[iss.ID] = iss
	}

	sc := &scene{
		width:  int(maxX-minX) + nodeWidth + 2*padding,
		height: int(maxY-minY) + nodeHeight + 2*padding,
	}

	for _, d := range opts.Edges {
		src, ok := byID[d.Source]
		if !ok {
			continue
		}
		dst, ok := byID[d.Target]
		if !ok {
			continue
		}
		edge := sceneEdge{
			x1: src.Position.X - minX + padding + nodeWidth/2,
			y1: src.Position.Y - minY + padding + nodeHeight,
			x2: dst.Position.X - minX + padding + nodeWidth/2,
			y2: dst.Position.Y - minY + padding,
		}
		if d.Type == model.DepBlockedBy {
			edge.color = blockedEdge
			edge.dashed = true
		} else {
			edge.color = subIssueEdge
		}
		sc.edges = append(sc.edges, edge)
	}

	for _, n := range opts.Nodes {
		node := sceneNode{
			x:      n.Position.X - minX + padding,
			y:      n.Position.Y - minY + padding,
			fill:   openFill,
			stroke: openStroke,
		}
		if iss, ok := issues[n.ID]; ok {
			node.title = iss.Title
			if iss.State == model.StateClosed {
				node.fill = closedFill
				node.stroke = closedStroke
			}
		}
		if node.title == "" {
			node.title = n.ID
		}
		sc.nodes = append(sc.nodes, node)
	}
	return sc
}

func (sc *scene) renderSVG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	canvas := svg.New(f)
	canvas.Start(sc.width, sc.height)
	canvas.Rect(0, 0, sc.width, sc.height, "fill:"+background)

	for _, e := range sc.edges {
		style := fmt.Sprintf("stroke:%s;stroke-width:2;fill:none", e.color)
		if e.dashed {
			style += ";stroke-dasharray:6,4"
		}
		canvas.Line(int(e.x1), int(e.y1), int(e.x2), int(e.y2), style)
	}
	for _, n := range sc.nodes {
		canvas.Roundrect(int(n.x), int(n.y), nodeWidth, nodeHeight, 6, 6,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", n.fill, n.stroke))
		canvas.Text(int(n.x)+nodeWidth/2, int(n.y)+nodeHeight/2+4, truncate(n.title, 30),
			"text-anchor:middle;font-family:sans-serif;font-size:13px;fill:"+titleColor)
	}
	canvas.End()
	return nil
}

func (sc *scene) renderPNG(path string) error {
	dc := gg.NewContext(sc.width, sc.height)
	dc.SetHexColor(background)
	dc.Clear()

	for _, e := range sc.edges {
		dc.SetHexColor(e.color)
		dc.SetLineWidth(2)
		if e.dashed {
			dc.SetDash(6, 4)
		} else {
			dc.SetDash()
		}
		dc.DrawLine(e.x1, e.y1, e.x2, e.y2)
		dc.Stroke()
	}
	dc.SetDash()

	for _, n := range sc.nodes {
		dc.DrawRoundedRectangle(n.x, n.y, nodeWidth, nodeHeight, 6)
		dc.SetHexColor(n.fill)
		dc.FillPreserve()
		dc.SetHexColor(n.stroke)
		dc.SetLineWidth(1.5)
		dc.Stroke()

		dc.SetHexColor(titleColor)
		dc.DrawStringAnchored(truncate(n.title, 30), n.x+nodeWidth/2, n.y+nodeHeight/2, 0.5, 0.35)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
