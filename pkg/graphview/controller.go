// Package graphview orchestrates the render-ready view of one project's
// dependency graph: it runs parsed issues through the layout engine,
// restores persisted positions, folds in optimistic and pending-position
// state, and keeps edges current as authoritative data changes.
package graphview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stonebell/issuegraph/pkg/debounce"
	"github.com/stonebell/issuegraph/pkg/layout"
	"github.com/stonebell/issuegraph/pkg/model"
	"github.com/stonebell/issuegraph/pkg/optimistic"
	"github.com/stonebell/issuegraph/pkg/pending"
)

// ErrNoProject is returned by operations that require a selected project.
var ErrNoProject = errors.New("no project selected")

// State is the per-project lifecycle of the view.
type State int

const (
	// StateUninitialized means no layout has been attempted for the
	// current project.
	StateUninitialized State = iota
	// StateLayingOut means the initial layout is in flight.
	StateLayingOut
	// StateReady means nodes have coordinates; data refreshes only
	// recompute edges and insert or drop individual nodes.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLayingOut:
		return "laying_out"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// LayoutEngine is the algorithm the controller delegates coordinate
// assignment to.
type LayoutEngine interface {
	Layout(ctx context.Context, nodes []layout.Node, edges []layout.Edge, direction layout.Direction) ([]layout.Node, error)
}

// PositionStore persists node coordinates per project. Implementations are
// best-effort; a nil map from SavedPositions means nothing saved.
type PositionStore interface {
	SavedPositions(ctx context.Context, projectID string) map[string]model.NodePosition
	SavePositions(ctx context.Context, projectID string, positions map[string]model.NodePosition)
}

// Options configures a Controller.
type Options struct {
	Engine       LayoutEngine
	Store        PositionStore // may be nil
	Direction    layout.Direction
	DebounceWait time.Duration // zero means debounce.DefaultWait
	Logger       *slog.Logger

	// OnLayout is called after an initial layout attempt resolves: either
	// applied, discarded as stale, or failed. Used by callers that need to
	// know when the view turned Ready.
	OnLayout func(projectID string, err error)
}

// Controller owns the view state for one project at a time.
type Controller struct {
	mu sync.Mutex

	engine    LayoutEngine
	store     PositionStore
	direction layout.Direction
	log       *slog.Logger
	onLayout  func(string, error)

	projectID  string
	state      State
	generation uint64

	pending    *pending.Coordinator
	optimistic *optimistic.Set
	saver      *debounce.Debouncer

	issues []model.Issue
	deps   []model.Dependency
	nodes  []layout.Node
	index  map[string]int
}

// New creates a Controller with no project selected.
func New(opts Options) *Controller {
	if opts.Direction == "" {
		opts.Direction = layout.Vertical
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		engine:    opts.Engine,
		store:     opts.Store,
		direction: opts.Direction,
		log:       opts.Logger,
		onLayout:  opts.OnLayout,
		saver:     debounce.New(opts.DebounceWait),
		index:     map[string]int{},
	}
}

// SwitchProject resets the view for a new project ID. Any in-flight layout
// for the previous project is abandoned; its result is discarded if it
// arrives late. Switching to the current project is a no-op.
func (c *Controller) SwitchProject(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if projectID == c.projectID {
		return
	}

	c.saver.Cancel()
	c.generation++
	c.projectID = projectID
	c.state = StateUninitialized
	c.pending = pending.New(projectID, c.store)
	c.optimistic = optimistic.NewSet()
	c.issues = nil
	c.deps = nil
	c.nodes = nil
	c.index = map[string]int{}
}

// ProjectID returns the currently selected project.
func (c *Controller) ProjectID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectID
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nodes returns a copy of the current render-ready node set.
func (c *Controller) Nodes() []layout.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]layout.Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Edges returns a copy of the current dependency edges.
func (c *Controller) Edges() []model.Dependency {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Dependency, len(c.deps))
	copy(out, c.deps)
	return out
}

// Issues returns the merged (authoritative plus optimistic) issue list.
func (c *Controller) Issues() []model.Issue {
	c.mu.Lock()
	opt := c.optimistic
	c.mu.Unlock()
	if opt == nil {
		return nil
	}
	return opt.All()
}

// Node returns the node for an identity.
func (c *Controller) Node(id string) (layout.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return layout.Node{}, false
	}
	return c.nodes[i], true
}

// SetData feeds a fresh authoritative snapshot. The first non-empty
// snapshot for a project triggers the initial layout; while Ready, the
// snapshot only recomputes edges and inserts or drops individual nodes so
// manual arrangement is never disturbed.
func (c *Controller) SetData(ctx context.Context, issues []model.Issue, deps []model.Dependency) {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	c.optimistic.SetAuthoritative(issues)
	merged := c.optimistic.All()
	pend := c.pending
	c.issues = merged
	c.deps = append([]model.Dependency(nil), deps...)
	c.mu.Unlock()

	pend.Observe(ctx, issueIDs(merged))

	c.advance(ctx, merged, gen)
}

// AddIssue merges a locally created issue into the view before the API
// confirms it. The merged list runs through the pending coordinator, so an
// outstanding reservation places the new node; while Ready the node is
// inserted immediately using the pending/saved/origin priority.
func (c *Controller) AddIssue(ctx context.Context, issue model.Issue) {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	c.optimistic.Add(issue)
	merged := c.optimistic.All()
	pend := c.pending
	c.issues = merged
	c.mu.Unlock()

	pend.Observe(ctx, issueIDs(merged))

	c.advance(ctx, merged, gen)
}

// advance drives the state machine with a merged snapshot recorded at
// generation gen. A project switch while the lock was released bumps the
// generation, and the superseded snapshot must not touch the new project's
// state.
func (c *Controller) advance(ctx context.Context, merged []model.Issue, gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	switch {
	case c.state == StateUninitialized && len(merged) > 0:
		c.state = StateLayingOut
		project := c.projectID
		c.mu.Unlock()
		go c.runLayout(ctx, project, gen)
	case c.state == StateReady:
		c.reconcileLocked(ctx, merged)
		c.mu.Unlock()
	default:
		// Uninitialized with nothing to place, or a layout already in
		// flight that will pick up the latest issue set on completion.
		c.mu.Unlock()
	}
}

// Reserve earmarks pos for the next newly observed identity.
func (c *Controller) Reserve(pos model.NodePosition) {
	c.mu.Lock()
	pend := c.pending
	c.mu.Unlock()
	if pend != nil {
		pend.Reserve(pos)
	}
}

// ClearReserved cancels an outstanding reservation.
func (c *Controller) ClearReserved() {
	c.mu.Lock()
	pend := c.pending
	c.mu.Unlock()
	if pend != nil {
		pend.ClearReserved()
	}
}

// AssignPosition maps identity to pos ahead of its appearance.
func (c *Controller) AssignPosition(ctx context.Context, identity string, pos model.NodePosition) {
	c.mu.Lock()
	pend := c.pending
	c.mu.Unlock()
	if pend != nil {
		pend.Assign(ctx, identity, pos)
	}
}

// MoveNode records a user-driven position change and schedules a coalesced
// persistence write, so a drag produces one store write rather than one per
// pixel.
func (c *Controller) MoveNode(ctx context.Context, id string, pos model.NodePosition) {
	c.mu.Lock()
	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.nodes[i].Position = pos
	c.mu.Unlock()

	c.schedulePersist(ctx)
}

// FlushPositions cancels any scheduled write and persists immediately.
func (c *Controller) FlushPositions(ctx context.Context) {
	c.saver.Cancel()
	c.persist(ctx)
}

func (c *Controller) schedulePersist(ctx context.Context) {
	if c.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.saver.Trigger(func() {
		c.persist(ctx)
	})
}

func (c *Controller) persist(ctx context.Context) {
	c.mu.Lock()
	if c.store == nil || c.projectID == "" {
		c.mu.Unlock()
		return
	}
	project := c.projectID
	positions := make(map[string]model.NodePosition, len(c.nodes))
	for _, n := range c.nodes {
		positions[n.ID] = n.Position
	}
	c.mu.Unlock()

	if len(positions) == 0 {
		return
	}
	c.store.SavePositions(ctx, project, positions)
}

// runLayout performs the initial layout for one generation and applies the
// result only if the project has not been switched since.
func (c *Controller) runLayout(ctx context.Context, project string, gen uint64) {
	c.mu.Lock()
	nodes := make([]layout.Node, len(c.issues))
	for i, iss := range c.issues {
		nodes[i] = layout.Node{ID: iss.ID}
	}
	edges := layout.EdgesOf(c.deps)
	direction := c.direction
	c.mu.Unlock()

	laid, err := c.engine.Layout(ctx, nodes, edges, direction)

	var saved map[string]model.NodePosition
	if err == nil && c.store != nil {
		saved = c.store.SavedPositions(ctx, project)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.notifyLayout(project, nil)
		return
	}
	if err != nil {
		c.state = StateUninitialized
		c.mu.Unlock()
		c.log.Error("layout failed", "project_id", project, "error", err)
		c.notifyLayout(project, err)
		return
	}

	// Saved positions win node-by-node; nodes absent from the saved map
	// keep the computed coordinate.
	for i := range laid {
		if pos, ok := saved[laid[i].ID]; ok {
			laid[i].Position = pos
		}
	}
	c.nodes = laid
	c.reindexLocked()
	c.state = StateReady
	c.reconcileLocked(ctx, c.issues)
	c.mu.Unlock()

	c.notifyLayout(project, nil)
}

func (c *Controller) notifyLayout(project string, err error) {
	if c.onLayout != nil {
		c.onLayout(project, err)
	}
}

// reconcileLocked aligns the node set with the merged issue list while
// Ready: vanished issues drop their node, new issues gain one placed by
// pending assignment, then saved position, then the origin. Called with
// c.mu held.
func (c *Controller) reconcileLocked(ctx context.Context, merged []model.Issue) {
	live := make(map[string]struct{}, len(merged))
	for _, iss := range merged {
		live[iss.ID] = struct{}{}
	}

	kept := c.nodes[:0]
	for _, n := range c.nodes {
		if _, ok := live[n.ID]; ok {
			kept = append(kept, n)
		}
	}
	c.nodes = kept
	c.reindexLocked()

	targetSide, sourceSide := layout.SideTop, layout.SideBottom
	if c.direction == layout.Horizontal {
		targetSide, sourceSide = layout.SideLeft, layout.SideRight
	}

	var saved map[string]model.NodePosition
	savedLoaded := false
	for _, iss := range merged {
		if _, ok := c.index[iss.ID]; ok {
			continue
		}
		var pos model.NodePosition
		if p, ok := c.pending.Position(iss.ID); ok {
			pos = p
		} else {
			if !savedLoaded && c.store != nil {
				saved = c.store.SavedPositions(ctx, c.projectID)
				savedLoaded = true
			}
			if p, ok := saved[iss.ID]; ok {
				pos = p
			}
		}
		c.nodes = append(c.nodes, layout.Node{
			ID:         iss.ID,
			Position:   pos,
			TargetSide: targetSide,
			SourceSide: sourceSide,
		})
		c.index[iss.ID] = len(c.nodes) - 1
	}
}

func (c *Controller) reindexLocked() {
	c.index = make(map[string]int, len(c.nodes))
	for i, n := range c.nodes {
		c.index[n.ID] = i
	}
}

func issueIDs(issues []model.Issue) []string {
	ids := make([]string, len(issues))
	for i, iss := range issues {
		ids[i] = iss.ID
	}
	return ids
}
