// Package pending tracks insertion points for nodes that do not exist yet:
// a user right-clicks empty canvas, a form or search panel opens, and the
// entity that eventually appears should land at the click point.
package pending

import (
	"context"
	"sync"

	"github.com/stonebell/issuegraph/pkg/model"
)

// PositionStore is the slice of the cache client the coordinator persists
// through. Both methods are best-effort.
type PositionStore interface {
	SavedPositions(ctx context.Context, projectID string) map[string]model.NodePosition
	SavePositions(ctx context.Context, projectID string, positions map[string]model.NodePosition)
}

// Coordinator assigns positions to newly appearing entity identities.
//
// Two paths exist: Reserve earmarks a coordinate for whatever identity is
// observed next (the search panel, where the ID is unknown until the API
// answers), and Assign maps a known identity immediately (the create form,
// where the ID is composed client-side). At most one reservation is live at
// a time; a new one silently replaces an unconsumed one.
type Coordinator struct {
	mu        sync.Mutex
	projectID string
	store     PositionStore

	positions map[string]model.NodePosition
	reserved  *model.NodePosition
	prevIDs   map[string]struct{}
}

// New creates a Coordinator for one project-view lifetime. store may be
// nil, in which case assignments are held in memory only.
func New(projectID string, store PositionStore) *Coordinator {
	return &Coordinator{
		projectID: projectID,
		store:     store,
		positions: map[string]model.NodePosition{},
		prevIDs:   map[string]struct{}{},
	}
}

// Reserve stores pos as the single outstanding reservation, discarding any
// prior unconsumed one.
func (c *Coordinator) Reserve(pos model.NodePosition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := pos
	c.reserved = &p
}

// Assign immediately maps identity → pos, persists it, and clears any
// outstanding reservation (consumed by this explicit call).
func (c *Coordinator) Assign(ctx context.Context, identity string, pos model.NodePosition) {
	c.mu.Lock()
	c.reserved = nil
	c.mu.Unlock()
	c.apply(ctx, []string{identity}, pos)
}

// AssignReserved assigns the outstanding reservation to identity and clears
// it. No-op without a reservation.
func (c *Coordinator) AssignReserved(ctx context.Context, identity string) {
	c.mu.Lock()
	if c.reserved == nil {
		c.mu.Unlock()
		return
	}
	pos := *c.reserved
	c.reserved = nil
	c.mu.Unlock()
	c.apply(ctx, []string{identity}, pos)
}

// ClearReserved discards the outstanding reservation without assigning it.
func (c *Coordinator) ClearReserved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved = nil
}

// Observe feeds the current set of known entity identities. When the set
// gains identities relative to the previous observation and a reservation
// is outstanding, the reservation is assigned to every new identity and
// cleared. The very first observation only establishes the baseline.
func (c *Coordinator) Observe(ctx context.Context, ids []string) {
	current := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	c.mu.Lock()
	var added []string
	var pos model.NodePosition
	if c.reserved != nil && len(c.prevIDs) > 0 {
		for _, id := range ids {
			if _, ok := c.prevIDs[id]; !ok {
				added = append(added, id)
			}
		}
		if len(added) > 0 {
			pos = *c.reserved
			c.reserved = nil
		}
	}
	c.prevIDs = current
	c.mu.Unlock()

	if len(added) > 0 {
		c.apply(ctx, added, pos)
	}
}

// HasReservation reports whether a reservation is outstanding.
func (c *Coordinator) HasReservation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved != nil
}

// Position returns the working position for an identity.
func (c *Coordinator) Position(identity string) (model.NodePosition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.positions[identity]
	return pos, ok
}

// Positions returns a copy of the working position map.
func (c *Coordinator) Positions() map[string]model.NodePosition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.NodePosition, len(c.positions))
	for id, pos := range c.positions {
		out[id] = pos
	}
	return out
}

// apply records pos for the given identities and persists read-merge-write
// so other saved nodes survive the update.
func (c *Coordinator) apply(ctx context.Context, identities []string, pos model.NodePosition) {
	c.mu.Lock()
	for _, id := range identities {
		c.positions[id] = pos
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	saved := c.store.SavedPositions(ctx, c.projectID)
	if saved == nil {
		saved = map[string]model.NodePosition{}
	}
	for _, id := range identities {
		saved[id] = pos
	}
	c.store.SavePositions(ctx, c.projectID, saved)
}
