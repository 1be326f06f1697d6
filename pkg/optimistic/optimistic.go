// Package optimistic merges locally created entities into the authoritative
// list until the source of truth confirms them.
package optimistic

import (
	"sync"

	"github.com/stonebell/issuegraph/pkg/model"
)

// Set holds issues the client created but the API has not yet echoed back.
// An optimistic issue is dropped the moment an authoritative issue with the
// same identity appears, and never for any other reason.
type Set struct {
	mu            sync.Mutex
	authoritative []model.Issue
	pending       []model.Issue
	overlays      map[string]model.Issue
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{overlays: map[string]model.Issue{}}
}

// Add appends issue to the optimistic set. It is a no-op when an issue with
// the same identity already exists anywhere in the merged result.
func (s *Set) Add(issue model.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containsLocked(issue.ID) {
		return
	}
	s.pending = append(s.pending, issue.Clone())
}

// SetAuthoritative replaces the authoritative list. Optimistic issues whose
// identity now appears authoritatively are dropped, along with any overlay
// for a confirmed identity.
func (s *Set) SetAuthoritative(issues []model.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authoritative = make([]model.Issue, len(issues))
	copy(s.authoritative, issues)

	confirmed := make(map[string]struct{}, len(issues))
	for _, iss := range issues {
		confirmed[iss.ID] = struct{}{}
	}

	kept := s.pending[:0]
	for _, iss := range s.pending {
		if _, ok := confirmed[iss.ID]; ok {
			delete(s.overlays, iss.ID)
			continue
		}
		kept = append(kept, iss)
	}
	s.pending = kept
}

// Update overlays fields onto the optimistic issue with the given identity,
// typically after an edit to a not-yet-confirmed item. No-op for identities
// not in the optimistic set.
func (s *Set) Update(issue model.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.ID == issue.ID {
			s.overlays[issue.ID] = issue.Clone()
			return
		}
	}
}

// All returns the merged list: authoritative issues in their original order
// followed by optimistic issues in insertion order, overlays applied.
func (s *Set) All() []model.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Issue, 0, len(s.authoritative)+len(s.pending))
	out = append(out, s.authoritative...)
	for _, iss := range s.pending {
		if over, ok := s.overlays[iss.ID]; ok {
			out = append(out, over)
			continue
		}
		out = append(out, iss)
	}
	return out
}

// Pending returns the identities still awaiting confirmation.
func (s *Set) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.pending))
	for i, iss := range s.pending {
		ids[i] = iss.ID
	}
	return ids
}

// Contains reports whether identity appears in the merged result.
func (s *Set) Contains(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(identity)
}

func (s *Set) containsLocked(identity string) bool {
	for _, iss := range s.authoritative {
		if iss.ID == identity {
			return true
		}
	}
	for _, iss := range s.pending {
		if iss.ID == identity {
			return true
		}
	}
	return false
}
