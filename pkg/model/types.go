// Package model defines the canonical issue and dependency types shared by
// the parsing, layout, and assembly layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Issue represents a single issue-tracker item rendered as a graph node.
// The ID is the composite identity "owner/repo#number" and is the sole
// de-duplication key: two issues with the same ID are the same entity
// regardless of attribute drift.
type Issue struct {
	ID          string            `json:"id"`
	ItemID      string            `json:"itemId,omitempty"`
	Number      int               `json:"number"`
	Owner       string            `json:"owner"`
	Repo        string            `json:"repo"`
	Title       string            `json:"title"`
	State       State             `json:"state"`
	Body        string            `json:"body"`
	Labels      []Label           `json:"labels,omitempty"`
	Assignees   []Assignee        `json:"assignees,omitempty"`
	URL         string            `json:"url"`
	FieldValues map[string]string `json:"fieldValues,omitempty"`
}

// BuildIssueID composes the canonical "owner/repo#number" identity.
func BuildIssueID(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

// ParseIssueID splits a composite identity back into its parts.
func ParseIssueID(id string) (owner, repo string, number int, err error) {
	ownerRepo, num, ok := strings.Cut(id, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("malformed issue ID %q: missing '#'", id)
	}
	owner, repo, ok = strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", 0, fmt.Errorf("malformed issue ID %q: missing 'owner/repo'", id)
	}
	number, err = strconv.Atoi(num)
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed issue ID %q: bad number: %w", id, err)
	}
	return owner, repo, number, nil
}

// Clone creates a deep copy of the issue.
func (i Issue) Clone() Issue {
	clone := i

	if i.Labels != nil {
		clone.Labels = make([]Label, len(i.Labels))
		copy(clone.Labels, i.Labels)
	}
	if i.Assignees != nil {
		clone.Assignees = make([]Assignee, len(i.Assignees))
		copy(clone.Assignees, i.Assignees)
	}
	if i.FieldValues != nil {
		clone.FieldValues = make(map[string]string, len(i.FieldValues))
		for k, v := range i.FieldValues {
			clone.FieldValues[k] = v
		}
	}

	return clone
}

// Validate checks if the issue data is logically valid.
func (i *Issue) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("issue ID cannot be empty")
	}
	if i.Number <= 0 {
		return fmt.Errorf("issue number must be positive, got %d", i.Number)
	}
	if !i.State.IsValid() {
		return fmt.Errorf("invalid state: %s", i.State)
	}
	if want := BuildIssueID(i.Owner, i.Repo, i.Number); i.ID != want {
		return fmt.Errorf("issue ID %q does not match owner/repo/number (%q)", i.ID, want)
	}
	return nil
}

// Label is a name/color pair attached to an issue.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Assignee is a user assigned to an issue.
type Assignee struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// State represents the lifecycle state of an issue.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// IsValid returns true if the state is a recognized value.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateClosed
}

// Dependency is a directed graph edge between two issue identities.
// For DepBlockedBy the source is the blocking item and the target is the
// blocked item. Edges are always re-derived from the current item set and
// never persisted or mutated independently.
type Dependency struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   DependencyType `json:"type"`
}

// Key returns the de-duplication key "{type}:{source}-{target}".
func (d Dependency) Key() string {
	return string(d.Type) + ":" + d.Source + "-" + d.Target
}

// DependencyType categorizes the relationship.
type DependencyType string

const (
	DepSubIssue  DependencyType = "sub_issue"
	DepBlockedBy DependencyType = "blocked_by"
)

// IsValid returns true if the dependency type is a recognized value.
func (t DependencyType) IsValid() bool {
	return t == DepSubIssue || t == DepBlockedBy
}

// NodePosition is a 2D coordinate on the graph canvas.
type NodePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
