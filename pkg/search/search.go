// Package search provides fuzzy lookup over loaded issues, backing the
// "find an existing item to place on the canvas" flow.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/stonebell/issuegraph/pkg/model"
)

// Result is one matched issue with its match score.
type Result struct {
	Issue model.Issue
	Score int
}

// Index holds a searchable snapshot of issues.
type Index struct {
	issues  []model.Issue
	targets []string
}

// NewIndex builds an Index over the given issues. Each issue is matched
// against "owner/repo#number title".
func NewIndex(issues []model.Issue) *Index {
	idx := &Index{
		issues:  make([]model.Issue, len(issues)),
		targets: make([]string, len(issues)),
	}
	copy(idx.issues, issues)
	for i, iss := range issues {
		idx.targets[i] = iss.ID + " " + iss.Title
	}
	return idx
}

// Len returns the number of indexed issues.
func (idx *Index) Len() int {
	return len(idx.issues)
}

// Find returns issues fuzzy-matching query, best score first. An empty or
// whitespace query returns every issue in index order with a zero score.
func (idx *Index) Find(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Result, len(idx.issues))
		for i, iss := range idx.issues {
			out[i] = Result{Issue: iss}
		}
		return out
	}

	matches := fuzzy.Find(query, idx.targets)
	out := make([]Result, 0, len(matches))
	for _, match := range matches {
		out = append(out, Result{Issue: idx.issues[match.Index], Score: match.Score})
	}
	return out
}

// FindN is Find capped at n results. n <= 0 means no cap.
func (idx *Index) FindN(query string, n int) []Result {
	results := idx.Find(query)
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}
