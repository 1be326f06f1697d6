package github

import (
	"strings"

	"github.com/stonebell/issuegraph/pkg/model"
)

// ParseItems converts raw project items into canonical issues. Items whose
// content is not a real issue (drafts, pull requests stripped to an empty
// fragment, absent content) are excluded. Pure function.
func ParseItems(items []Item) []model.Issue {
	issues := make([]model.Issue, 0, len(items))
	for _, item := range items {
		c, ok := item.Content.IssueOf()
		if !ok {
			continue
		}

		owner := c.Repository.Owner.Login
		repo := c.Repository.Name

		fieldValues := map[string]string{}
		for _, fv := range item.FieldValues.Nodes {
			if fv.Field == nil || fv.Field.ID == "" {
				continue
			}
			if v := fv.Value(); v != "" {
				fieldValues[fv.Field.ID] = v
			}
		}

		body := ""
		if c.Body != nil {
			body = *c.Body
		}

		labels := make([]model.Label, 0, len(c.Labels.Nodes))
		for _, l := range c.Labels.Nodes {
			labels = append(labels, model.Label{Name: l.Name, Color: l.Color})
		}

		assignees := make([]model.Assignee, 0, len(c.Assignees.Nodes))
		for _, a := range c.Assignees.Nodes {
			assignees = append(assignees, model.Assignee{Login: a.Login, AvatarURL: a.AvatarURL})
		}

		issues = append(issues, model.Issue{
			ID:          model.BuildIssueID(owner, repo, c.Number),
			ItemID:      item.ID,
			Number:      c.Number,
			Owner:       owner,
			Repo:        repo,
			Title:       c.Title,
			State:       model.State(strings.ToLower(c.State)),
			Body:        body,
			Labels:      labels,
			Assignees:   assignees,
			URL:         c.URL,
			FieldValues: fieldValues,
		})
	}
	return issues
}

// ParseDependencies derives graph edges from the sub-issue, blocked-by, and
// blocking references of raw project items. blockedBy and blocking describe
// the same underlying relationship from both ends, so duplicates are
// suppressed with a seen-set keyed by "{type}:{source}-{target}".
// Pure function.
func ParseDependencies(items []Item) []model.Dependency {
	deps := []model.Dependency{}
	seen := map[string]struct{}{}

	add := func(d model.Dependency) {
		key := d.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		deps = append(deps, d)
	}

	for _, item := range items {
		c, ok := item.Content.IssueOf()
		if !ok {
			continue
		}
		currentID := model.BuildIssueID(c.Repository.Owner.Login, c.Repository.Name, c.Number)

		// Sub-issues: parent -> child.
		for _, sub := range c.SubIssues.Nodes {
			add(model.Dependency{
				Source: currentID,
				Target: refID(sub),
				Type:   model.DepSubIssue,
			})
		}

		// blockedBy: the referenced issue blocks the current one.
		for _, blocker := range c.BlockedBy.Nodes {
			add(model.Dependency{
				Source: refID(blocker),
				Target: currentID,
				Type:   model.DepBlockedBy,
			})
		}

		// blocking: the current issue blocks the referenced one.
		for _, blocked := range c.Blocking.Nodes {
			add(model.Dependency{
				Source: currentID,
				Target: refID(blocked),
				Type:   model.DepBlockedBy,
			})
		}
	}
	return deps
}

func refID(ref IssueRef) string {
	return model.BuildIssueID(ref.Repository.Owner.Login, ref.Repository.Name, ref.Number)
}

// MatchesFilters reports whether every non-empty (fieldID, value) pair in
// filters matches one of the item's resolved field values. Empty filter
// values are ignored rather than treated as "must be absent".
func MatchesFilters(item Item, filters map[string]string) bool {
	for fieldID, value := range filters {
		if value == "" {
			continue
		}
		matched := false
		for _, fv := range item.FieldValues.Nodes {
			if fv.Field != nil && fv.Field.ID == fieldID && (fv.OptionID == value || fv.IterationID == value) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// FilterItems returns the raw items matching all supplied field filters.
func FilterItems(items []Item, filters map[string]string) []Item {
	if len(filters) == 0 {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if MatchesFilters(item, filters) {
			out = append(out, item)
		}
	}
	return out
}

// FilterByState keeps only the issues in the given state. An empty state or
// "all" keeps everything.
func FilterByState(issues []model.Issue, state string) []model.Issue {
	if state == "" || state == "all" {
		return issues
	}
	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.State == model.State(state) {
			out = append(out, issue)
		}
	}
	return out
}
