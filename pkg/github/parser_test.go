package github

import (
	"encoding/json"
	"testing"

	"github.com/stonebell/issuegraph/pkg/model"
)

// itemsFromJSON decodes raw item payloads the way the API client does, so
// tests exercise the content union resolution too.
func itemsFromJSON(t *testing.T, raw string) []Item {
	t.Helper()
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	return items
}

const issueOne = `{
  "id": "PVTI_1",
  "content": {
    "number": 1,
    "title": "Root task",
    "state": "OPEN",
    "body": "do the thing",
    "url": "https://github.com/octo/app/issues/1",
    "repository": {"owner": {"login": "octo"}, "name": "app"},
    "labels": {"nodes": [{"name": "bug", "color": "d73a4a"}]},
    "assignees": {"nodes": [{"login": "alice", "avatarUrl": "https://a.test/alice"}]},
    "subIssues": {"nodes": [{"number": 2, "repository": {"owner": {"login": "octo"}, "name": "app"}}]},
    "blockedBy": {"nodes": []},
    "blocking": {"nodes": []}
  },
  "fieldValues": {"nodes": [
    {"field": {"id": "F_status"}, "optionId": "opt-todo"},
    {"field": {"id": "F_sprint"}, "iterationId": "iter-7"},
    {}
  ]}
}`

func TestParseItems(t *testing.T) {
	items := itemsFromJSON(t, `[`+issueOne+`]`)

	issues := ParseItems(items)
	if len(issues) != 1 {
		t.Fatalf("ParseItems returned %d issues, want 1", len(issues))
	}

	got := issues[0]
	if got.ID != "octo/app#1" {
		t.Errorf("ID = %q, want octo/app#1", got.ID)
	}
	if got.Number != 1 || got.Owner != "octo" || got.Repo != "app" {
		t.Errorf("identity parts = (%d, %q, %q)", got.Number, got.Owner, got.Repo)
	}
	if got.State != model.StateOpen {
		t.Errorf("State = %q, want open", got.State)
	}
	if got.Body != "do the thing" {
		t.Errorf("Body = %q", got.Body)
	}
	if len(got.Labels) != 1 || got.Labels[0].Name != "bug" {
		t.Errorf("Labels = %v", got.Labels)
	}
	if len(got.Assignees) != 1 || got.Assignees[0].Login != "alice" {
		t.Errorf("Assignees = %v", got.Assignees)
	}
	if got.FieldValues["F_status"] != "opt-todo" || got.FieldValues["F_sprint"] != "iter-7" {
		t.Errorf("FieldValues = %v", got.FieldValues)
	}
}

func TestParseItemsExcludesDraftsAndAbsentContent(t *testing.T) {
	items := itemsFromJSON(t, `[
		`+issueOne+`,
		{"id": "PVTI_draft", "content": {}, "fieldValues": {"nodes": []}},
		{"id": "PVTI_none", "content": null, "fieldValues": {"nodes": []}}
	]`)

	issues := ParseItems(items)
	if len(issues) != 1 {
		t.Fatalf("ParseItems returned %d issues, want 1 (drafts excluded)", len(issues))
	}

	// Drafts are excluded as edge endpoints too: they produce no edges.
	deps := ParseDependencies(items[1:])
	if len(deps) != 0 {
		t.Errorf("drafts produced %d dependencies, want 0", len(deps))
	}
}

func TestParseItemsNormalizesNullBody(t *testing.T) {
	items := itemsFromJSON(t, `[{
		"id": "PVTI_2",
		"content": {
			"number": 3,
			"title": "No body",
			"state": "CLOSED",
			"body": null,
			"url": "",
			"repository": {"owner": {"login": "octo"}, "name": "app"},
			"labels": {"nodes": []},
			"assignees": {"nodes": []},
			"subIssues": {"nodes": []},
			"blockedBy": {"nodes": []},
			"blocking": {"nodes": []}
		},
		"fieldValues": {"nodes": []}
	}]`)

	issues := ParseItems(items)
	if len(issues) != 1 {
		t.Fatalf("ParseItems returned %d issues", len(issues))
	}
	if issues[0].Body != "" {
		t.Errorf("Body = %q, want empty string", issues[0].Body)
	}
	if issues[0].State != model.StateClosed {
		t.Errorf("State = %q, want closed", issues[0].State)
	}
}

// twoWayBlocked has issue 1 declaring it blocks issue 2 and issue 2
// declaring it is blocked by issue 1: the same relationship seen from both
// ends.
const twoWayBlocked = `[
	{
		"id": "PVTI_1",
		"content": {
			"number": 1, "title": "Blocker", "state": "OPEN", "body": "", "url": "",
			"repository": {"owner": {"login": "o"}, "name": "r"},
			"labels": {"nodes": []}, "assignees": {"nodes": []},
			"subIssues": {"nodes": []},
			"blockedBy": {"nodes": []},
			"blocking": {"nodes": [{"number": 2, "repository": {"owner": {"login": "o"}, "name": "r"}}]}
		},
		"fieldValues": {"nodes": []}
	},
	{
		"id": "PVTI_2",
		"content": {
			"number": 2, "title": "Blocked", "state": "OPEN", "body": "", "url": "",
			"repository": {"owner": {"login": "o"}, "name": "r"},
			"labels": {"nodes": []}, "assignees": {"nodes": []},
			"subIssues": {"nodes": []},
			"blockedBy": {"nodes": [{"number": 1, "repository": {"owner": {"login": "o"}, "name": "r"}}]},
			"blocking": {"nodes": []}
		},
		"fieldValues": {"nodes": []}
	}
]`

func TestParseDependenciesDeduplicatesBothDirections(t *testing.T) {
	items := itemsFromJSON(t, twoWayBlocked)

	deps := ParseDependencies(items)
	if len(deps) != 1 {
		t.Fatalf("ParseDependencies returned %d edges, want 1", len(deps))
	}
	want := model.Dependency{Source: "o/r#1", Target: "o/r#2", Type: model.DepBlockedBy}
	if deps[0] != want {
		t.Errorf("edge = %+v, want %+v", deps[0], want)
	}

	// Never a duplicate (source, target, type) triple on any input.
	seen := map[string]bool{}
	for _, d := range deps {
		if seen[d.Key()] {
			t.Errorf("duplicate edge key %q", d.Key())
		}
		seen[d.Key()] = true
	}
}

func TestParseDependenciesOppositeBlockedByPairs(t *testing.T) {
	// A blocks B and B blocks A are distinct relationships and must both
	// survive: the dedup key includes direction.
	items := itemsFromJSON(t, `[{
		"id": "PVTI_1",
		"content": {
			"number": 1, "title": "A", "state": "OPEN", "body": "", "url": "",
			"repository": {"owner": {"login": "o"}, "name": "r"},
			"labels": {"nodes": []}, "assignees": {"nodes": []},
			"subIssues": {"nodes": []},
			"blockedBy": {"nodes": [{"number": 2, "repository": {"owner": {"login": "o"}, "name": "r"}}]},
			"blocking": {"nodes": [{"number": 2, "repository": {"owner": {"login": "o"}, "name": "r"}}]}
		},
		"fieldValues": {"nodes": []}
	}]`)

	deps := ParseDependencies(items)
	if len(deps) != 2 {
		t.Fatalf("ParseDependencies returned %d edges, want 2 opposite edges", len(deps))
	}
}

func TestParseDependenciesCrossRepo(t *testing.T) {
	items := itemsFromJSON(t, `[{
		"id": "PVTI_1",
		"content": {
			"number": 1, "title": "Parent", "state": "OPEN", "body": "", "url": "",
			"repository": {"owner": {"login": "octo"}, "name": "app"},
			"labels": {"nodes": []}, "assignees": {"nodes": []},
			"subIssues": {"nodes": [{"number": 9, "repository": {"owner": {"login": "octo"}, "name": "lib"}}]},
			"blockedBy": {"nodes": []},
			"blocking": {"nodes": []}
		},
		"fieldValues": {"nodes": []}
	}]`)

	deps := ParseDependencies(items)
	if len(deps) != 1 {
		t.Fatalf("ParseDependencies returned %d edges", len(deps))
	}
	if deps[0].Target != "octo/lib#9" {
		t.Errorf("cross-repo target = %q, want octo/lib#9", deps[0].Target)
	}
}

func TestMatchesFilters(t *testing.T) {
	items := itemsFromJSON(t, `[`+issueOne+`]`)
	item := items[0]

	cases := []struct {
		name    string
		filters map[string]string
		want    bool
	}{
		{"no filters", nil, true},
		{"matching option", map[string]string{"F_status": "opt-todo"}, true},
		{"matching iteration", map[string]string{"F_sprint": "iter-7"}, true},
		{"both match", map[string]string{"F_status": "opt-todo", "F_sprint": "iter-7"}, true},
		{"empty value ignored", map[string]string{"F_status": ""}, true},
		{"wrong value", map[string]string{"F_status": "opt-done"}, false},
		{"unknown field", map[string]string{"F_missing": "x"}, false},
		{"one of two fails", map[string]string{"F_status": "opt-todo", "F_sprint": "iter-8"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchesFilters(item, tc.filters); got != tc.want {
				t.Errorf("MatchesFilters = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterByState(t *testing.T) {
	issues := []model.Issue{
		{ID: "o/r#1", State: model.StateOpen},
		{ID: "o/r#2", State: model.StateClosed},
	}

	if got := FilterByState(issues, "open"); len(got) != 1 || got[0].ID != "o/r#1" {
		t.Errorf("FilterByState(open) = %v", got)
	}
	if got := FilterByState(issues, "all"); len(got) != 2 {
		t.Errorf("FilterByState(all) = %v", got)
	}
	if got := FilterByState(issues, ""); len(got) != 2 {
		t.Errorf("FilterByState(\"\") = %v", got)
	}
}

func TestContentRoundTrip(t *testing.T) {
	items := itemsFromJSON(t, `[`+issueOne+`, {"id": "PVTI_d", "content": {}, "fieldValues": {"nodes": []}}]`)

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back []Item
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !back[0].Content.IsIssue() {
		t.Errorf("issue content lost through round trip")
	}
	if back[1].Content.IsIssue() {
		t.Errorf("draft content became an issue through round trip")
	}
	if len(ParseItems(back)) != 1 {
		t.Errorf("round-tripped items parse differently")
	}
}
