// Package github converts raw GitHub ProjectV2 API payloads into the
// canonical issue/dependency model and provides the paginated item fetcher.
package github

import "encoding/json"

// Project represents a GitHub ProjectV2.
type Project struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Number int    `json:"number"`
}

// ProjectField describes a ProjectV2 field usable for filtering
// (single-select options or iteration IDs).
type ProjectField struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	DataType      string                  `json:"dataType"`
	Options       []FieldOption           `json:"options,omitempty"`
	Configuration *IterationConfiguration `json:"configuration,omitempty"`
}

// FieldOption is a single-select option of a project field.
type FieldOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IterationConfiguration holds the iterations of an iteration field.
type IterationConfiguration struct {
	Iterations []Iteration `json:"iterations,omitempty"`
}

// Iteration is one iteration of an iteration field.
type Iteration struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Item is a raw ProjectV2 item as returned by the GraphQL API. Its content
// is a discriminated variant: a full issue payload, a draft placeholder, or
// nothing at all. The variant is resolved once, here at the parser boundary,
// and never re-inspected downstream.
type Item struct {
	ID          string         `json:"id"`
	Content     Content        `json:"content"`
	FieldValues FieldValueList `json:"fieldValues"`
}

// contentKind discriminates the raw content union.
type contentKind int

const (
	contentNone contentKind = iota
	contentDraft
	contentIssue
)

// Content is the type-specific fragment of a project item. The GraphQL
// "... on Issue" fragment yields an empty object for draft items and null
// for absent content; both are treated as "not an issue". Presence of the
// identity-bearing number field is the discriminator.
type Content struct {
	kind  contentKind
	issue IssueContent
}

// IssueOf returns the resolved issue payload when the content is a real
// issue, and false for drafts or absent content.
func (c Content) IssueOf() (IssueContent, bool) {
	return c.issue, c.kind == contentIssue
}

// IsIssue reports whether the content carries a real issue payload.
func (c Content) IsIssue() bool {
	return c.kind == contentIssue
}

// UnmarshalJSON resolves the raw content union. null becomes absent content;
// an object without a "number" key is a draft; everything else is an issue.
func (c *Content) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Content{kind: contentNone}
		return nil
	}

	var probe struct {
		Number *int `json:"number"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Number == nil {
		*c = Content{kind: contentDraft}
		return nil
	}

	var issue IssueContent
	if err := json.Unmarshal(data, &issue); err != nil {
		return err
	}
	*c = Content{kind: contentIssue, issue: issue}
	return nil
}

// MarshalJSON round-trips the union so raw items survive the cache blob.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case contentIssue:
		return json.Marshal(c.issue)
	case contentDraft:
		return []byte("{}"), nil
	default:
		return []byte("null"), nil
	}
}

// IssueContent is the issue fragment of a project item.
type IssueContent struct {
	Number     int          `json:"number"`
	Title      string       `json:"title"`
	State      string       `json:"state"`
	Body       *string      `json:"body"`
	URL        string       `json:"url"`
	Repository RepoRef      `json:"repository"`
	Labels     LabelList    `json:"labels"`
	Assignees  AssigneeList `json:"assignees"`
	SubIssues  RefList      `json:"subIssues"`
	BlockedBy  RefList      `json:"blockedBy"`
	Blocking   RefList      `json:"blocking"`
}

// RepoRef identifies the repository an issue or reference belongs to.
// Cross-repository references are legal, so every reference carries its own.
type RepoRef struct {
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	Name string `json:"name"`
}

// IssueRef is a lightweight reference to another issue.
type IssueRef struct {
	Number     int     `json:"number"`
	Repository RepoRef `json:"repository"`
}

// RefList is a GraphQL connection of issue references.
type RefList struct {
	Nodes []IssueRef `json:"nodes"`
}

// LabelList is a GraphQL connection of labels.
type LabelList struct {
	Nodes []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"nodes"`
}

// AssigneeList is a GraphQL connection of assignees.
type AssigneeList struct {
	Nodes []struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatarUrl"`
	} `json:"nodes"`
}

// FieldValueList is a GraphQL connection of resolved project field values.
type FieldValueList struct {
	Nodes []FieldValue `json:"nodes"`
}

// FieldValue is a single project field value. Only single-select and
// iteration values carry data the graph cares about.
type FieldValue struct {
	Field       *FieldRef `json:"field,omitempty"`
	OptionID    string    `json:"optionId,omitempty"`
	IterationID string    `json:"iterationId,omitempty"`
}

// FieldRef identifies the field a value belongs to.
type FieldRef struct {
	ID string `json:"id"`
}

// Value returns the resolved option or iteration ID, preferring the option.
func (fv FieldValue) Value() string {
	if fv.OptionID != "" {
		return fv.OptionID
	}
	return fv.IterationID
}
