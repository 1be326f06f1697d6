package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// GraphQLDoer executes a GraphQL query and decodes the response data into
// response. Implementations may talk to the API directly or through the
// console proxy.
type GraphQLDoer interface {
	Do(ctx context.Context, query string, variables map[string]any, response any) error
}

// APIError is a remote API failure surfaced to callers. The core performs
// no automatic retry; rendering layers show it inline.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("github api: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("github api: %s", e.Status)
}

const projectItemsQuery = `
query($projectId: ID!, $cursor: String) {
  node(id: $projectId) {
    ... on ProjectV2 {
      items(first: 100, after: $cursor) {
        pageInfo { hasNextPage endCursor }
        nodes {
          id
          content {
            ... on Issue {
              number title state body url
              repository { owner { login } name }
              labels(first: 20) { nodes { name color } }
              assignees(first: 10) { nodes { login avatarUrl } }
              subIssues(first: 50) {
                nodes { number repository { owner { login } name } }
              }
              blockedBy(first: 50) {
                nodes { number repository { owner { login } name } }
              }
              blocking(first: 50) {
                nodes { number repository { owner { login } name } }
              }
            }
          }
          fieldValues(first: 20) {
            nodes {
              ... on ProjectV2ItemFieldSingleSelectValue { field { ... on ProjectV2FieldCommon { id } } optionId }
              ... on ProjectV2ItemFieldIterationValue { field { ... on ProjectV2FieldCommon { id } } iterationId }
            }
          }
        }
      }
    }
  }
}`

const orgProjectsQuery = `
query($owner: String!, $cursor: String) {
  organization(login: $owner) {
    projectsV2(first: 100, after: $cursor) {
      nodes { id title number }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const projectFieldsQuery = `
query($projectId: ID!) {
  node(id: $projectId) {
    ... on ProjectV2 {
      fields(first: 50) {
        nodes {
          ... on ProjectV2FieldCommon { id name dataType }
          ... on ProjectV2SingleSelectField { options { id name } }
          ... on ProjectV2IterationField { configuration { iterations { id title } } }
        }
      }
    }
  }
}`

// Client fetches ProjectV2 data through a GraphQL doer.
type Client struct {
	gql GraphQLDoer
	log *slog.Logger
}

// NewClient creates a Client. A nil logger falls back to slog.Default.
func NewClient(gql GraphQLDoer, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{gql: gql, log: log}
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// FetchAllItems retrieves every item page of a project before returning.
// Dependency derivation needs the full set: cross-references may point at
// items appearing on later pages.
func (c *Client) FetchAllItems(ctx context.Context, projectID string) ([]Item, error) {
	var all []Item
	var cursor *string

	for {
		var resp struct {
			Node struct {
				Items struct {
					PageInfo pageInfo `json:"pageInfo"`
					Nodes    []Item   `json:"nodes"`
				} `json:"items"`
			} `json:"node"`
		}
		variables := map[string]any{"projectId": projectID, "cursor": cursor}
		if err := c.gql.Do(ctx, projectItemsQuery, variables, &resp); err != nil {
			return nil, fmt.Errorf("fetch project items for %q: %w", projectID, err)
		}

		all = append(all, resp.Node.Items.Nodes...)
		if !resp.Node.Items.PageInfo.HasNextPage {
			break
		}
		end := resp.Node.Items.PageInfo.EndCursor
		cursor = &end
	}

	c.log.Debug("fetched project items", "project_id", projectID, "count", len(all))
	return all, nil
}

// ListOrgProjects fetches all ProjectV2 projects of an organization.
func (c *Client) ListOrgProjects(ctx context.Context, org string) ([]Project, error) {
	var projects []Project
	var cursor *string

	for {
		var resp struct {
			Organization struct {
				ProjectsV2 struct {
					Nodes    []Project `json:"nodes"`
					PageInfo pageInfo  `json:"pageInfo"`
				} `json:"projectsV2"`
			} `json:"organization"`
		}
		variables := map[string]any{"owner": org, "cursor": cursor}
		if err := c.gql.Do(ctx, orgProjectsQuery, variables, &resp); err != nil {
			return nil, fmt.Errorf("list projects for org %q: %w", org, err)
		}

		projects = append(projects, resp.Organization.ProjectsV2.Nodes...)
		if !resp.Organization.ProjectsV2.PageInfo.HasNextPage {
			break
		}
		end := resp.Organization.ProjectsV2.PageInfo.EndCursor
		cursor = &end
	}

	return projects, nil
}

// FetchProjectFields retrieves the filterable fields of a project.
func (c *Client) FetchProjectFields(ctx context.Context, projectID string) ([]ProjectField, error) {
	var resp struct {
		Node struct {
			Fields struct {
				Nodes []ProjectField `json:"nodes"`
			} `json:"fields"`
		} `json:"node"`
	}
	variables := map[string]any{"projectId": projectID}
	if err := c.gql.Do(ctx, projectFieldsQuery, variables, &resp); err != nil {
		return nil, fmt.Errorf("fetch project fields for %q: %w", projectID, err)
	}

	// Field union members without a common fragment come back as empty
	// objects; drop them.
	fields := make([]ProjectField, 0, len(resp.Node.Fields.Nodes))
	for _, f := range resp.Node.Fields.Nodes {
		if f.ID != "" {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// ProjectData bundles everything needed to assemble a project graph.
type ProjectData struct {
	Items  []Item
	Fields []ProjectField
}

// FetchProjectData retrieves items and fields concurrently.
func (c *Client) FetchProjectData(ctx context.Context, projectID string) (*ProjectData, error) {
	var data ProjectData

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := c.FetchAllItems(ctx, projectID)
		if err != nil {
			return err
		}
		data.Items = items
		return nil
	})
	g.Go(func() error {
		fields, err := c.FetchProjectFields(ctx, projectID)
		if err != nil {
			return err
		}
		data.Fields = fields
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// HTTPGraphQL is a GraphQLDoer over a plain HTTP endpoint, such as the
// console's /api/github/graphql proxy or the GitHub API itself.
type HTTPGraphQL struct {
	Endpoint string
	Token    string // optional bearer token; the proxy injects its own
	Client   *http.Client
}

// Do posts the query and decodes the "data" envelope into response.
func (h *HTTPGraphQL) Do(ctx context.Context, query string, variables map[string]any, response any) error {
	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	hc := h.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("execute graphql request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode graphql envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: envelope.Errors[0].Message}
	}
	if response != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, response); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}
