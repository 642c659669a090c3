package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Jira exposes the Jira Cloud endpoints the macro layer needs: JQL
// search, field metadata and user lookup.
type Jira struct {
	*Client
}

// NewJira creates a Jira client.
func NewJira(baseURL, email, apiToken string) *Jira {
	return &Jira{Client: NewClient(baseURL, email, apiToken)}
}

// searchRequest is the v3 JQL search request body.
type searchRequest struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields,omitempty"`
	MaxResults int      `json:"maxResults"`
	StartAt    int      `json:"startAt"`
}

// searchResponse is the v3 JQL search response shape.
type searchResponse struct {
	Issues     []Issue `json:"issues"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
}

// QueryIssues runs a JQL query and returns all matching issues with the
// requested fields, paging until the result set is exhausted.
func (j *Jira) QueryIssues(ctx context.Context, jql string, fields []string) ([]Issue, error) {
	var issues []Issue
	startAt := 0
	for {
		req := &searchRequest{
			JQL:        jql,
			Fields:     fields,
			MaxResults: 50,
			StartAt:    startAt,
		}
		body, err := j.Post(ctx, "/rest/api/3/search", req)
		if err != nil {
			return nil, err
		}
		var result searchResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse search response: %w", err)
		}
		issues = append(issues, result.Issues...)
		startAt += len(result.Issues)
		if len(result.Issues) == 0 || startAt >= result.Total {
			break
		}
	}
	return issues, nil
}

// GetFieldMetadata returns all field definitions, custom fields included.
// The macro layer uses it to map display names to field ids.
func (j *Jira) GetFieldMetadata(ctx context.Context) ([]Field, error) {
	body, err := j.Get(ctx, "/rest/api/3/field")
	if err != nil {
		return nil, err
	}
	var fields []Field
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse field metadata: %w", err)
	}
	return fields, nil
}

// FindUserByName looks up an Atlassian account by display name or email.
// Returns nil without error when nobody matches.
func (j *Jira) FindUserByName(ctx context.Context, query string) (*User, error) {
	params := url.Values{}
	params.Set("query", query)
	body, err := j.Get(ctx, "/rest/api/3/user/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user search response: %w", err)
	}
	for i := range users {
		if users[i].Active {
			return &users[i], nil
		}
	}
	if len(users) > 0 {
		return &users[0], nil
	}
	return nil, nil
}
