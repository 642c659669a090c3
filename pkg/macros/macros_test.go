package macros

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/asciidoc"
)

type fakeJira struct {
	issues []api.Issue
	fields []api.Field
	users  map[string]*api.User
	err    error

	lastJQL    string
	lastFields []string
}

func (f *fakeJira) QueryIssues(_ context.Context, jql string, fields []string) ([]api.Issue, error) {
	f.lastJQL = jql
	f.lastFields = fields
	return f.issues, f.err
}

func (f *fakeJira) GetFieldMetadata(context.Context) ([]api.Field, error) {
	return f.fields, nil
}

func (f *fakeJira) FindUserByName(_ context.Context, query string) (*api.User, error) {
	return f.users[query], nil
}

func staticResolver(values map[string]string) Resolver {
	return ResolverFunc(func(key string) string { return values[key] })
}

func TestJiraInline(t *testing.T) {
	p := New(staticResolver(map[string]string{"jira-base-url": "https://example.atlassian.net/"}), nil)

	out, err := p.JiraInline("DEMO-42", nil)
	require.NoError(t, err)

	var node map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &node))
	assert.Equal(t, "inlineCard", node["type"])
	attrs := node["attrs"].(map[string]any)
	assert.Equal(t, "https://example.atlassian.net/browse/DEMO-42", attrs["url"])
}

func TestJiraInline_MissingBaseURL(t *testing.T) {
	p := New(nil, nil)
	_, err := p.JiraInline("DEMO-42", nil)
	require.Error(t, err)
}

func TestMentionInline(t *testing.T) {
	jira := &fakeJira{users: map[string]*api.User{
		"Jamie Doe": {AccountID: "acc-1", DisplayName: "Jamie Doe", Active: true},
	}}
	p := New(nil, jira)

	out, err := p.MentionInline("Jamie_Doe", nil)
	require.NoError(t, err)

	var node map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &node))
	assert.Equal(t, "mention", node["type"])
	attrs := node["attrs"].(map[string]any)
	assert.Equal(t, "acc-1", attrs["id"])
	assert.Equal(t, "@Jamie Doe", attrs["text"])
}

func TestMentionInline_UnknownUser(t *testing.T) {
	p := New(nil, &fakeJira{users: map[string]*api.User{}})
	_, err := p.MentionInline("Nobody", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nobody")
}

func TestJiraIssuesTable(t *testing.T) {
	jira := &fakeJira{
		fields: []api.Field{
			{ID: "summary", Name: "Summary"},
			{ID: "status", Name: "Status"},
			{ID: "customfield_10010", Name: "Story Points", Custom: true},
		},
		issues: []api.Issue{
			{Key: "DEMO-1", Fields: map[string]any{
				"summary":           "First issue",
				"status":            map[string]any{"name": "Done"},
				"customfield_10010": float64(5),
			}},
			{Key: "DEMO-2", Fields: map[string]any{
				"summary":           "Second issue",
				"status":            map[string]any{"name": "Open"},
				"customfield_10010": nil,
			}},
		},
	}
	p := New(nil, jira)

	attrs := map[string]string{"1": "project = DEMO", "fields": "Summary, Status, Story Points"}
	node, err := p.JiraIssuesTable("", attrs, asciidoc.ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, "project = DEMO", jira.lastJQL)
	assert.Equal(t, []string{"summary", "status", "customfield_10010"}, jira.lastFields)

	require.Equal(t, asciidoc.KindTable, node.Kind)
	require.NotNil(t, node.Table)
	require.Len(t, node.Table.Head, 1)
	head := node.Table.Head[0]
	require.Len(t, head.Cells, 4)
	assert.Equal(t, "Key", head.Cells[0].Text)
	assert.Equal(t, "Story Points", head.Cells[3].Text)
	assert.Equal(t, asciidoc.CellHeader, head.Cells[0].Style)

	require.Len(t, node.Table.Body, 2)
	first := node.Table.Body[0]
	assert.Equal(t, "DEMO-1", first.Cells[0].Text)
	assert.Equal(t, "First issue", first.Cells[1].Text)
	assert.Equal(t, "Done", first.Cells[2].Text)
	assert.Equal(t, "5", first.Cells[3].Text)
	assert.Equal(t, "", node.Table.Body[1].Cells[3].Text)
}

func TestJiraIssuesTable_QueryFailure(t *testing.T) {
	jira := &fakeJira{err: fmt.Errorf("boom")}
	p := New(nil, jira)

	_, err := p.JiraIssuesTable("", map[string]string{"1": "project = DEMO"}, asciidoc.ParseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestJiraIssuesTable_LiteralFallbackThroughParser(t *testing.T) {
	parser := asciidoc.NewParser()
	p := New(nil, nil) // no Jira client: the macro errors out
	p.Register(parser)

	doc, err := parser.Parse("jiraIssuesTable::[\"project = DEMO\", fields=\"Summary\"]\n", asciidoc.ParseOptions{})
	require.NoError(t, err)

	require.Len(t, doc.Root.Blocks, 1)
	block := doc.Root.Blocks[0]
	assert.Equal(t, asciidoc.KindParagraph, block.Kind)
	assert.Contains(t, block.Text, "jiraIssuesTable::")
}

func TestFieldText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"nil", nil, ""},
		{"integer float", float64(3), "3"},
		{"fractional float", 2.5, "2.5"},
		{"named object", map[string]any{"name": "Done", "id": "1"}, "Done"},
		{"display name", map[string]any{"displayName": "Jamie Doe"}, "Jamie Doe"},
		{"list", []any{map[string]any{"name": "bug"}, "triage"}, "bug, triage"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldText(tt.in))
		})
	}
}
