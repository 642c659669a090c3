// Package macros implements the Atlassian-specific AsciiDoc macros:
// jira:KEY[] issue links, jiraIssuesTable::[] JQL snapshots and
// mention:name[] user mentions. Each processor renders structured node
// JSON (or a source table) that the conversion layer picks up.
package macros

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/asciidoc"
)

// Resolver supplies configuration values to macro processors. Lookups
// cascade document attributes, the config file and the environment.
type Resolver interface {
	Resolve(key string) string
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(key string) string

func (f ResolverFunc) Resolve(key string) string { return f(key) }

// IssueSearcher is the Jira surface the macros need. *api.Jira
// implements it.
type IssueSearcher interface {
	QueryIssues(ctx context.Context, jql string, fields []string) ([]api.Issue, error)
	GetFieldMetadata(ctx context.Context) ([]api.Field, error)
	FindUserByName(ctx context.Context, query string) (*api.User, error)
}

// Processor holds the shared dependencies of the macro set.
type Processor struct {
	resolver Resolver
	jira     IssueSearcher
}

// New creates a Processor. jira may be nil; macros that need it fail
// with an error, which parsers treat as "keep the literal macro text".
func New(resolver Resolver, jira IssueSearcher) *Processor {
	if resolver == nil {
		resolver = ResolverFunc(func(string) string { return "" })
	}
	return &Processor{resolver: resolver, jira: jira}
}

// Register installs all macro processors on a parser.
func (p *Processor) Register(parser *asciidoc.DocParser) {
	parser.RegisterInlineMacro("jira", p.JiraInline)
	parser.RegisterInlineMacro("mention", p.MentionInline)
	parser.RegisterBlockMacro("jiraIssuesTable", p.JiraIssuesTable)
}

// JiraInline renders jira:KEY[] as an inlineCard pointing at the issue's
// browse URL.
func (p *Processor) JiraInline(target string, attrs map[string]string) (string, error) {
	key := strings.TrimSpace(target)
	if key == "" {
		return "", fmt.Errorf("jira macro requires an issue key")
	}
	baseURL := strings.TrimSuffix(p.resolver.Resolve("jira-base-url"), "/")
	if baseURL == "" {
		return "", fmt.Errorf("jira macro requires jira-base-url")
	}
	node := map[string]any{
		"type": "inlineCard",
		"attrs": map[string]any{
			"url": baseURL + "/browse/" + key,
		},
	}
	return marshalNode(node)
}

// MentionInline renders mention:name[] as a mention node, resolving the
// account id through Jira user search.
func (p *Processor) MentionInline(target string, attrs map[string]string) (string, error) {
	name := strings.ReplaceAll(strings.TrimSpace(target), "_", " ")
	if name == "" {
		return "", fmt.Errorf("mention macro requires a name")
	}
	if p.jira == nil {
		return "", fmt.Errorf("mention macro requires a Jira client")
	}
	user, err := p.jira.FindUserByName(context.Background(), name)
	if err != nil {
		return "", fmt.Errorf("user lookup for %q failed: %w", name, err)
	}
	if user == nil {
		return "", fmt.Errorf("no user matches %q", name)
	}
	data, err := json.Marshal(adf.Mention(user.AccountID, "@"+user.DisplayName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JiraIssuesTable renders jiraIssuesTable::["jql", fields="a,b"] as a
// source table of matching issues, one column per requested field plus a
// leading Key column.
func (p *Processor) JiraIssuesTable(target string, attrs map[string]string, opts asciidoc.ParseOptions) (*asciidoc.Node, error) {
	jql := strings.TrimSpace(attrs["1"])
	if jql == "" {
		jql = strings.TrimSpace(target)
	}
	if jql == "" {
		return nil, fmt.Errorf("jiraIssuesTable requires a JQL query")
	}
	if p.jira == nil {
		return nil, fmt.Errorf("jiraIssuesTable requires a Jira client")
	}

	fieldNames := splitFields(attrs["fields"])
	if len(fieldNames) == 0 {
		fieldNames = []string{"Summary", "Status"}
	}
	ctx := context.Background()
	fieldIDs, err := p.resolveFieldIDs(ctx, fieldNames)
	if err != nil {
		return nil, err
	}
	issues, err := p.jira.QueryIssues(ctx, jql, fieldIDs)
	if err != nil {
		return nil, fmt.Errorf("JQL query failed: %w", err)
	}

	head := &asciidoc.TableRow{Cells: []*asciidoc.TableCell{headerCell("Key")}}
	for _, name := range fieldNames {
		head.Cells = append(head.Cells, headerCell(name))
	}

	table := &asciidoc.Table{Head: []*asciidoc.TableRow{head}}
	for _, issue := range issues {
		row := &asciidoc.TableRow{Cells: []*asciidoc.TableCell{textCell(issue.Key)}}
		for _, id := range fieldIDs {
			row.Cells = append(row.Cells, textCell(fieldText(issue.Fields[id])))
		}
		table.Body = append(table.Body, row)
	}

	return &asciidoc.Node{Kind: asciidoc.KindTable, Table: table}, nil
}

// resolveFieldIDs maps display names to field ids via the field
// metadata endpoint. Names with no match pass through unchanged, which
// covers callers that already use ids.
func (p *Processor) resolveFieldIDs(ctx context.Context, names []string) ([]string, error) {
	meta, err := p.jira.GetFieldMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("field metadata lookup failed: %w", err)
	}
	byName := make(map[string]string, len(meta))
	for _, f := range meta {
		byName[strings.ToLower(f.Name)] = f.ID
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := byName[strings.ToLower(name)]; ok {
			ids = append(ids, id)
			continue
		}
		ids = append(ids, name)
	}
	return ids, nil
}

func splitFields(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// fieldText flattens a Jira field value to display text. Object values
// use their name/displayName/value member, lists join with commas.
func fieldText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case map[string]any:
		for _, key := range []string{"displayName", "name", "value"} {
			if s, ok := val[key].(string); ok && s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			parts = append(parts, fieldText(val[k]))
		}
		return strings.Join(parts, " ")
	case []any:
		var parts []string
		for _, item := range val {
			if s := fieldText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func headerCell(text string) *asciidoc.TableCell {
	return &asciidoc.TableCell{Style: asciidoc.CellHeader, ColSpan: 1, RowSpan: 1, Text: text}
}

func textCell(text string) *asciidoc.TableCell {
	return &asciidoc.TableCell{Style: asciidoc.CellDefault, ColSpan: 1, RowSpan: 1, Text: text}
}

func marshalNode(node map[string]any) (string, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
