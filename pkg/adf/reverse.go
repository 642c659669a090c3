package adf

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// admonitionNames is the inverse of panelTypes for the reverse direction.
var admonitionNames = map[string]string{
	"info":    "NOTE",
	"success": "TIP",
	"warning": "WARNING",
	"error":   "CAUTION",
}

// jiraBrowsePattern extracts an issue key from a Jira browse URL.
var jiraBrowsePattern = regexp.MustCompile(`/browse/([A-Z][A-Z0-9]*-\d+)`)

// ReverseOptions configure a ReverseConverter.
type ReverseOptions struct {
	// FileIDToFilename maps Confluence attachment file ids back to the
	// filenames used in image macros.
	FileIDToFilename map[string]string
	// JiraBaseURL, when set, lets links into that Jira instance collapse
	// to jira:KEY[] macros.
	JiraBaseURL string
	Logger      Logger
}

// ReverseConverter walks an ADF tree and emits equivalent asciidoc text.
type ReverseConverter struct {
	fileIDToName map[string]string
	jiraBaseURL  string
	logger       Logger
}

// NewReverseConverter builds a ReverseConverter from options.
func NewReverseConverter(opts ReverseOptions) *ReverseConverter {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &ReverseConverter{
		fileIDToName: opts.FileIDToFilename,
		jiraBaseURL:  opts.JiraBaseURL,
		logger:       logger,
	}
}

// revContext threads list nesting and table-cell state through the walk.
type revContext struct {
	listDepth int
	bullet    bool
	inCell    bool
}

// Convert renders a document to asciidoc source text.
func (rc *ReverseConverter) Convert(doc *Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	ctx := revContext{}
	for _, n := range doc.Content {
		sb.WriteString(rc.renderNode(n, ctx))
	}
	return sb.String()
}

func (rc *ReverseConverter) renderNodes(nodes []*Node, ctx revContext) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(rc.renderNode(n, ctx))
	}
	return sb.String()
}

func (rc *ReverseConverter) renderNode(n *Node, ctx revContext) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case TypeHeading:
		level, _ := attrInt(n.Attrs, "level")
		if level < 1 {
			level = 1
		}
		return fmt.Sprintf("\n%s %s\n", strings.Repeat("=", level), rc.inlineText(n.Content, ctx))
	case TypeParagraph:
		text := rc.inlineText(n.Content, ctx)
		if strings.TrimSpace(text) == "" {
			return ""
		}
		if ctx.inCell || ctx.listDepth > 0 {
			return text + "\n"
		}
		return text + "\n\n"
	case TypeBulletList, TypeOrderedList:
		return rc.renderList(n, ctx)
	case TypeTable:
		return rc.renderTable(n, ctx)
	case TypeCodeBlock:
		return rc.renderCodeBlock(n)
	case TypePanel:
		return rc.renderPanel(n, ctx)
	case TypeBlockquote:
		return "\n[quote]\n____\n" + strings.TrimSpace(rc.renderNodes(n.Content, ctx)) + "\n____\n\n"
	case TypeRule:
		return "\n'''\n\n"
	case TypeHardBreak:
		return " +\n"
	case TypeMediaSingle:
		return rc.renderMediaSingle(n)
	case TypeMedia:
		return rc.renderMedia(n, false)
	case TypeMediaInline:
		return rc.renderMedia(n, true)
	case TypeMention:
		if text, ok := n.Attrs["text"].(string); ok {
			return text
		}
		return ""
	case TypeText:
		return rc.renderText(n, ctx)
	case TypeExtension:
		return rc.renderExtension(n)
	case TypeInlineExtension:
		return rc.renderInlineExtension(n)
	case TypeInlineCard:
		return rc.renderInlineCard(n)
	default:
		// Forward compatible: recurse into content when present.
		if len(n.Content) > 0 {
			return rc.renderNodes(n.Content, ctx)
		}
		return ""
	}
}

// inlineText renders inline children without block spacing.
func (rc *ReverseConverter) inlineText(nodes []*Node, ctx revContext) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n.Type == TypeText {
			sb.WriteString(rc.renderText(n, ctx))
			continue
		}
		sb.WriteString(rc.renderNode(n, ctx))
	}
	return sb.String()
}

// renderText applies mark syntax around a text node. Links into the
// configured Jira instance collapse to the jira issue macro.
func (rc *ReverseConverter) renderText(n *Node, ctx revContext) string {
	text := n.Text
	var href string
	for _, mark := range n.Marks {
		switch mark.Type {
		case "strong":
			text = "*" + text + "*"
		case "em":
			text = "_" + text + "_"
		case "code":
			text = "`" + text + "`"
		case "strike":
			text = "[.line-through]#" + text + "#"
		case "underline":
			text = "[.underline]#" + text + "#"
		case "sub":
			text = "~" + text + "~"
		case "sup":
			text = "^" + text + "^"
		case "link":
			if url, ok := mark.Attrs["href"].(string); ok {
				if key := rc.jiraIssueKey(url); key != "" {
					return "jira:" + key + "[]"
				}
				href = url
			}
		}
	}
	if href != "" {
		text = "link:" + href + "[" + text + "]"
	}
	if ctx.inCell {
		text = strings.ReplaceAll(text, "|", "\\|")
		text = strings.ReplaceAll(text, "\\\\|", "\\|")
	}
	return text
}

func (rc *ReverseConverter) jiraIssueKey(url string) string {
	if rc.jiraBaseURL == "" || !strings.Contains(url, rc.jiraBaseURL) {
		return ""
	}
	if m := jiraBrowsePattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

func (rc *ReverseConverter) renderList(n *Node, ctx revContext) string {
	ctx.listDepth++
	ctx.bullet = n.Type == TypeBulletList
	marker := "."
	if ctx.bullet {
		marker = "*"
	}
	marker = strings.Repeat(marker, ctx.listDepth)

	var items []string
	for _, item := range n.Content {
		if item.Type != TypeListItem {
			continue
		}
		items = append(items, rc.renderListItem(item, marker, ctx))
	}
	joined := strings.Join(items, "\n")
	if ctx.inCell || ctx.listDepth > 1 {
		return "\n" + joined
	}
	return "\n" + joined + "\n\n"
}

func (rc *ReverseConverter) renderListItem(item *Node, marker string, ctx revContext) string {
	var lines []string
	for _, child := range item.Content {
		switch child.Type {
		case TypeParagraph:
			text := strings.TrimRight(rc.inlineText(child.Content, ctx), "\n")
			if len(lines) == 0 {
				lines = append(lines, marker+" "+text)
			} else if text != "" {
				lines = append(lines, "  "+text)
			}
		case TypeBulletList, TypeOrderedList:
			nested := strings.TrimRight(rc.renderNode(child, ctx), "\n")
			if len(lines) == 0 {
				lines = append(lines, marker+nested)
			} else {
				lines = append(lines, strings.TrimPrefix(nested, "\n"))
			}
		default:
			if text := strings.TrimSpace(rc.renderNode(child, ctx)); text != "" {
				lines = append(lines, "  "+text)
			}
		}
	}
	if len(lines) == 0 {
		lines = append(lines, marker)
	}
	return strings.Join(lines, "\n")
}

func (rc *ReverseConverter) renderTable(n *Node, ctx revContext) string {
	var sb strings.Builder
	sb.WriteString("|===\n")
	for _, row := range n.Content {
		if row.Type != TypeTableRow {
			continue
		}
		var cells []string
		for _, cell := range row.Content {
			text, complex := rc.renderTableCell(cell, ctx)
			if complex {
				cells = append(cells, "a| "+text)
			} else {
				cells = append(cells, "| "+text)
			}
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	sb.WriteString("|===\n")
	return sb.String()
}

// renderTableCell renders a cell body, reporting whether it needs the a|
// asciidoc cell style (block content or multiple lines).
func (rc *ReverseConverter) renderTableCell(cell *Node, ctx revContext) (string, bool) {
	ctx.inCell = true
	complex := false
	var lines []string
	hadParagraph := false
	for _, child := range cell.Content {
		switch child.Type {
		case TypeBulletList, TypeOrderedList, TypeCodeBlock, TypePanel:
			complex = true
			if hadParagraph && len(lines) > 0 {
				lines = append(lines, "")
			}
		}
		if text := strings.TrimSpace(rc.renderNode(child, ctx)); text != "" {
			lines = append(lines, text)
		}
		hadParagraph = child.Type == TypeParagraph
	}
	text := strings.Join(lines, "\n")
	return text, complex || strings.Contains(text, "\n")
}

func (rc *ReverseConverter) renderCodeBlock(n *Node) string {
	language := DefaultCodeLanguage
	if lang, ok := n.Attrs["language"].(string); ok && lang != "" {
		language = lang
	}
	var code strings.Builder
	for _, child := range n.Content {
		if child.Type == TypeText {
			code.WriteString(child.Text)
		}
	}
	return fmt.Sprintf("\n[source,%s]\n----\n%s\n----\n", language, code.String())
}

func (rc *ReverseConverter) renderPanel(n *Node, ctx revContext) string {
	panelType, _ := n.Attrs["panelType"].(string)
	name, ok := admonitionNames[panelType]
	if !ok {
		name = "NOTE"
	}
	body := strings.TrimSpace(rc.renderNodes(n.Content, ctx))
	return fmt.Sprintf("\n[%s]\n====\n%s\n====\n\n", name, body)
}

func (rc *ReverseConverter) renderMediaSingle(n *Node) string {
	for _, child := range n.Content {
		if child.Type == TypeMedia {
			return "\n" + rc.renderMedia(child, false)
		}
	}
	return ""
}

// renderMedia emits an image macro, mapping the media id back to a
// filename when a mapping exists. Ids with no extension assume png so the
// produced asciidoc still points at a real file.
func (rc *ReverseConverter) renderMedia(n *Node, inline bool) string {
	id, _ := n.Attrs["id"].(string)
	alt, _ := n.Attrs["alt"].(string)
	filename := id
	if name, ok := rc.fileIDToName[id]; ok && name != "" {
		filename = name
	}
	if filename == "" {
		return ""
	}
	if !strings.Contains(filename, ".") {
		filename += ".png"
	}
	if inline {
		return "image:" + filename + "[]"
	}
	if alt != "" {
		return fmt.Sprintf(".%s\nimage::%s[]\n", alt, filename)
	}
	return fmt.Sprintf("image::%s[]\n", filename)
}

func (rc *ReverseConverter) renderExtension(n *Node) string {
	key, _ := n.Attrs["extensionKey"].(string)
	switch key {
	case "toc":
		return "\n:toc:\n"
	case "jira-jql-snapshot":
		return rc.renderJQLSnapshot(n)
	default:
		rc.logger.Debug("dropping unknown extension", "key", key)
		return ""
	}
}

// jqlSnapshot mirrors the macroParams payload of the jira-jql-snapshot
// Confluence macro.
type jqlSnapshot struct {
	Levels []struct {
		Title          string `json:"title"`
		JQL            string `json:"jql"`
		FieldsPosition []struct {
			Available bool `json:"available"`
			Value     struct {
				ID string `json:"id"`
			} `json:"value"`
		} `json:"fieldsPosition"`
	} `json:"levels"`
}

// renderJQLSnapshot turns a jira-jql-snapshot extension back into the
// jiraIssuesTable block macro it was authored as.
func (rc *ReverseConverter) renderJQLSnapshot(n *Node) string {
	raw := extensionMacroParam(n, "macroParams")
	if raw == "" {
		return ""
	}
	var snapshot jqlSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil || len(snapshot.Levels) == 0 {
		rc.logger.Warn("unparseable jira-jql-snapshot payload", "error", err)
		return ""
	}
	level := snapshot.Levels[0]
	var fields []string
	for _, f := range level.FieldsPosition {
		if f.Available && f.Value.ID != "" {
			fields = append(fields, f.Value.ID)
		}
	}
	var sb strings.Builder
	if level.Title != "" {
		sb.WriteString("\n." + level.Title + "\n")
	}
	sb.WriteString(fmt.Sprintf("\njiraIssuesTable::[%q, fields=%q]\n", level.JQL, strings.Join(fields, ",")))
	return sb.String()
}

func (rc *ReverseConverter) renderInlineExtension(n *Node) string {
	key, _ := n.Attrs["extensionKey"].(string)
	switch key {
	case "jira":
		if issue := extensionMacroParamValue(n, "key"); issue != "" {
			return "jira:" + issue + "[]"
		}
		return ""
	case "anchor":
		if id := extensionMacroParamValue(n, ""); id != "" {
			return "[[" + id + "]]"
		}
		return ""
	case "toc":
		return ""
	default:
		rc.logger.Debug("dropping unknown inline extension", "key", key)
		return ""
	}
}

func (rc *ReverseConverter) renderInlineCard(n *Node) string {
	url, _ := n.Attrs["url"].(string)
	if url == "" {
		return ""
	}
	if key := rc.jiraIssueKey(url); key != "" {
		return "jira:" + key + "[]"
	}
	if m := jiraBrowsePattern.FindStringSubmatch(url); m != nil {
		return "jira:" + m[1] + "[]"
	}
	return "link:" + url + "[" + url + "]"
}

// extensionMacroParamValue digs attrs.parameters.macroParams.<name>.value
// out of an extension node.
func extensionMacroParamValue(n *Node, name string) string {
	params, ok := n.Attrs["parameters"].(map[string]any)
	if !ok {
		return ""
	}
	macroParams, ok := params["macroParams"].(map[string]any)
	if !ok {
		return ""
	}
	entry, ok := macroParams[name].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := entry["value"].(string)
	return value
}

// extensionMacroParam handles the doubly nested macroParams.macroParams
// shape the jira-jql-snapshot macro stores its JSON payload under.
func extensionMacroParam(n *Node, name string) string {
	params, ok := n.Attrs["parameters"].(map[string]any)
	if !ok {
		return ""
	}
	macroParams, ok := params["macroParams"].(map[string]any)
	if !ok {
		return ""
	}
	if inner, ok := macroParams[name].(map[string]any); ok {
		if nested, ok := inner[name].(map[string]any); ok {
			value, _ := nested["value"].(string)
			return value
		}
		value, _ := inner["value"].(string)
		return value
	}
	return ""
}
