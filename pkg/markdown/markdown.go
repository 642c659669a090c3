// Package markdown converts Markdown documents to ADF. It backs the
// alternate .md input path of the convert command.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
)

var mdParser = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// ToADF converts Markdown source into an ADF document tree.
func ToADF(source []byte) (*adf.Document, error) {
	if len(source) == 0 {
		return adf.NewDocument(nil), nil
	}
	root := mdParser.Parser().Parse(text.NewReader(source))
	conv := &converter{source: source}
	return adf.NewDocument(conv.convertChildren(root)), nil
}

type converter struct {
	source []byte
}

func (c *converter) convertChildren(n ast.Node) []*adf.Node {
	var nodes []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if node := c.convertBlock(child); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (c *converter) convertBlock(n ast.Node) *adf.Node {
	switch node := n.(type) {
	case *ast.Paragraph:
		if content := c.convertInlineChildren(node); len(content) > 0 {
			return adf.Paragraph(content)
		}
		return nil
	case *ast.TextBlock:
		if content := c.convertInlineChildren(node); len(content) > 0 {
			return adf.Paragraph(content)
		}
		return nil
	case *ast.Heading:
		return adf.Heading(node.Level, c.convertInlineChildren(node))
	case *ast.List:
		return c.convertList(node)
	case *ast.FencedCodeBlock:
		return adf.CodeBlock(string(node.Language(c.source)), c.blockText(node))
	case *ast.CodeBlock:
		return adf.CodeBlock("", c.blockText(node))
	case *ast.Blockquote:
		return adf.Blockquote(c.convertChildren(node))
	case *ast.ThematicBreak:
		return adf.Rule()
	case *extast.Table:
		return c.convertTable(node)
	default:
		return nil
	}
}

func (c *converter) convertList(n *ast.List) *adf.Node {
	var items []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if item, ok := child.(*ast.ListItem); ok {
			items = append(items, adf.ListItem(c.convertChildren(item)))
		}
	}
	if n.IsOrdered() {
		return adf.OrderedList(items)
	}
	return adf.BulletList(items)
}

func (c *converter) blockText(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(c.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (c *converter) convertTable(n *extast.Table) *adf.Node {
	var rows []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			rows = append(rows, c.convertTableRow(row, true))
		case *extast.TableRow:
			rows = append(rows, c.convertTableRow(row, false))
		}
	}
	return adf.TableNode(rows)
}

func (c *converter) convertTableRow(n ast.Node, header bool) *adf.Node {
	var cells []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		cell, ok := child.(*extast.TableCell)
		if !ok {
			continue
		}
		content := c.convertInlineChildren(cell)
		cells = append(cells, adf.TableCellNode(header, 1, 1, []*adf.Node{adf.Paragraph(content)}))
	}
	return adf.TableRowNode(cells)
}

func (c *converter) convertInlineChildren(n ast.Node) []*adf.Node {
	var nodes []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		nodes = append(nodes, c.convertInline(child, nil)...)
	}
	return nodes
}

func (c *converter) convertInline(n ast.Node, marks []*adf.Mark) []*adf.Node {
	switch node := n.(type) {
	case *ast.Text:
		return c.textNode(string(node.Segment.Value(c.source)), marks)
	case *ast.String:
		return c.textNode(string(node.Value), marks)
	case *ast.Emphasis:
		markType := "em"
		if node.Level == 2 {
			markType = "strong"
		}
		return c.convertMarked(node, marks, &adf.Mark{Type: markType})
	case *extast.Strikethrough:
		return c.convertMarked(node, marks, &adf.Mark{Type: "strike"})
	case *ast.CodeSpan:
		return c.textNode(c.rawText(node), appendMark(marks, &adf.Mark{Type: "code"}))
	case *ast.Link:
		return c.convertMarked(node, marks, adf.LinkMark(string(node.Destination)))
	case *ast.AutoLink:
		url := string(node.URL(c.source))
		return c.textNode(url, appendMark(marks, adf.LinkMark(url)))
	case *ast.Image:
		alt := c.rawText(node)
		if alt == "" {
			alt = string(node.Destination)
		}
		return c.textNode(alt, marks)
	case *ast.RawHTML:
		return nil
	default:
		var nodes []*adf.Node
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			nodes = append(nodes, c.convertInline(child, marks)...)
		}
		return nodes
	}
}

func (c *converter) convertMarked(n ast.Node, marks []*adf.Mark, mark *adf.Mark) []*adf.Node {
	newMarks := appendMark(marks, mark)
	var nodes []*adf.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		nodes = append(nodes, c.convertInline(child, newMarks)...)
	}
	return nodes
}

func (c *converter) rawText(n ast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(c.source))
		}
	}
	return b.String()
}

func (c *converter) textNode(text string, marks []*adf.Mark) []*adf.Node {
	if text == "" {
		return nil
	}
	return []*adf.Node{adf.Text(text, marks...)}
}

func appendMark(marks []*adf.Mark, mark *adf.Mark) []*adf.Mark {
	out := make([]*adf.Mark, len(marks), len(marks)+1)
	copy(out, marks)
	return append(out, mark)
}
