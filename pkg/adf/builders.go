package adf

import (
	"fmt"

	"github.com/google/uuid"
)

// Node type names emitted by the builders.
const (
	TypeDoc             = "doc"
	TypeParagraph       = "paragraph"
	TypeHeading         = "heading"
	TypeBulletList      = "bulletList"
	TypeOrderedList     = "orderedList"
	TypeListItem        = "listItem"
	TypeTable           = "table"
	TypeTableRow        = "tableRow"
	TypeTableCell       = "tableCell"
	TypeTableHeader     = "tableHeader"
	TypeCodeBlock       = "codeBlock"
	TypePanel           = "panel"
	TypeBlockquote      = "blockquote"
	TypeRule            = "rule"
	TypeHardBreak       = "hardBreak"
	TypeText            = "text"
	TypeMedia           = "media"
	TypeMediaSingle     = "mediaSingle"
	TypeMediaInline     = "mediaInline"
	TypeMention         = "mention"
	TypeExtension       = "extension"
	TypeInlineExtension = "inlineExtension"
	TypeInlineCard      = "inlineCard"
)

// macroCoreExtensionType is the extension type of built-in Confluence macros.
const macroCoreExtensionType = "com.atlassian.confluence.macro.core"

// DefaultCodeLanguage is used when a listing declares no language.
const DefaultCodeLanguage = "plaintext"

// Text builds a text node. Empty text is a caller bug: handlers must drop
// empty spans before building, so this fails fast instead of emitting an
// invalid node.
func Text(text string, marks ...*Mark) *Node {
	if text == "" {
		panic("adf: empty text node")
	}
	n := &Node{Type: TypeText, Text: text}
	if len(marks) > 0 {
		n.Marks = marks
	}
	return n
}

// Paragraph builds a paragraph. content may be empty but never contains
// nil entries.
func Paragraph(content []*Node) *Node {
	return &Node{Type: TypeParagraph, Content: compact(content)}
}

// Heading builds a heading at the given ADF level (1-based).
func Heading(level int, content []*Node) *Node {
	return &Node{
		Type:    TypeHeading,
		Attrs:   map[string]any{"level": level},
		Content: compact(content),
	}
}

// BulletList wraps list items in a bulletList node.
func BulletList(items []*Node) *Node {
	return &Node{Type: TypeBulletList, Content: compact(items)}
}

// OrderedList wraps list items in an orderedList node.
func OrderedList(items []*Node) *Node {
	return &Node{Type: TypeOrderedList, Content: compact(items)}
}

// ListItem wraps block content in a listItem node.
func ListItem(content []*Node) *Node {
	return &Node{Type: TypeListItem, Content: compact(content)}
}

// TableNode wraps rows in a table node with default layout.
func TableNode(rows []*Node) *Node {
	return &Node{
		Type:    TypeTable,
		Attrs:   map[string]any{"layout": "default"},
		Content: compact(rows),
	}
}

// TableRowNode wraps cells in a tableRow node.
func TableRowNode(cells []*Node) *Node {
	return &Node{Type: TypeTableRow, Content: compact(cells)}
}

// TableCellNode builds a tableCell or tableHeader node. Zero spans default
// to 1.
func TableCellNode(header bool, colspan, rowspan int, content []*Node) *Node {
	if colspan < 1 {
		colspan = 1
	}
	if rowspan < 1 {
		rowspan = 1
	}
	cellType := TypeTableCell
	if header {
		cellType = TypeTableHeader
	}
	return &Node{
		Type:    cellType,
		Attrs:   map[string]any{"colspan": colspan, "rowspan": rowspan},
		Content: compact(content),
	}
}

// CodeBlock builds a codeBlock node. A blank language defaults to
// "plaintext". Empty code yields a codeBlock with no text child.
func CodeBlock(language, code string) *Node {
	if language == "" {
		language = DefaultCodeLanguage
	}
	n := &Node{
		Type:  TypeCodeBlock,
		Attrs: map[string]any{"language": language},
	}
	if code != "" {
		n.Content = []*Node{Text(code)}
	}
	return n
}

// Panel wraps content in a panel of the given type (info, note, warning,
// error, success).
func Panel(panelType string, content []*Node) *Node {
	return &Node{
		Type:    TypePanel,
		Attrs:   map[string]any{"panelType": panelType},
		Content: compact(content),
	}
}

// Blockquote wraps content in a blockquote node.
func Blockquote(content []*Node) *Node {
	return &Node{Type: TypeBlockquote, Content: compact(content)}
}

// Rule builds a horizontal rule node.
func Rule() *Node { return &Node{Type: TypeRule} }

// HardBreak builds a hard line break node.
func HardBreak() *Node { return &Node{Type: TypeHardBreak} }

// LinkMark builds a link mark pointing at href.
func LinkMark(href string) *Mark {
	return &Mark{Type: "link", Attrs: map[string]any{"href": href}}
}

// MediaAttrs carries the attributes of a media / mediaInline node.
type MediaAttrs struct {
	ID            string
	Collection    string
	Alt           string
	Width         *int
	Height        *int
	OccurrenceKey string
}

// Media builds a media node of type "file". A missing occurrence key is
// generated.
func Media(attrs MediaAttrs) *Node {
	return &Node{Type: TypeMedia, Attrs: mediaAttrMap(attrs)}
}

// MediaInline builds a mediaInline node of type "file".
func MediaInline(attrs MediaAttrs) *Node {
	return &Node{Type: TypeMediaInline, Attrs: mediaAttrMap(attrs)}
}

func mediaAttrMap(attrs MediaAttrs) map[string]any {
	collection := attrs.Collection
	if collection == "" {
		collection = "attachments"
	}
	key := attrs.OccurrenceKey
	if key == "" {
		key = uuid.NewString()
	}
	m := map[string]any{
		"type":          "file",
		"id":            attrs.ID,
		"collection":    collection,
		"occurrenceKey": key,
	}
	if attrs.Alt != "" {
		m["alt"] = attrs.Alt
	}
	if attrs.Width != nil {
		m["width"] = *attrs.Width
	}
	if attrs.Height != nil {
		m["height"] = *attrs.Height
	}
	return m
}

// MediaSingle wraps one media node in a mediaSingle container.
func MediaSingle(layout string, media *Node) *Node {
	if layout == "" {
		layout = "center"
	}
	return &Node{
		Type:    TypeMediaSingle,
		Attrs:   map[string]any{"layout": layout},
		Content: []*Node{media},
	}
}

// Mention builds a mention node for a user id and display text.
func Mention(id, text string) *Node {
	return &Node{
		Type:  TypeMention,
		Attrs: map[string]any{"id": id, "text": text},
	}
}

// InlineExtension builds an inlineExtension node with macro parameters.
func InlineExtension(extensionType, key string, macroParams map[string]any) *Node {
	return &Node{
		Type:  TypeInlineExtension,
		Attrs: extensionAttrs(extensionType, key, macroParams),
	}
}

// Extension builds a block-level extension node with macro parameters.
func Extension(extensionType, key string, macroParams map[string]any) *Node {
	return &Node{
		Type:  TypeExtension,
		Attrs: extensionAttrs(extensionType, key, macroParams),
	}
}

func extensionAttrs(extensionType, key string, macroParams map[string]any) map[string]any {
	if macroParams == nil {
		macroParams = map[string]any{}
	}
	return map[string]any{
		"extensionType": extensionType,
		"extensionKey":  key,
		"parameters": map[string]any{
			"macroParams": macroParams,
		},
		"layout": "default",
	}
}

// AnchorExtension builds the Confluence anchor macro node for an id. The
// empty-string key carries the id; legacyAnchorId keeps pre-migration
// anchors resolvable.
func AnchorExtension(id string) *Node {
	return InlineExtension(macroCoreExtensionType, "anchor", map[string]any{
		"": map[string]any{
			"value": id,
		},
		"legacyAnchorId": map[string]any{
			"value": fmt.Sprintf("LEGACY-%s", id),
		},
	})
}

// TOCExtension builds the Confluence table-of-contents macro node.
func TOCExtension() *Node {
	return InlineExtension(macroCoreExtensionType, "toc", map[string]any{})
}

// compact drops nil entries and normalizes nil slices to empty ones so
// content arrays never serialize with null members.
func compact(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
