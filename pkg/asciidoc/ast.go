// Package asciidoc defines the source document tree consumed by the ADF
// converter, plus the Parser interface the converter expects from a markup
// frontend. A reference line-oriented parser lives in parser.go.
package asciidoc

// Kind discriminates source node types. The set is closed; the forward
// converter switches over it exhaustively.
type Kind int

const (
	KindDocument Kind = iota
	KindPreamble
	KindSection
	KindParagraph
	KindUList
	KindOList
	KindListItem
	KindTable
	KindQuote
	KindAdmonition
	KindListing
	KindLiteral
	KindImage
	KindSidebar
	KindFloatingTitle
	KindThematicBreak
	KindPageBreak
	KindTOC
	KindPass
	KindEmbedded
	KindText
	KindInlineQuoted
	KindInlineAnchor
	KindInlineImage
)

// String returns the lowercase node-kind name, matching the names used in
// attribute maps and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindPreamble:
		return "preamble"
	case KindSection:
		return "section"
	case KindParagraph:
		return "paragraph"
	case KindUList:
		return "ulist"
	case KindOList:
		return "olist"
	case KindListItem:
		return "list_item"
	case KindTable:
		return "table"
	case KindQuote:
		return "quote"
	case KindAdmonition:
		return "admonition"
	case KindListing:
		return "listing"
	case KindLiteral:
		return "literal"
	case KindImage:
		return "image"
	case KindSidebar:
		return "sidebar"
	case KindFloatingTitle:
		return "floating_title"
	case KindThematicBreak:
		return "thematic_break"
	case KindPageBreak:
		return "page_break"
	case KindTOC:
		return "toc"
	case KindPass:
		return "pass"
	case KindEmbedded:
		return "embedded"
	case KindText:
		return "text"
	case KindInlineQuoted:
		return "inline_quoted"
	case KindInlineAnchor:
		return "inline_anchor"
	case KindInlineImage:
		return "inline_image"
	}
	return "unknown"
}

// QuoteType enumerates inline formatting spans.
type QuoteType int

const (
	QuoteStrong QuoteType = iota
	QuoteEmphasis
	QuoteMonospaced
	QuoteSuperscript
	QuoteSubscript
	QuoteUnderline
	QuoteStrikethrough
	QuoteMark
)

// AnchorType distinguishes cross references from external links and plain
// anchor targets.
type AnchorType int

const (
	AnchorRef AnchorType = iota // [[id]] target
	AnchorXref                  // <<id>> / xref:id[]
	AnchorLink                  // link:url[] or bare URL
)

// CellStyle controls how a table cell's content is interpreted.
type CellStyle int

const (
	CellDefault CellStyle = iota
	CellHeader
	CellAsciiDoc // content is a nested asciidoc sub-document
	CellLiteral
)

// Node is one node of the parsed source tree. Fields are populated per
// Kind; unused fields stay zero.
type Node struct {
	Kind       Kind
	Level      int               // section depth, 0-based below the doc title
	ID         string            // anchor id, if declared
	Title      string            // section / block title
	Text       string            // raw inline text for leaf-ish nodes
	Attributes map[string]string // free-form block attributes
	Blocks     []*Node           // nested child blocks

	// Inline run for paragraph-like nodes. When non-nil it takes
	// precedence over Text and interleaves KindText with inline
	// element nodes in source order.
	Inlines []*Node

	// Inline element payloads.
	Quote   QuoteType  // KindInlineQuoted
	Anchor  AnchorType // KindInlineAnchor
	Target  string     // anchor target / image path / macro target
	RefText string     // explicit display text for anchors

	// Table payload (KindTable only).
	Table *Table

	// List item text per entry for ulist/olist lives in Blocks as
	// KindListItem nodes; each carries Text or Inlines.
}

// Table holds head and body rows of a KindTable node.
type Table struct {
	Head []*TableRow
	Body []*TableRow
}

// TableRow is one row of cells.
type TableRow struct {
	Cells []*TableCell
}

// TableCell is a single cell. Inner is set for CellAsciiDoc cells once the
// cell text has been parsed as a nested sub-document; the converter parses
// lazily when Inner is nil.
type TableCell struct {
	Style   CellStyle
	ColSpan int
	RowSpan int
	Text    string
	Inlines []*Node
	Inner   *Document
}

// Attr returns a block attribute value, with ok reporting presence.
func (n *Node) Attr(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[name]
	return v, ok
}

// Document is the root produced by a Parser. Attributes hold document-level
// attribute entries (:toc:, :imagesdir:, ...). BaseDir anchors relative
// image and include resolution.
type Document struct {
	Root       *Node
	Title      string
	Attributes map[string]string
	BaseDir    string
	SafeMode   string
}

// Attr returns a document attribute value, with ok reporting presence.
func (d *Document) Attr(name string) (string, bool) {
	if d.Attributes == nil {
		return "", false
	}
	v, ok := d.Attributes[name]
	return v, ok
}

// ParseOptions carry parser context that must be propagated unchanged into
// nested sub-document parses (table cells) so attribute and path resolution
// match the enclosing document.
type ParseOptions struct {
	SafeMode   string
	Backend    string
	Attributes map[string]string
	BaseDir    string
}

// Parser is the markup frontend consumed by the converter. Implementations
// must be safe to call reentrantly: table-cell conversion parses nested
// sub-documents mid-walk.
type Parser interface {
	Parse(source string, opts ParseOptions) (*Document, error)
}
