package adf

import (
	"encoding/json"
	"strings"

	"github.com/adrpar/asciidoctor-confluence-adf/pkg/asciidoc"
)

// defaultHighlightColor backs the asciidoc #mark# role when no explicit
// color is given.
const defaultHighlightColor = "#fff0b3"

// panelTypes maps asciidoc admonition names to ADF panel types.
var panelTypes = map[string]string{
	"note":      "info",
	"tip":       "info",
	"warning":   "warning",
	"important": "error",
	"caution":   "error",
}

// quoteMarks maps inline quote kinds to ADF mark types.
var quoteMarks = map[asciidoc.QuoteType]string{
	asciidoc.QuoteStrong:        "strong",
	asciidoc.QuoteEmphasis:      "em",
	asciidoc.QuoteMonospaced:    "code",
	asciidoc.QuoteSuperscript:   "sup",
	asciidoc.QuoteSubscript:     "sub",
	asciidoc.QuoteUnderline:     "underline",
	asciidoc.QuoteStrikethrough: "strike",
	asciidoc.QuoteMark:          "backgroundColor",
}

// structuredInlineTypes are the node types a macro may hand back as JSON
// wrapped in formatting syntax; they are registered whole instead of being
// re-wrapped as marked text.
var structuredInlineTypes = map[string]bool{
	TypeInlineExtension: true,
	TypeExtension:       true,
	TypeMention:         true,
	TypeInlineCard:      true,
}

// ConvertOptions configure a Converter.
type ConvertOptions struct {
	// Parser handles nested sub-document parses (asciidoc table cells).
	// Without one such cells fall back to plain inline processing.
	Parser asciidoc.Parser
	// Prober resolves image pixel dimensions. Defaults to StandardProber.
	Prober SizeProber
	// Logger receives conversion diagnostics. Defaults to a no-op.
	Logger Logger
	// Registry may inject an outer registry so nested conversions share
	// placeholder scope. Defaults to a fresh registry per Converter.
	Registry *Registry
	// EmitTitle renders the document title as a level-1 heading. Off by
	// default: Confluence stores the title as page metadata.
	EmitTitle bool
}

// Converter walks a parsed asciidoc tree and produces an ADF document.
// Each instance owns one conversion's state (registry, anchor table) and
// must not be shared across concurrent conversions.
type Converter struct {
	parser    asciidoc.Parser
	prober    SizeProber
	logger    Logger
	registry  *Registry
	anchors   map[string]*asciidoc.Node
	emitTitle bool

	doc       *asciidoc.Document
	imagesDir string
	baseDir   string
}

// NewConverter builds a Converter from options.
func NewConverter(opts ConvertOptions) *Converter {
	c := &Converter{
		parser:    opts.Parser,
		prober:    opts.Prober,
		logger:    opts.Logger,
		registry:  opts.Registry,
		anchors:   make(map[string]*asciidoc.Node),
		emitTitle: opts.EmitTitle,
	}
	if c.prober == nil {
		c.prober = NewStandardProber()
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	return c
}

// Convert transforms a source document into an ADF document. Conversion is
// best effort: individual block or macro failures degrade locally and
// never abort the document.
func (c *Converter) Convert(doc *asciidoc.Document) *Document {
	c.doc = doc
	c.baseDir = doc.BaseDir
	c.imagesDir, _ = doc.Attr("imagesdir")

	var nodes []*Node
	if toc, ok := doc.Attr("toc"); ok && (toc == "" || toc == "auto") {
		nodes = append(nodes, TOCExtension())
	}
	if c.emitTitle && doc.Title != "" {
		nodes = append(nodes, Heading(1, []*Node{Text(doc.Title)}))
	}
	if doc.Root != nil {
		nodes = append(nodes, c.convertBlocks(doc.Root.Blocks)...)
	}

	nodes = c.expandNodes(nodes)
	return NewDocument(nodes)
}

// convertBlocks converts sibling blocks in order, concatenating each
// handler's output.
func (c *Converter) convertBlocks(blocks []*asciidoc.Node) []*Node {
	var out []*Node
	for _, b := range blocks {
		out = append(out, c.convertBlock(b)...)
	}
	return out
}

// convertBlock dispatches one block node to its handler. Handlers return
// the nodes they contribute at the current nesting level.
func (c *Converter) convertBlock(n *asciidoc.Node) []*Node {
	switch n.Kind {
	case asciidoc.KindSection:
		return c.convertSection(n)
	case asciidoc.KindParagraph:
		return []*Node{Paragraph(c.parseOrEscape(c.renderInlineText(n)))}
	case asciidoc.KindUList:
		return []*Node{BulletList(c.convertListItems(n))}
	case asciidoc.KindOList:
		return []*Node{OrderedList(c.convertListItems(n))}
	case asciidoc.KindTable:
		return c.convertTable(n)
	case asciidoc.KindQuote:
		return c.convertQuote(n)
	case asciidoc.KindAdmonition:
		return c.convertAdmonition(n)
	case asciidoc.KindListing, asciidoc.KindLiteral:
		lang, _ := n.Attr("language")
		return []*Node{CodeBlock(lang, n.Text)}
	case asciidoc.KindImage:
		return c.convertBlockImage(n)
	case asciidoc.KindTOC:
		return []*Node{TOCExtension()}
	case asciidoc.KindPageBreak:
		return []*Node{Rule()}
	case asciidoc.KindPass:
		return c.convertPass(n)
	case asciidoc.KindPreamble, asciidoc.KindEmbedded:
		return c.convertBlocks(n.Blocks)
	case asciidoc.KindSidebar, asciidoc.KindFloatingTitle, asciidoc.KindThematicBreak:
		// Deliberately dropped: no ADF counterpart worth emitting.
		return nil
	default:
		c.logger.Debug("skipping unhandled block", "kind", n.Kind.String())
		return nil
	}
}

// convertSection emits a heading followed by the section body as siblings
// at the same level. Source levels are 0-based below the document title,
// which occupies ADF level 1.
func (c *Converter) convertSection(n *asciidoc.Node) []*Node {
	heading := []*Node{}
	if n.Title != "" {
		heading = append(heading, Text(n.Title))
	}
	if n.ID != "" {
		c.anchors[n.ID] = n
		heading = append(heading, AnchorExtension(n.ID))
	}
	out := []*Node{Heading(n.Level+1, heading)}
	return append(out, c.convertBlocks(n.Blocks)...)
}

// convertListItems wraps each item's inline text in one paragraph. Nested
// lists inside an item convert recursively after the paragraph.
func (c *Converter) convertListItems(list *asciidoc.Node) []*Node {
	var items []*Node
	for _, item := range list.Blocks {
		var content []*Node
		if text := c.renderInlineText(item); text != "" {
			content = append(content, Paragraph(c.parseOrEscape(text)))
		}
		for _, b := range item.Blocks {
			switch b.Kind {
			case asciidoc.KindUList, asciidoc.KindOList:
				content = append(content, c.convertBlock(b)...)
			}
		}
		if len(content) == 0 {
			content = append(content, Paragraph(nil))
		}
		items = append(items, ListItem(content))
	}
	return items
}

func (c *Converter) convertTable(n *asciidoc.Node) []*Node {
	if n.Table == nil {
		return nil
	}
	var rows []*Node
	for _, row := range n.Table.Head {
		rows = append(rows, c.convertTableRow(row, true))
	}
	for _, row := range n.Table.Body {
		rows = append(rows, c.convertTableRow(row, false))
	}
	return []*Node{TableNode(rows)}
}

// convertTableRow renders one row. Header-section rows force header cells
// regardless of per-cell style.
func (c *Converter) convertTableRow(row *asciidoc.TableRow, headerRow bool) *Node {
	var cells []*Node
	for _, cell := range row.Cells {
		header := headerRow || cell.Style == asciidoc.CellHeader
		cells = append(cells, TableCellNode(header, cell.ColSpan, cell.RowSpan, c.convertCellContent(cell)))
	}
	return TableRowNode(cells)
}

// convertCellContent renders a cell body. AsciiDoc-style cells parse as a
// nested sub-document inheriting the parent's parse context and sharing
// this conversion's registry and anchor table; if that produces nothing
// but text exists, the raw text degrades to a single paragraph.
func (c *Converter) convertCellContent(cell *asciidoc.TableCell) []*Node {
	if cell.Style == asciidoc.CellAsciiDoc {
		if nodes := c.convertNestedCell(cell); len(nodes) > 0 {
			return nodes
		}
	}
	text := c.renderCellText(cell)
	var inline []*Node
	if text != "" {
		inline = c.parseOrEscape(text)
	}
	return []*Node{Paragraph(inline)}
}

func (c *Converter) convertNestedCell(cell *asciidoc.TableCell) []*Node {
	inner := cell.Inner
	if inner == nil {
		if c.parser == nil || strings.TrimSpace(cell.Text) == "" {
			return nil
		}
		parsed, err := c.parser.Parse(cell.Text, asciidoc.ParseOptions{
			SafeMode:   c.doc.SafeMode,
			Attributes: c.doc.Attributes,
			BaseDir:    c.doc.BaseDir,
		})
		if err != nil {
			c.logger.Warn("table cell sub-parse failed, treating content as plain text", "error", err)
			return nil
		}
		inner = parsed
	}

	// Swap document context for the nested walk; registry and anchor
	// table stay shared so placeholders resolve in the outer expansion.
	outerDoc, outerBase, outerImages := c.doc, c.baseDir, c.imagesDir
	c.doc = inner
	c.baseDir = inner.BaseDir
	if dir, ok := inner.Attr("imagesdir"); ok {
		c.imagesDir = dir
	}
	nodes := c.convertBlocks(inner.Root.Blocks)
	c.doc, c.baseDir, c.imagesDir = outerDoc, outerBase, outerImages
	return nodes
}

func (c *Converter) renderCellText(cell *asciidoc.TableCell) string {
	if cell.Inlines != nil {
		return c.renderInlines(cell.Inlines)
	}
	return cell.Text
}

func (c *Converter) convertQuote(n *asciidoc.Node) []*Node {
	content := c.convertBlocks(n.Blocks)
	if len(content) == 0 {
		if text := c.renderInlineText(n); text != "" {
			content = []*Node{Paragraph(c.parseOrEscape(text))}
		}
	}
	return []*Node{Blockquote(content)}
}

func (c *Converter) convertAdmonition(n *asciidoc.Node) []*Node {
	name, _ := n.Attr("name")
	panelType, ok := panelTypes[strings.ToLower(name)]
	if !ok {
		panelType = "info"
	}
	content := c.convertBlocks(n.Blocks)
	if len(content) == 0 {
		if text := c.renderInlineText(n); text != "" {
			content = []*Node{Paragraph(c.parseOrEscape(text))}
		}
	}
	return []*Node{Panel(panelType, content)}
}

func (c *Converter) convertBlockImage(n *asciidoc.Node) []*Node {
	widthAttr, _ := n.Attr("width")
	heightAttr, _ := n.Attr("height")
	dims := c.resolveDimensions(widthAttr, heightAttr, n.Target, false)
	alt, _ := n.Attr("alt")
	media := Media(MediaAttrs{
		ID:     n.Target,
		Alt:    alt,
		Width:  dims.width,
		Height: dims.height,
	})
	return []*Node{MediaSingle("center", media)}
}

// convertPass scans raw passthrough content for embedded node JSON; block
// macros deliver structured output this way. Literal remainders become a
// paragraph.
func (c *Converter) convertPass(n *asciidoc.Node) []*Node {
	var out []*Node
	var inline []*Node
	for _, frag := range ScanText(n.Text) {
		if frag.IsJSON() {
			if node := decodeNodeJSON(frag.Raw); node != nil {
				if len(inline) > 0 {
					out = append(out, Paragraph(inline))
					inline = nil
				}
				out = append(out, node)
				continue
			}
			inline = append(inline, Text(string(frag.Raw)))
			continue
		}
		if frag.Text != "" {
			inline = append(inline, c.splitPlaceholders(frag.Text, nil)...)
		}
	}
	if len(inline) > 0 {
		out = append(out, Paragraph(inline))
	}
	return out
}

// renderInlineText produces a node's flat inline text, embedding registry
// placeholders for structured inline elements.
func (c *Converter) renderInlineText(n *asciidoc.Node) string {
	if n.Inlines != nil {
		return c.renderInlines(n.Inlines)
	}
	return n.Text
}

func (c *Converter) renderInlines(inlines []*asciidoc.Node) string {
	var sb strings.Builder
	for _, in := range inlines {
		sb.WriteString(c.renderInline(in))
	}
	return sb.String()
}

// renderInline converts one inline element to text. Structured elements
// register their node and return a placeholder so they survive later
// plain-text rescans of the paragraph.
func (c *Converter) renderInline(n *asciidoc.Node) string {
	switch n.Kind {
	case asciidoc.KindText:
		return n.Text
	case asciidoc.KindInlineQuoted:
		return c.renderInlineQuoted(n)
	case asciidoc.KindInlineAnchor:
		return c.renderInlineAnchor(n)
	case asciidoc.KindInlineImage:
		widthAttr, _ := n.Attr("width")
		heightAttr, _ := n.Attr("height")
		dims := c.resolveDimensions(widthAttr, heightAttr, n.Target, true)
		alt, _ := n.Attr("alt")
		return c.registry.Register(MediaInline(MediaAttrs{
			ID:     n.Target,
			Alt:    alt,
			Width:  dims.width,
			Height: dims.height,
		}))
	default:
		return n.Text
	}
}

func (c *Converter) renderInlineQuoted(n *asciidoc.Node) string {
	text := n.Text
	if n.Inlines != nil {
		text = c.renderInlines(n.Inlines)
	}
	if text == "" {
		return ""
	}

	// A macro may have expanded to a full structured node that then got
	// wrapped in formatting syntax; keep the node, drop the formatting.
	if node := sniffStructuredNode(text); node != nil {
		return c.registry.Register(node)
	}

	markType, ok := quoteMarks[n.Quote]
	if !ok {
		return text
	}
	mark := &Mark{Type: markType}
	if markType == "backgroundColor" {
		mark.Attrs = map[string]any{"color": defaultHighlightColor}
	}

	// Nested formatting: stack the mark onto an already-registered text
	// node instead of double-wrapping.
	if m := placeholderPattern.FindStringSubmatch(text); m != nil && m[0] == text {
		if id, ok := parsePlaceholderID(m[1]); ok {
			if inner, ok := c.registry.Resolve(id); ok && inner.Type == TypeText {
				stacked := inner.Clone()
				stacked.Marks = append(stacked.Marks, mark)
				return c.registry.Register(stacked)
			}
		}
	}

	return c.registry.Register(Text(text, mark))
}

// renderInlineAnchor handles anchor targets, cross references and links.
func (c *Converter) renderInlineAnchor(n *asciidoc.Node) string {
	switch n.Anchor {
	case asciidoc.AnchorRef:
		if n.ID != "" {
			c.anchors[n.ID] = n
			return c.registry.Register(AnchorExtension(n.ID))
		}
		return ""
	case asciidoc.AnchorXref:
		text := n.RefText
		if text == "" {
			if ref, ok := c.anchors[n.Target]; ok && ref.Title != "" {
				text = ref.Title
			}
		}
		if text == "" {
			text = "[" + n.Target + "]"
		}
		return c.registry.Register(Text(text, LinkMark("#"+n.Target)))
	default:
		text := n.RefText
		if text == "" {
			text = n.Target
		}
		if text == "" {
			return ""
		}
		return c.registry.Register(Text(text, LinkMark(n.Target)))
	}
}

// parseOrEscape turns flat inline text into an ordered inline node array:
// the JSON scan and the placeholder scan composed left to right, never
// reordering content.
func (c *Converter) parseOrEscape(text string) []*Node {
	var out []*Node
	for _, frag := range ScanText(text) {
		if frag.IsJSON() {
			out = append(out, decodeInlineJSON(frag.Raw)...)
			continue
		}
		out = append(out, c.splitPlaceholders(frag.Text, nil)...)
	}
	return out
}

// splitPlaceholders splits a literal span on placeholder tokens, splicing
// in registry nodes. Unresolvable tokens stay as literal text nodes:
// visibly broken output beats silent loss. Surviving literal spans carry
// the original node's marks.
func (c *Converter) splitPlaceholders(text string, marks []*Mark) []*Node {
	if text == "" {
		return nil
	}
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		if node := sniffStructuredNode(text); node != nil {
			return []*Node{node}
		}
		return []*Node{Text(text, copyMarks(marks)...)}
	}

	var out []*Node
	pos := 0
	for _, m := range matches {
		if span := text[pos:m[0]]; span != "" {
			out = append(out, c.splitLiteralSpan(span, marks)...)
		}
		token := text[m[0]:m[1]]
		id, ok := parsePlaceholderID(text[m[2]:m[3]])
		if !ok {
			out = append(out, Text(token, copyMarks(marks)...))
		} else if node, found := c.registry.Resolve(id); found {
			out = append(out, node)
		} else {
			out = append(out, Text(token, copyMarks(marks)...))
		}
		pos = m[1]
	}
	if span := text[pos:]; span != "" {
		out = append(out, c.splitLiteralSpan(span, marks)...)
	}
	return out
}

func (c *Converter) splitLiteralSpan(span string, marks []*Mark) []*Node {
	if node := sniffStructuredNode(span); node != nil {
		return []*Node{node}
	}
	return []*Node{Text(span, copyMarks(marks)...)}
}

// expandNodes is the terminal expansion pass: every paragraph's text
// children are rescanned for placeholder tokens and stray structured-node
// JSON, then replaced in place by the spliced inline run.
func (c *Converter) expandNodes(nodes []*Node) []*Node {
	for _, n := range nodes {
		c.expandNode(n)
	}
	return nodes
}

func (c *Converter) expandNode(n *Node) {
	if n == nil {
		return
	}
	if n.Type == TypeParagraph {
		var content []*Node
		for _, child := range n.Content {
			if child.Type == TypeText && placeholderPattern.MatchString(child.Text) {
				content = append(content, c.splitPlaceholders(child.Text, child.Marks)...)
				continue
			}
			content = append(content, child)
		}
		n.Content = compact(content)
	}
	for _, child := range n.Content {
		c.expandNode(child)
	}
}

// sniffStructuredNode reports whether text is exactly one JSON object for
// a recognized structured inline node, returning the decoded node.
func sniffStructuredNode(text string) *Node {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil
	}
	var node Node
	if err := json.Unmarshal([]byte(trimmed), &node); err != nil {
		return nil
	}
	if !structuredInlineTypes[node.Type] {
		return nil
	}
	return &node
}

// decodeNodeJSON decodes a scanned fragment into a node with a non-empty
// type, or nil.
func decodeNodeJSON(raw json.RawMessage) *Node {
	var node Node
	if err := json.Unmarshal(raw, &node); err != nil || node.Type == "" {
		return nil
	}
	return &node
}

// decodeInlineJSON decodes a scanned fragment into one or more inline
// nodes. Fragments that do not decode to typed nodes degrade to literal
// text.
func decodeInlineJSON(raw json.RawMessage) []*Node {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var nodes []*Node
		if err := json.Unmarshal(raw, &nodes); err == nil {
			valid := true
			for _, n := range nodes {
				if n == nil || n.Type == "" {
					valid = false
					break
				}
			}
			if valid {
				return nodes
			}
		}
		return []*Node{Text(string(raw))}
	}
	if node := decodeNodeJSON(raw); node != nil {
		return []*Node{node}
	}
	return []*Node{Text(string(raw))}
}
