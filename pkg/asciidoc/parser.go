package asciidoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InlineMacroFunc expands a registered inline macro (jira:KEY[] style).
// The returned text is spliced into the surrounding paragraph; macro
// processors typically return plain text or serialized node JSON.
type InlineMacroFunc func(target string, attrs map[string]string) (string, error)

// BlockMacroFunc expands a registered block macro (name::target[attrs]).
// The returned node replaces the macro line in the block tree.
type BlockMacroFunc func(target string, attrs map[string]string, opts ParseOptions) (*Node, error)

// DocParser is a line-oriented asciidoc parser covering the subset the
// ADF converter consumes. It implements Parser and is reentrant: table
// cell sub-parses may run while an outer parse is on the stack.
type DocParser struct {
	inlineMacros map[string]InlineMacroFunc
	blockMacros  map[string]BlockMacroFunc
}

// NewParser creates a parser with no registered macros.
func NewParser() *DocParser {
	return &DocParser{
		inlineMacros: make(map[string]InlineMacroFunc),
		blockMacros:  make(map[string]BlockMacroFunc),
	}
}

// RegisterInlineMacro installs an inline macro processor under a name.
func (p *DocParser) RegisterInlineMacro(name string, fn InlineMacroFunc) {
	p.inlineMacros[name] = fn
}

// RegisterBlockMacro installs a block macro processor under a name.
func (p *DocParser) RegisterBlockMacro(name string, fn BlockMacroFunc) {
	p.blockMacros[name] = fn
}

var (
	sectionPattern    = regexp.MustCompile(`^(={1,6})\s+(.+?)\s*$`)
	attrEntryPattern  = regexp.MustCompile(`^:([A-Za-z0-9_-]+):\s*(.*)$`)
	blockAttrPattern  = regexp.MustCompile(`^\[(.*)\]$`)
	blockAnchorLine   = regexp.MustCompile(`^\[\[([A-Za-z0-9_.:-]+)(?:,([^\]]*))?\]\]$`)
	blockImagePattern = regexp.MustCompile(`^image::([^\[\s]+)\[(.*)\]$`)
	blockMacroPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9_-]*)::([^\[\s]*)\[(.*)\]$`)
	ulistPattern      = regexp.MustCompile(`^(\*{1,5})\s+(.+)$`)
	olistPattern      = regexp.MustCompile(`^(\.{1,5})\s+(.+)$`)
	admonitionLine    = regexp.MustCompile(`^(NOTE|TIP|WARNING|IMPORTANT|CAUTION):\s+(.+)$`)
	cellSpecPattern   = regexp.MustCompile(`^(?:(\d+)(?:\.(\d+))?\+)?([adehlms])?$`)
)

// admonition block styles recognized in [NAME] attribute lines.
var admonitionStyles = map[string]bool{
	"NOTE": true, "TIP": true, "WARNING": true, "IMPORTANT": true, "CAUTION": true,
}

// parseState carries one Parse call's working set.
type parseState struct {
	parser *DocParser
	opts   ParseOptions
	doc    *Document
	lines  []string
	pos    int

	// pending block metadata from attribute/anchor/title lines
	pendingAttrs  map[string]string
	pendingStyle  string
	pendingID     string
	pendingTitle  string
	pendingHeader bool
}

// Parse implements Parser.
func (p *DocParser) Parse(source string, opts ParseOptions) (*Document, error) {
	attrs := make(map[string]string)
	for k, v := range opts.Attributes {
		attrs[k] = v
	}
	doc := &Document{
		Root:       &Node{Kind: KindDocument},
		Attributes: attrs,
		BaseDir:    opts.BaseDir,
		SafeMode:   opts.SafeMode,
	}
	st := &parseState{
		parser: p,
		opts:   opts,
		doc:    doc,
		lines:  strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n"),
	}
	st.parseHeader()
	blocks, err := st.parseBlocks(func(string) bool { return false })
	if err != nil {
		return nil, err
	}
	doc.Root.Blocks = attachSections(blocks)
	return doc, nil
}

// parseHeader consumes the document title line and leading attribute
// entries.
func (st *parseState) parseHeader() {
	for st.pos < len(st.lines) && strings.TrimSpace(st.lines[st.pos]) == "" {
		st.pos++
	}
	if st.pos < len(st.lines) {
		if m := sectionPattern.FindStringSubmatch(st.lines[st.pos]); m != nil && len(m[1]) == 1 {
			st.doc.Title = m[2]
			st.pos++
			for st.pos < len(st.lines) {
				line := strings.TrimSpace(st.lines[st.pos])
				if line == "" {
					break
				}
				m := attrEntryPattern.FindStringSubmatch(line)
				if m == nil {
					break
				}
				st.doc.Attributes[m[1]] = m[2]
				st.pos++
			}
		}
	}
}

// parseBlocks parses until stop matches a line or input ends. Sections
// come back as flat nodes; attachSections nests them afterwards.
func (st *parseState) parseBlocks(stop func(line string) bool) ([]*Node, error) {
	var blocks []*Node
	for st.pos < len(st.lines) {
		raw := st.lines[st.pos]
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		if stop(trimmed) {
			return blocks, nil
		}
		if trimmed == "" {
			st.pos++
			continue
		}

		node, consumed, err := st.parseBlockLine(line, trimmed)
		if err != nil {
			return nil, err
		}
		if !consumed {
			node = st.parseParagraph()
		}
		if node != nil {
			st.applyPending(node)
			blocks = append(blocks, node)
		}
		st.clearPendingIfUsed(node)
	}
	return blocks, nil
}

// parseBlockLine recognizes one block construct. consumed=false means the
// line starts a plain paragraph.
func (st *parseState) parseBlockLine(line, trimmed string) (*Node, bool, error) {
	switch {
	case attrEntryPattern.MatchString(trimmed):
		m := attrEntryPattern.FindStringSubmatch(trimmed)
		st.doc.Attributes[m[1]] = m[2]
		st.pos++
		return nil, true, nil

	case strings.HasPrefix(trimmed, "//"):
		st.skipComment(trimmed)
		return nil, true, nil

	case blockAnchorLine.MatchString(trimmed):
		m := blockAnchorLine.FindStringSubmatch(trimmed)
		st.pendingID = m[1]
		st.pos++
		return nil, true, nil

	case trimmed == "'''":
		st.pos++
		return &Node{Kind: KindThematicBreak}, true, nil

	case trimmed == "<<<":
		st.pos++
		return &Node{Kind: KindPageBreak}, true, nil

	case sectionPattern.MatchString(trimmed):
		m := sectionPattern.FindStringSubmatch(trimmed)
		st.pos++
		level := len(m[1]) - 1
		if level == 0 {
			// A stray doc-title marker mid-document: treat as level 1.
			level = 1
		}
		sec := &Node{Kind: KindSection, Level: level, Title: m[2]}
		return sec, true, nil

	case trimmed == "----" || trimmed == "....":
		text := st.readDelimited(trimmed)
		kind := KindListing
		if trimmed == "...." {
			kind = KindLiteral
		}
		node := &Node{Kind: kind, Text: text}
		if st.pendingStyle == "source" || st.pendingAttrs["language"] != "" {
			node.Kind = KindListing
		}
		return node, true, nil

	case trimmed == "____":
		return st.parseDelimitedContainer(trimmed, KindQuote)

	case trimmed == "****":
		return st.parseDelimitedContainer(trimmed, KindSidebar)

	case trimmed == "++++":
		return &Node{Kind: KindPass, Text: st.readDelimited(trimmed)}, true, nil

	case trimmed == "====":
		if admonitionStyles[st.pendingStyle] {
			name := strings.ToLower(st.pendingStyle)
			node, _, err := st.parseDelimitedContainer(trimmed, KindAdmonition)
			if err != nil {
				return nil, true, err
			}
			if node.Attributes == nil {
				node.Attributes = make(map[string]string)
			}
			node.Attributes["name"] = name
			return node, true, nil
		}
		return st.parseDelimitedContainer(trimmed, KindEmbedded)

	case trimmed == "|===":
		return st.parseTable()

	case admonitionLine.MatchString(trimmed):
		m := admonitionLine.FindStringSubmatch(trimmed)
		st.pos++
		return &Node{
			Kind:       KindAdmonition,
			Attributes: map[string]string{"name": strings.ToLower(m[1])},
			Inlines:    st.parseInlines(m[2]),
		}, true, nil

	case ulistPattern.MatchString(trimmed):
		return st.parseList(ulistPattern, KindUList), true, nil

	case olistPattern.MatchString(trimmed):
		return st.parseList(olistPattern, KindOList), true, nil

	case blockImagePattern.MatchString(trimmed):
		m := blockImagePattern.FindStringSubmatch(trimmed)
		st.pos++
		return st.imageNode(KindImage, m[1], m[2]), true, nil

	case blockMacroPattern.MatchString(trimmed):
		m := blockMacroPattern.FindStringSubmatch(trimmed)
		if m[1] == "toc" {
			st.pos++
			return &Node{Kind: KindTOC}, true, nil
		}
		if fn, ok := st.parser.blockMacros[m[1]]; ok {
			st.pos++
			node, err := fn(m[2], parseAttrList(m[3]), st.opts)
			if err != nil {
				// The macro text stays visible so the author can fix
				// and retry.
				return &Node{Kind: KindParagraph, Text: trimmed}, true, nil
			}
			return node, true, nil
		}
		return nil, false, nil

	case blockAttrPattern.MatchString(trimmed) && !strings.HasPrefix(trimmed, "[["):
		st.consumeBlockAttrLine(blockAttrPattern.FindStringSubmatch(trimmed)[1])
		return nil, true, nil
	}
	return nil, false, nil
}

// skipComment consumes a // line or //// block.
func (st *parseState) skipComment(trimmed string) {
	if trimmed == "////" {
		st.pos++
		for st.pos < len(st.lines) && strings.TrimSpace(st.lines[st.pos]) != "////" {
			st.pos++
		}
		if st.pos < len(st.lines) {
			st.pos++
		}
		return
	}
	st.pos++
}

// consumeBlockAttrLine interprets a [style,positional,key=value] line.
func (st *parseState) consumeBlockAttrLine(body string) {
	st.pos++
	attrs := parseAttrList(body)
	style := attrs["1"]
	if strings.HasPrefix(style, "#") {
		st.pendingID = strings.TrimPrefix(style, "#")
		return
	}
	if st.pendingAttrs == nil {
		st.pendingAttrs = make(map[string]string)
	}
	switch {
	case style == "source":
		st.pendingStyle = "source"
		if lang, ok := attrs["2"]; ok {
			st.pendingAttrs["language"] = lang
		}
	case admonitionStyles[style]:
		st.pendingStyle = style
	case style == "quote":
		st.pendingStyle = "quote"
	default:
		st.pendingStyle = style
	}
	for k, v := range attrs {
		if k != "1" && k != "2" {
			st.pendingAttrs[k] = v
		}
	}
	if strings.Contains(attrs["options"], "header") || strings.Contains(body, "%header") {
		st.pendingHeader = true
	}
}

// applyPending moves buffered id/title/attrs onto the node just parsed.
func (st *parseState) applyPending(node *Node) {
	if st.pendingID != "" {
		node.ID = st.pendingID
	}
	if st.pendingTitle != "" && node.Title == "" {
		node.Title = st.pendingTitle
	}
	if len(st.pendingAttrs) > 0 {
		if node.Attributes == nil {
			node.Attributes = make(map[string]string)
		}
		for k, v := range st.pendingAttrs {
			if _, exists := node.Attributes[k]; !exists {
				node.Attributes[k] = v
			}
		}
	}
}

func (st *parseState) clearPendingIfUsed(node *Node) {
	if node != nil {
		st.pendingAttrs = nil
		st.pendingStyle = ""
		st.pendingID = ""
		st.pendingTitle = ""
		st.pendingHeader = false
	}
}

// readDelimited consumes lines until the matching delimiter, returning
// the raw body.
func (st *parseState) readDelimited(delim string) string {
	st.pos++
	var body []string
	for st.pos < len(st.lines) {
		if strings.TrimSpace(st.lines[st.pos]) == delim {
			st.pos++
			break
		}
		body = append(body, st.lines[st.pos])
		st.pos++
	}
	return strings.Join(body, "\n")
}

// parseDelimitedContainer recursively parses a delimited region's blocks.
func (st *parseState) parseDelimitedContainer(delim string, kind Kind) (*Node, bool, error) {
	st.pos++
	blocks, err := st.parseBlocks(func(line string) bool { return line == delim })
	if err != nil {
		return nil, true, err
	}
	if st.pos < len(st.lines) {
		st.pos++ // closing delimiter
	}
	return &Node{Kind: kind, Blocks: blocks}, true, nil
}

// parseParagraph accumulates lines until a blank line or block boundary.
func (st *parseState) parseParagraph() *Node {
	var lines []string
	for st.pos < len(st.lines) {
		trimmed := strings.TrimSpace(st.lines[st.pos])
		if trimmed == "" {
			break
		}
		if len(lines) > 0 && st.isBlockBoundary(trimmed) {
			break
		}
		lines = append(lines, trimmed)
		st.pos++
	}
	text := strings.Join(lines, " ")
	return &Node{Kind: KindParagraph, Text: text, Inlines: st.parseInlines(text)}
}

func (st *parseState) isBlockBoundary(trimmed string) bool {
	switch trimmed {
	case "----", "....", "____", "****", "++++", "====", "|===", "<<<", "'''":
		return true
	}
	return sectionPattern.MatchString(trimmed) ||
		ulistPattern.MatchString(trimmed) ||
		olistPattern.MatchString(trimmed) ||
		blockAttrPattern.MatchString(trimmed)
}

// parseList consumes a run of list lines, nesting by marker depth.
func (st *parseState) parseList(pattern *regexp.Regexp, kind Kind) *Node {
	type entry struct {
		depth int
		text  string
	}
	var entries []entry
	for st.pos < len(st.lines) {
		trimmed := strings.TrimSpace(st.lines[st.pos])
		m := pattern.FindStringSubmatch(trimmed)
		if m == nil {
			break
		}
		entries = append(entries, entry{depth: len(m[1]), text: m[2]})
		st.pos++
	}

	var build func(depth int, idx *int) []*Node
	build = func(depth int, idx *int) []*Node {
		var items []*Node
		for *idx < len(entries) {
			e := entries[*idx]
			if e.depth < depth {
				return items
			}
			if e.depth > depth {
				if len(items) == 0 {
					// Malformed jump in depth: clamp to this level.
					e.depth = depth
				} else {
					nested := &Node{Kind: kind, Blocks: build(e.depth, idx)}
					last := items[len(items)-1]
					last.Blocks = append(last.Blocks, nested)
					continue
				}
			}
			*idx++
			items = append(items, &Node{
				Kind:    KindListItem,
				Text:    e.text,
				Inlines: st.parseInlines(e.text),
			})
		}
		return items
	}
	idx := 0
	return &Node{Kind: kind, Blocks: build(1, &idx)}
}

// parseTable consumes a |=== ... |=== region.
func (st *parseState) parseTable() (*Node, bool, error) {
	headerRequested := st.pendingHeader
	st.pos++
	table := &Table{}
	var rows []*TableRow
	firstRowDone := false
	implicitHeader := false

	for st.pos < len(st.lines) {
		line := strings.TrimSpace(st.lines[st.pos])
		if line == "|===" {
			st.pos++
			break
		}
		if line == "" {
			if len(rows) == 1 && !firstRowDone {
				implicitHeader = true
			}
			firstRowDone = len(rows) > 0
			st.pos++
			continue
		}
		cells, err := st.parseTableLine(line)
		if err != nil {
			return nil, true, err
		}
		if len(cells) > 0 {
			rows = append(rows, &TableRow{Cells: cells})
		}
		st.pos++
	}

	if len(rows) > 0 && (headerRequested || implicitHeader) {
		table.Head = rows[:1]
		table.Body = rows[1:]
	} else {
		table.Body = rows
	}
	return &Node{Kind: KindTable, Table: table}, true, nil
}

// parseTableLine splits one table source line into cells, honoring cell
// spec prefixes (2+| span, a| style) and escaped pipes.
func (st *parseState) parseTableLine(line string) ([]*TableCell, error) {
	parts := splitCells(line)
	var cells []*TableCell
	for _, part := range parts {
		cell := &TableCell{Style: CellDefault, ColSpan: 1, RowSpan: 1}
		spec := strings.TrimSpace(part.spec)
		if m := cellSpecPattern.FindStringSubmatch(spec); m != nil && spec != "" {
			if m[1] != "" {
				if v, err := strconv.Atoi(m[1]); err == nil {
					cell.ColSpan = v
				}
			}
			if m[2] != "" {
				if v, err := strconv.Atoi(m[2]); err == nil {
					cell.RowSpan = v
				}
			}
			switch m[3] {
			case "a":
				cell.Style = CellAsciiDoc
			case "h":
				cell.Style = CellHeader
			case "l", "m":
				cell.Style = CellLiteral
			}
		} else if spec != "" {
			return nil, fmt.Errorf("asciidoc: invalid cell spec %q", spec)
		}
		text := strings.TrimSpace(part.text)
		text = strings.ReplaceAll(text, "\\|", "|")
		cell.Text = text
		if cell.Style == CellDefault || cell.Style == CellHeader {
			cell.Inlines = st.parseInlines(text)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

type cellPart struct {
	spec string
	text string
}

// splitCells cuts a row line at unescaped pipes, keeping any cell spec
// found immediately before each pipe.
func splitCells(line string) []cellPart {
	var parts []cellPart
	var cur cellPart
	started := false
	i := 0
	for i < len(line) {
		if line[i] == '\\' && i+1 < len(line) && line[i+1] == '|' {
			cur.text += "\\|"
			i += 2
			continue
		}
		if line[i] == '|' {
			if started {
				// Trailing run of the previous cell may end with the
				// next cell's spec.
				text, spec := splitTrailingSpec(cur.text)
				cur.text = text
				parts = append(parts, cur)
				cur = cellPart{spec: spec}
			} else {
				_, spec := splitTrailingSpec(line[:i])
				cur = cellPart{spec: spec}
				started = true
			}
			i++
			continue
		}
		cur.text += string(line[i])
		i++
	}
	if started {
		parts = append(parts, cur)
	}
	return parts
}

// splitTrailingSpec peels a cell spec (like "2+a") off the end of the text
// preceding a pipe.
func splitTrailingSpec(text string) (string, string) {
	if text != "" && (strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\t")) {
		// A spec binds directly to its pipe; whitespace before the pipe
		// means plain cell text.
		return text, ""
	}
	trimmed := strings.TrimRight(text, " \t")
	idx := len(trimmed)
	for idx > 0 {
		c := trimmed[idx-1]
		if c == '+' || c == '.' || (c >= '0' && c <= '9') || strings.ContainsRune("adehlms", rune(c)) {
			idx--
			continue
		}
		break
	}
	candidate := trimmed[idx:]
	if candidate == "" || !cellSpecPattern.MatchString(candidate) {
		return text, ""
	}
	if idx > 0 && trimmed[idx-1] != ' ' && trimmed[idx-1] != '\t' && idx != 0 {
		// Spec must be its own token unless the line starts with it.
		if strings.TrimSpace(trimmed[:idx]) != "" {
			return text, ""
		}
	}
	return trimmed[:idx], candidate
}

func (st *parseState) imageNode(kind Kind, target, attrText string) *Node {
	attrs := parseAttrList(attrText)
	node := &Node{Kind: kind, Target: target, Attributes: make(map[string]string)}
	if alt, ok := attrs["alt"]; ok {
		node.Attributes["alt"] = alt
	} else if alt, ok := attrs["1"]; ok {
		node.Attributes["alt"] = alt
	}
	if w, ok := attrs["width"]; ok {
		node.Attributes["width"] = w
	} else if w, ok := attrs["2"]; ok {
		node.Attributes["width"] = w
	}
	if h, ok := attrs["height"]; ok {
		node.Attributes["height"] = h
	} else if h, ok := attrs["3"]; ok {
		node.Attributes["height"] = h
	}
	return node
}

// parseAttrList parses an asciidoc attribute list body: positional values
// keyed "1","2",... and key=value pairs, honoring double quotes.
func parseAttrList(body string) map[string]string {
	attrs := make(map[string]string)
	if strings.TrimSpace(body) == "" {
		return attrs
	}
	pos := 1
	for _, field := range splitAttrFields(body) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		// A leading quote marks a positional value even when it
		// contains '=' (JQL queries, link text).
		if eq := strings.Index(field, "="); eq > 0 && field[0] != '"' {
			key := strings.TrimSpace(field[:eq])
			value := strings.Trim(strings.TrimSpace(field[eq+1:]), `"`)
			attrs[key] = value
			continue
		}
		attrs[strconv.Itoa(pos)] = strings.Trim(field, `"`)
		pos++
	}
	return attrs
}

// splitAttrFields splits on commas outside double quotes.
func splitAttrFields(body string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// attachSections nests the flat block list: each section adopts following
// blocks until a section of the same or shallower level.
func attachSections(blocks []*Node) []*Node {
	var out []*Node
	var stack []*Node
	for _, b := range blocks {
		if b.Kind == KindSection {
			for len(stack) > 0 && stack[len(stack)-1].Level >= b.Level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				out = append(out, b)
			} else {
				parent := stack[len(stack)-1]
				parent.Blocks = append(parent.Blocks, b)
			}
			stack = append(stack, b)
			continue
		}
		if len(stack) == 0 {
			out = append(out, b)
		} else {
			parent := stack[len(stack)-1]
			parent.Blocks = append(parent.Blocks, b)
		}
	}
	return out
}
