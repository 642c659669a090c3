package asciidoc

import (
	"regexp"
	"strings"
)

// Inline syntax patterns, tried in order at each scan position; the
// earliest match wins, ties broken by priority.
var (
	inlineAnchorRef = regexp.MustCompile(`\[\[([A-Za-z0-9_.:-]+)\]\]`)
	inlineImagePat  = regexp.MustCompile(`image:([^:\s\[][^\[\s]*)\[([^\]]*)\]`)
	inlineLinkPat   = regexp.MustCompile(`link:([^\[\s]+)\[([^\]]*)\]`)
	inlineXrefPat   = regexp.MustCompile(`xref:([^\[\s]+)\[([^\]]*)\]`)
	inlineXrefAngle = regexp.MustCompile(`<<([A-Za-z0-9_.:-]+)(?:,\s*([^>]*))?>>`)
	inlineMacroPat  = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9_-]*):([^\s\[]*)\[([^\]]*)\]`)
	inlineBareURL   = regexp.MustCompile(`https?://[^\s\[\]<>]+`)

	inlineStrong     = regexp.MustCompile(`\*([^*\n]+)\*`)
	inlineEmphasis   = regexp.MustCompile(`_([^_\n]+)_`)
	inlineMonospace  = regexp.MustCompile("`([^`\n]+)`")
	inlineLineThru   = regexp.MustCompile(`\[\.line-through\]#([^#\n]+)#`)
	inlineUnderline  = regexp.MustCompile(`\[\.underline\]#([^#\n]+)#`)
	inlineHighlight  = regexp.MustCompile(`#([^#\n]+)#`)
	inlineSubscript  = regexp.MustCompile(`~([^~\s][^~\n]*)~`)
	inlineSupscript  = regexp.MustCompile(`\^([^^\s][^^\n]*)\^`)
)

// inlineRule couples a pattern with its node constructor.
type inlineRule struct {
	pattern *regexp.Regexp
	build   func(st *parseState, m []string) *Node
}

func quotedRule(pattern *regexp.Regexp, quote QuoteType) inlineRule {
	return inlineRule{
		pattern: pattern,
		build: func(st *parseState, m []string) *Node {
			return &Node{
				Kind:    KindInlineQuoted,
				Quote:   quote,
				Text:    m[1],
				Inlines: st.parseInlines(m[1]),
			}
		},
	}
}

var inlineRules []inlineRule

func init() {
	inlineRules = []inlineRule{
		{pattern: inlineAnchorRef, build: func(st *parseState, m []string) *Node {
			return &Node{Kind: KindInlineAnchor, Anchor: AnchorRef, ID: m[1]}
		}},
		{pattern: inlineImagePat, build: func(st *parseState, m []string) *Node {
			node := st.imageNode(KindInlineImage, m[1], m[2])
			return node
		}},
		{pattern: inlineLinkPat, build: func(st *parseState, m []string) *Node {
			return &Node{Kind: KindInlineAnchor, Anchor: AnchorLink, Target: m[1], RefText: m[2]}
		}},
		{pattern: inlineXrefPat, build: func(st *parseState, m []string) *Node {
			return &Node{Kind: KindInlineAnchor, Anchor: AnchorXref, Target: m[1], RefText: m[2]}
		}},
		{pattern: inlineXrefAngle, build: func(st *parseState, m []string) *Node {
			return &Node{Kind: KindInlineAnchor, Anchor: AnchorXref, Target: m[1], RefText: strings.TrimSpace(m[2])}
		}},
		{pattern: inlineMacroPat, build: nil}, // handled specially: registry lookup
		{pattern: inlineBareURL, build: func(st *parseState, m []string) *Node {
			return &Node{Kind: KindInlineAnchor, Anchor: AnchorLink, Target: m[0]}
		}},
		quotedRule(inlineStrong, QuoteStrong),
		quotedRule(inlineEmphasis, QuoteEmphasis),
		quotedRule(inlineMonospace, QuoteMonospaced),
		quotedRule(inlineLineThru, QuoteStrikethrough),
		quotedRule(inlineUnderline, QuoteUnderline),
		quotedRule(inlineHighlight, QuoteMark),
		quotedRule(inlineSubscript, QuoteSubscript),
		quotedRule(inlineSupscript, QuoteSuperscript),
	}
}

// parseInlines splits inline text into a run of text and inline element
// nodes, expanding registered inline macros along the way.
func (st *parseState) parseInlines(text string) []*Node {
	if text == "" {
		return []*Node{}
	}

	var out []*Node
	appendText := func(s string) {
		if s == "" {
			return
		}
		if len(out) > 0 && out[len(out)-1].Kind == KindText {
			out[len(out)-1].Text += s
			return
		}
		out = append(out, &Node{Kind: KindText, Text: s})
	}

	for len(text) > 0 {
		ruleIdx, loc := st.earliestInline(text)
		if loc == nil {
			appendText(text)
			break
		}
		appendText(text[:loc[0]])
		match := text[loc[0]:loc[1]]
		rule := inlineRules[ruleIdx]
		m := rule.pattern.FindStringSubmatch(match)

		if rule.pattern == inlineMacroPat {
			expanded, ok := st.expandInlineMacro(m[1], m[2], m[3], match)
			if ok {
				// Macro output may itself contain inline syntax and
				// embedded JSON; plain splice keeps JSON intact for the
				// converter's scanner.
				appendText(expanded)
			} else {
				appendText(match)
			}
			text = text[loc[1]:]
			continue
		}

		out = append(out, rule.build(st, m))
		text = text[loc[1]:]
	}
	return out
}

// earliestInline finds the first matching rule in text. A macro match is
// only accepted when the macro name is registered, so prose like
// "see:this[note]" stays literal.
func (st *parseState) earliestInline(text string) (int, []int) {
	bestIdx := -1
	var bestLoc []int
	for i, rule := range inlineRules {
		searchFrom := 0
		for {
			loc := rule.pattern.FindStringIndex(text[searchFrom:])
			if loc == nil {
				break
			}
			loc[0] += searchFrom
			loc[1] += searchFrom
			if rule.pattern == inlineMacroPat {
				m := rule.pattern.FindStringSubmatch(text[loc[0]:loc[1]])
				if _, registered := st.parser.inlineMacros[m[1]]; !registered {
					searchFrom = loc[0] + 1
					continue
				}
			}
			if bestLoc == nil || loc[0] < bestLoc[0] {
				bestIdx = i
				bestLoc = loc
			}
			break
		}
	}
	return bestIdx, bestLoc
}

// expandInlineMacro runs a registered inline macro; failures fall back to
// the literal macro text so nothing is silently lost.
func (st *parseState) expandInlineMacro(name, target, attrText, literal string) (string, bool) {
	fn, ok := st.parser.inlineMacros[name]
	if !ok {
		return "", false
	}
	expanded, err := fn(target, parseAttrList(attrText))
	if err != nil {
		return literal, true
	}
	return expanded, true
}
