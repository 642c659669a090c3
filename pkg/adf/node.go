// Package adf implements the Atlassian Document Format tree: typed nodes
// and marks, factory builders, the forward asciidoc→ADF converter, and the
// reverse ADF→asciidoc converter.
package adf

import "encoding/json"

// Version is the only ADF schema version this package emits.
const Version = 1

// Document is the root envelope of an ADF tree.
type Document struct {
	Version int     `json:"version"`
	Type    string  `json:"type"`
	Content []*Node `json:"content"`
}

// Node is a block or inline ADF node. Text nodes carry Text and optional
// Marks instead of Content.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []*Mark        `json:"marks,omitempty"`
}

// Mark is a text formatting annotation.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// NewDocument wraps block nodes in the doc envelope. A nil content slice
// is normalized to an empty array so the serialized form always carries
// "content": [].
func NewDocument(content []*Node) *Document {
	if content == nil {
		content = []*Node{}
	}
	return &Document{Version: Version, Type: "doc", Content: content}
}

// Marshal serializes the document to JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal parses an ADF JSON document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Clone deep-copies a node tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Type: n.Type, Text: n.Text}
	if n.Attrs != nil {
		out.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = cloneValue(v)
		}
	}
	for _, c := range n.Content {
		out.Content = append(out.Content, c.Clone())
	}
	for _, m := range n.Marks {
		out.Marks = append(out.Marks, m.Clone())
	}
	return out
}

// Clone deep-copies a mark.
func (m *Mark) Clone() *Mark {
	if m == nil {
		return nil
	}
	out := &Mark{Type: m.Type}
	if m.Attrs != nil {
		out.Attrs = make(map[string]any, len(m.Attrs))
		for k, v := range m.Attrs {
			out.Attrs[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// copyMarks copies a mark slice so appending never aliases a shared array.
func copyMarks(marks []*Mark) []*Mark {
	if marks == nil {
		return nil
	}
	out := make([]*Mark, len(marks))
	copy(out, marks)
	return out
}

// Logger is the logging surface the conversion core uses. It matches
// charmbracelet/log's method set so a *log.Logger satisfies it directly.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// nopLogger discards everything; the default when no logger is injected.
type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Info(any, ...any)  {}
func (nopLogger) Warn(any, ...any)  {}
func (nopLogger) Error(any, ...any) {}
