package adf

// UpdateMediaIDs returns a copy of the document in which every attachment
// media/mediaInline node whose id matches a key of filenameToFileID has
// its id replaced by the mapped Confluence file id. Used after uploading
// attachments: the converter emits filenames as media ids, Confluence
// wants file ids.
func UpdateMediaIDs(doc *Document, filenameToFileID map[string]string) *Document {
	if doc == nil || len(filenameToFileID) == 0 {
		return doc
	}
	out := NewDocument(nil)
	for _, n := range doc.Content {
		clone := n.Clone()
		rewriteMediaIDs(clone, filenameToFileID)
		out.Content = append(out.Content, clone)
	}
	return out
}

func rewriteMediaIDs(n *Node, filenameToFileID map[string]string) {
	if n == nil {
		return
	}
	if (n.Type == TypeMedia || n.Type == TypeMediaInline) && n.Attrs != nil {
		if n.Attrs["collection"] == "attachments" {
			if id, ok := n.Attrs["id"].(string); ok {
				if fileID, ok := filenameToFileID[id]; ok {
					n.Attrs["id"] = fileID
				}
			}
		}
	}
	for _, c := range n.Content {
		rewriteMediaIDs(c, filenameToFileID)
	}
}

// ClampImageWidths returns a copy of the document in which every media
// node wider than maxWidth is scaled down to it, preserving aspect ratio
// with integer rounding. Nodes without numeric dimensions are untouched.
func ClampImageWidths(doc *Document, maxWidth int) *Document {
	if doc == nil || maxWidth <= 0 {
		return doc
	}
	out := NewDocument(nil)
	for _, n := range doc.Content {
		clone := n.Clone()
		clampWidths(clone, maxWidth)
		out.Content = append(out.Content, clone)
	}
	return out
}

func clampWidths(n *Node, maxWidth int) {
	if n == nil {
		return
	}
	if (n.Type == TypeMedia || n.Type == TypeMediaInline) && n.Attrs != nil {
		width, wok := attrInt(n.Attrs, "width")
		height, hok := attrInt(n.Attrs, "height")
		if wok && width > maxWidth {
			n.Attrs["width"] = maxWidth
			if hok && width > 0 {
				n.Attrs["height"] = scaleDimension(maxWidth, height, width)
			}
		}
	}
	for _, c := range n.Content {
		clampWidths(c, maxWidth)
	}
}

// attrInt reads a numeric attribute that may be an int (builder output) or
// a float64 (unmarshalled JSON).
func attrInt(attrs map[string]any, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
