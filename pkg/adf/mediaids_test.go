package adf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaDoc(attrs MediaAttrs) *Document {
	return NewDocument([]*Node{MediaSingle("center", Media(attrs))})
}

func TestUpdateMediaIDs_RewritesAttachmentIDs(t *testing.T) {
	doc := mediaDoc(MediaAttrs{ID: "diagram.png"})
	mapping := map[string]string{"diagram.png": "att-123"}

	updated := UpdateMediaIDs(doc, mapping)

	media := updated.Content[0].Content[0]
	assert.Equal(t, "att-123", media.Attrs["id"])
	// The input document is not mutated.
	assert.Equal(t, "diagram.png", doc.Content[0].Content[0].Attrs["id"])
}

func TestUpdateMediaIDs_IgnoresOtherCollections(t *testing.T) {
	doc := mediaDoc(MediaAttrs{ID: "diagram.png", Collection: "contentId-999"})

	updated := UpdateMediaIDs(doc, map[string]string{"diagram.png": "att-123"})

	assert.Equal(t, "diagram.png", updated.Content[0].Content[0].Attrs["id"])
}

func TestUpdateMediaIDs_RewritesInlineMedia(t *testing.T) {
	doc := NewDocument([]*Node{
		Paragraph([]*Node{
			Text("icon "),
			MediaInline(MediaAttrs{ID: "icon.png"}),
		}),
	})

	updated := UpdateMediaIDs(doc, map[string]string{"icon.png": "att-7"})

	inline := updated.Content[0].Content[1]
	assert.Equal(t, "mediaInline", inline.Type)
	assert.Equal(t, "att-7", inline.Attrs["id"])
}

func TestUpdateMediaIDs_EmptyMappingReturnsInput(t *testing.T) {
	doc := mediaDoc(MediaAttrs{ID: "diagram.png"})
	assert.Same(t, doc, UpdateMediaIDs(doc, nil))
}

func TestClampImageWidths_ScalesPreservingAspect(t *testing.T) {
	w, h := 800, 600
	doc := mediaDoc(MediaAttrs{ID: "big.png", Width: &w, Height: &h})

	clamped := ClampImageWidths(doc, 400)

	media := clamped.Content[0].Content[0]
	assert.Equal(t, 400, media.Attrs["width"])
	assert.Equal(t, 300, media.Attrs["height"])
	// Original stays untouched.
	assert.Equal(t, 800, doc.Content[0].Content[0].Attrs["width"])
}

func TestClampImageWidths_LeavesSmallImages(t *testing.T) {
	w, h := 200, 100
	doc := mediaDoc(MediaAttrs{ID: "small.png", Width: &w, Height: &h})

	clamped := ClampImageWidths(doc, 400)

	media := clamped.Content[0].Content[0]
	assert.Equal(t, 200, media.Attrs["width"])
	assert.Equal(t, 100, media.Attrs["height"])
}

func TestClampImageWidths_SkipsDimensionlessMedia(t *testing.T) {
	doc := mediaDoc(MediaAttrs{ID: "unknown.png"})

	clamped := ClampImageWidths(doc, 400)

	media := clamped.Content[0].Content[0]
	_, hasWidth := media.Attrs["width"]
	assert.False(t, hasWidth)
}

func TestClampImageWidths_HandlesUnmarshalledNumbers(t *testing.T) {
	data := []byte(`{"version":1,"type":"doc","content":[{"type":"mediaSingle","attrs":{"layout":"center"},"content":[{"type":"media","attrs":{"type":"file","id":"a.png","collection":"attachments","occurrenceKey":"k","width":1000,"height":500}}]}]}`)
	doc, err := Unmarshal(data)
	require.NoError(t, err)

	clamped := ClampImageWidths(doc, 600)

	media := clamped.Content[0].Content[0]
	assert.Equal(t, 600, media.Attrs["width"])
	assert.Equal(t, 300, media.Attrs["height"])
}

func TestAttrInt(t *testing.T) {
	attrs := map[string]any{"int": 4, "float": 5.0, "string": "6"}

	v, ok := attrInt(attrs, "int")
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	v, ok = attrInt(attrs, "float")
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = attrInt(attrs, "string")
	assert.False(t, ok)

	_, ok = attrInt(attrs, "missing")
	assert.False(t, ok)
}
