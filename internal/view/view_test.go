package view

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"empty defaults to table", "", false},
		{"table", "table", false},
		{"json", "json", false},
		{"plain", "plain", false},
		{"yaml is not supported", "yaml", true},
		{"garbage", "adoc", true},
		{"uppercase is rejected", "JSON", true}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid output format")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidFormats(t *testing.T) {
	formats := ValidFormats()
	assert.ElementsMatch(t, []string{"table", "json", "plain"}, formats)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"fits", "doc.adoc", 20, "doc.adoc"},
		{"exact length", "image", 5, "image"},
		{"long title gets ellipsis", "architecture-overview.png", 12, "architect..."},
		{"max below ellipsis width", "image", 3, "ima"},
		{"empty", "", 10, ""},
		{"multibyte bytes counted", "héllo wörld", 8, "héll..."}, // Truncate works on bytes, not runes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxLen))
		})
	}
}

func attachmentRows() ([]string, [][]string) {
	headers := []string{"ID", "Title", "Media Type"}
	rows := [][]string{
		{"att-100", "diagram.png", "image/png"},
		{"att-101", "notes.adoc", "text/plain"},
	}
	return headers, rows
}

func TestRenderer_RenderTable_Table(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	headers, rows := attachmentRows()
	r.RenderTable(headers, rows)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Media Type")
	assert.Contains(t, output, "diagram.png")
	assert.Contains(t, output, "notes.adoc")
}

func TestRenderer_RenderTable_ColumnsAligned(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	r.RenderTable([]string{"ID", "Title"}, [][]string{
		{"1", "a.png"},
		{"att-9999", "b.png"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	// Every row starts its second column at the same offset.
	assert.Equal(t, strings.Index(lines[1], "a.png"), strings.Index(lines[2], "b.png"))
}

func TestRenderer_RenderTable_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	headers, rows := attachmentRows()
	r.RenderTable(headers, rows)

	var result []map[string]string
	err := json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "att-100", result[0]["id"])
	assert.Equal(t, "diagram.png", result[0]["title"])
	assert.Equal(t, "image/png", result[0]["media type"])
}

func TestRenderer_RenderTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatPlain, true)
	r.SetWriter(&buf)

	headers, rows := attachmentRows()
	r.RenderTable(headers, rows)

	// Plain output is tab-separated values without a header line.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "att-100\tdiagram.png\timage/png", lines[0])
	assert.NotContains(t, buf.String(), "Media Type")
}

func TestRenderer_RenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	err := r.RenderJSON(map[string]string{"page_id": "12345", "attachments": "3"})
	require.NoError(t, err)

	var result map[string]string
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "12345", result["page_id"])
}

func TestRenderer_RenderJSON_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	err := r.RenderJSON([]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestRenderer_RenderText(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	r.RenderText("No attachments found.")
	assert.Equal(t, "No attachments found.", strings.TrimSpace(buf.String()))
}

func TestRenderer_SuccessAndError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	r.Success("Page uploaded")
	r.Error("upload failed")

	output := buf.String()
	assert.Contains(t, output, "✓ Page uploaded")
	assert.Contains(t, output, "✗ upload failed")
}

func TestRenderer_RenderKeyValue_Table(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	r.RenderKeyValue("Space ID", "654321")

	output := buf.String()
	assert.Contains(t, output, "Space ID")
	assert.Contains(t, output, "654321")
}

func TestRenderer_RenderKeyValue_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	r.RenderKeyValue("space_id", "654321")
	assert.Equal(t, `{"space_id": "654321"}`, strings.TrimSpace(buf.String()))
}

func TestRenderer_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTable, true)
	r.SetWriter(&buf)

	r.RenderTable([]string{"ID", "Title"}, nil)

	// Headers still print so the caller sees the shape of the listing.
	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Title")
}

func TestRenderer_EmptyTable_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	r.RenderTable([]string{"ID", "Title"}, nil)

	var result []map[string]string
	err := json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRenderer_ShortRowSkipsMissingKeys(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	r.RenderTable([]string{"ID", "Title", "Media Type"}, [][]string{
		{"att-100", "diagram.png"},
	})

	var result []map[string]string
	err := json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "att-100", result[0]["id"])
	_, exists := result[0]["media type"]
	assert.False(t, exists)
}
