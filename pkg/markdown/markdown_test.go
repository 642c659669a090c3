package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
)

func TestToADF_Empty(t *testing.T) {
	doc, err := ToADF(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "doc", doc.Type)
	assert.Empty(t, doc.Content)
}

func TestToADF_HeadingAndParagraph(t *testing.T) {
	doc, err := ToADF([]byte("# Title\n\nHello **world**.\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 2)

	heading := doc.Content[0]
	assert.Equal(t, "heading", heading.Type)
	assert.Equal(t, 1, heading.Attrs["level"])
	require.Len(t, heading.Content, 1)
	assert.Equal(t, "Title", heading.Content[0].Text)

	para := doc.Content[1]
	assert.Equal(t, "paragraph", para.Type)
	require.Len(t, para.Content, 3)
	assert.Equal(t, "Hello ", para.Content[0].Text)
	assert.Equal(t, "world", para.Content[1].Text)
	require.Len(t, para.Content[1].Marks, 1)
	assert.Equal(t, "strong", para.Content[1].Marks[0].Type)
	assert.Equal(t, ".", para.Content[2].Text)
}

func TestToADF_NestedMarks(t *testing.T) {
	doc, err := ToADF([]byte("***both***\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	text := doc.Content[0].Content[0]
	assert.Equal(t, "both", text.Text)
	require.Len(t, text.Marks, 2)
	types := []string{text.Marks[0].Type, text.Marks[1].Type}
	assert.ElementsMatch(t, []string{"em", "strong"}, types)
}

func TestToADF_Lists(t *testing.T) {
	doc, err := ToADF([]byte("- one\n- two\n  1. nested\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	list := doc.Content[0]
	assert.Equal(t, "bulletList", list.Type)
	require.Len(t, list.Content, 2)

	second := list.Content[1]
	assert.Equal(t, "listItem", second.Type)
	require.Len(t, second.Content, 2)
	assert.Equal(t, "paragraph", second.Content[0].Type)
	assert.Equal(t, "orderedList", second.Content[1].Type)
}

func TestToADF_CodeBlock(t *testing.T) {
	doc, err := ToADF([]byte("```go\nfmt.Println(\"hi\")\n```\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	code := doc.Content[0]
	assert.Equal(t, "codeBlock", code.Type)
	assert.Equal(t, "go", code.Attrs["language"])
	require.Len(t, code.Content, 1)
	assert.Equal(t, "fmt.Println(\"hi\")", code.Content[0].Text)
}

func TestToADF_CodeBlockMultiLine(t *testing.T) {
	doc, err := ToADF([]byte("```go\npackage main\n\nfunc main() {}\n```\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)
	require.Len(t, doc.Content[0].Content, 1)
	assert.Equal(t, "package main\n\nfunc main() {}", doc.Content[0].Content[0].Text)
}

func TestToADF_CodeBlockNoLanguage(t *testing.T) {
	doc, err := ToADF([]byte("```\nplain\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, "plaintext", doc.Content[0].Attrs["language"])
}

func TestToADF_Table(t *testing.T) {
	src := "| Name | Role |\n| --- | --- |\n| Jamie | Admin |\n"
	doc, err := ToADF([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Content, 1)

	table := doc.Content[0]
	assert.Equal(t, "table", table.Type)
	require.Len(t, table.Content, 2)

	headerRow := table.Content[0]
	require.Len(t, headerRow.Content, 2)
	assert.Equal(t, "tableHeader", headerRow.Content[0].Type)
	assert.Equal(t, 1, headerRow.Content[0].Attrs["colspan"])

	bodyRow := table.Content[1]
	assert.Equal(t, "tableCell", bodyRow.Content[0].Type)
	cellPara := bodyRow.Content[0].Content[0]
	assert.Equal(t, "paragraph", cellPara.Type)
	assert.Equal(t, "Jamie", cellPara.Content[0].Text)
}

func TestToADF_LinksAndCode(t *testing.T) {
	doc, err := ToADF([]byte("See [docs](https://example.com) and `go test`.\n"))
	require.NoError(t, err)

	para := doc.Content[0]
	var link, code *adf.Node
	for _, n := range para.Content {
		for _, m := range n.Marks {
			switch m.Type {
			case "link":
				link = n
			case "code":
				code = n
			}
		}
	}
	require.NotNil(t, link)
	assert.Equal(t, "docs", link.Text)
	assert.Equal(t, "https://example.com", link.Marks[0].Attrs["href"])
	require.NotNil(t, code)
	assert.Equal(t, "go test", code.Text)
}

func TestToADF_BlockquoteAndRule(t *testing.T) {
	doc, err := ToADF([]byte("> quoted line\n\n---\n"))
	require.NoError(t, err)
	require.Len(t, doc.Content, 2)
	assert.Equal(t, "blockquote", doc.Content[0].Type)
	assert.Equal(t, "rule", doc.Content[1].Type)
}
