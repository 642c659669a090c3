package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStorage(t *testing.T) {
	md, err := FromStorage("<h1>Title</h1><p>Hello <strong>world</strong></p>")
	require.NoError(t, err)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "**world**")
}

func TestFromStorage_Empty(t *testing.T) {
	md, err := FromStorage("")
	require.NoError(t, err)
	assert.Equal(t, "", md)
}

func TestFromStorage_MacroPlaceholder(t *testing.T) {
	html := `<p>before</p><ac:structured-macro ac:name="toc" ac:schema-version="1"><ac:parameter ac:name="minLevel">2</ac:parameter></ac:structured-macro><p>after</p>`
	md, err := FromStorage(html)
	require.NoError(t, err)
	assert.Contains(t, md, "[TOC]")
	assert.Contains(t, md, "before")
	assert.Contains(t, md, "after")
}

func TestFromStorage_StripsConfluenceLinks(t *testing.T) {
	html := `<p>see <ac:link><ri:page ri:content-title="Other"/><ac:plain-text-link-body><![CDATA[Other]]></ac:plain-text-link-body></ac:link> page</p>`
	md, err := FromStorage(html)
	require.NoError(t, err)
	assert.NotContains(t, md, "ac:link")
	assert.NotContains(t, md, "ri:page")
}
