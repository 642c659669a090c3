package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/logger"
)

func adfPage(id, title, value string) *api.Page {
	return &api.Page{
		ID:    id,
		Title: title,
		Body: &api.Body{
			AtlasDocFormat: &api.BodyRepresentation{
				Representation: "atlas_doc_format",
				Value:          value,
			},
		},
	}
}

const paragraphBody = `{"version":1,"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello there."}]}]}`

func TestWriteBody_EmitsImagesDirHeader(t *testing.T) {
	dir := t.TempDir()
	d := &downloader{logger: logger.Discard()}

	outPath, err := d.writeBody(adfPage("1", "My Page", paragraphBody), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "My_Page.adoc"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "= My Page\n:imagesdir: .\n\n"),
		"header should carry the imagesdir attribute, got: %q", string(content))
	assert.Contains(t, string(content), "Hello there.")
}

func TestWriteBody_StorageFallback(t *testing.T) {
	dir := t.TempDir()
	d := &downloader{logger: logger.Discard()}

	page := &api.Page{
		ID:    "2",
		Title: "Legacy",
		Body: &api.Body{
			Storage: &api.BodyRepresentation{
				Representation: "storage",
				Value:          "<p>Old content</p>",
			},
		},
	}
	outPath, err := d.writeBody(page, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Legacy.md"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Legacy")
	assert.Contains(t, string(content), "Old content")
}

func TestAppendChildLinks_AsciiDoc(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "parent.adoc")
	require.NoError(t, os.WriteFile(outPath, []byte("= Parent\n\nbody\n"), 0644))

	err := appendChildLinks(outPath, []childLink{
		{path: "Parent/First_Child.adoc", title: "First Child"},
		{path: "Parent/Second_Child.adoc", title: "Second Child"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "= Parent\n\nbody\n\n"+
		"* xref:Parent/First_Child.adoc[First Child]\n"+
		"* xref:Parent/Second_Child.adoc[Second Child]\n",
		string(content))
}

func TestAppendChildLinks_Markdown(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "parent.md")
	require.NoError(t, os.WriteFile(outPath, []byte("# Parent\n"), 0644))

	err := appendChildLinks(outPath, []childLink{
		{path: "Parent/Child.md", title: "Child"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "- [Child](Parent/Child.md)")
}

func TestAppendChildLinks_NoChildren(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "parent.adoc")
	require.NoError(t, os.WriteFile(outPath, []byte("= Parent\n"), 0644))

	require.NoError(t, appendChildLinks(outPath, nil))

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "= Parent\n", string(content))
}

func TestDownload_DepthLinksChildren(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v2/pages/1":
			w.Write([]byte(`{"id":"1","title":"Parent","body":{"atlas_doc_format":{"representation":"atlas_doc_format","value":"` +
				strings.ReplaceAll(paragraphBody, `"`, `\"`) + `"}}}`))
		case r.URL.Path == "/api/v2/pages/2":
			w.Write([]byte(`{"id":"2","title":"Child Page","body":{"atlas_doc_format":{"representation":"atlas_doc_format","value":"` +
				strings.ReplaceAll(paragraphBody, `"`, `\"`) + `"}}}`))
		case strings.HasSuffix(r.URL.Path, "/attachments"):
			w.Write([]byte(`{"results":[]}`))
		case r.URL.Path == "/rest/api/content/1/child/page":
			w.Write([]byte(`{"results":[{"id":"2","title":"Child Page"}]}`))
		case r.URL.Path == "/rest/api/content/2/child/page":
			w.Write([]byte(`{"results":[]}`))
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	d := &downloader{
		client:   api.NewConfluence(server.URL, "test@example.com", "token"),
		logger:   logger.Discard(),
		noAttach: true,
		noColor:  true,
	}

	outPath, err := d.download(context.Background(), "1", dir, 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Parent.adoc"), outPath)

	parent, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(parent), "* xref:"+filepath.Join("Parent", "Child_Page.adoc")+"[Child Page]")

	child, err := os.ReadFile(filepath.Join(dir, "Parent", "Child_Page.adoc"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(child), "= Child Page\n:imagesdir: .\n"))
	assert.NotContains(t, string(child), "xref:")
}
