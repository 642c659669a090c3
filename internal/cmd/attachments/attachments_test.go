package attachments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
)

func testClient(t *testing.T, handler http.HandlerFunc) *api.Confluence {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewConfluence(server.URL, "test@example.com", "token")
}

func attachmentsResponse(next string, atts ...api.Attachment) []byte {
	resp := map[string]any{"results": atts}
	if next != "" {
		resp["_links"] = map[string]string{"next": next}
	}
	data, _ := json.Marshal(resp)
	return data
}

func TestRunList_RendersAttachments(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/pages/12345/attachments", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "basic auth should be present")
		assert.Equal(t, "test@example.com", user)
		assert.Equal(t, "token", pass)
		w.Write(attachmentsResponse("",
			api.Attachment{ID: "att-1", Title: "diagram.png", MediaType: "image/png", FileSize: 2048},
		))
	})

	err := runList(&listOptions{pageID: "12345", output: "plain", noColor: true}, client)
	require.NoError(t, err)
}

func TestRunList_FollowsPagination(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("cursor") == "" {
			w.Write(attachmentsResponse("/api/v2/pages/1/attachments?cursor=abc",
				api.Attachment{ID: "att-1", Title: "a.png"},
			))
			return
		}
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		w.Write(attachmentsResponse("", api.Attachment{ID: "att-2", Title: "b.png"}))
	})

	err := runList(&listOptions{pageID: "1", output: "plain", noColor: true}, client)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunList_UnusedFilterFetchesPage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/pages/1/attachments":
			w.Write(attachmentsResponse("",
				api.Attachment{ID: "att-1", Title: "used.png"},
				api.Attachment{ID: "att-2", Title: "orphan.png"},
			))
		case "/api/v2/pages/1":
			assert.Equal(t, "storage", r.URL.Query().Get("body-format"))
			page := map[string]any{
				"id": "1", "title": "Doc",
				"body": map[string]any{"storage": map[string]string{
					"representation": "storage",
					"value":          `<ri:attachment ri:filename="used.png"/>`,
				}},
			}
			_ = json.NewEncoder(w).Encode(page)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	err := runList(&listOptions{pageID: "1", unused: true, output: "plain", noColor: true}, client)
	require.NoError(t, err)
}

func TestRunList_InvalidOutputFormat(t *testing.T) {
	err := runList(&listOptions{pageID: "1", output: "xml"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestFilterUnused(t *testing.T) {
	atts := []api.Attachment{
		{Title: "referenced.png"},
		{Title: "with space.png"},
		{Title: "orphan.png"},
	}
	content := `<ri:attachment ri:filename="referenced.png"/> <a href="x/with%20space.png">f</a>`

	unused := filterUnused(atts, content)
	require.Len(t, unused, 1)
	assert.Equal(t, "orphan.png", unused[0].Title)
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFileSize(tt.bytes))
	}
}
