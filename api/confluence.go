package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Confluence exposes the Confluence Cloud endpoints the upload and
// download flows need. The base URL should include the /wiki suffix.
type Confluence struct {
	*Client
}

// NewConfluence creates a Confluence client.
func NewConfluence(baseURL, email, apiToken string) *Confluence {
	return &Confluence{Client: NewClient(baseURL, email, apiToken)}
}

// GetPage fetches a page with its body in the requested format
// ("atlas_doc_format" or "storage").
func (c *Confluence) GetPage(ctx context.Context, pageID, bodyFormat string) (*Page, error) {
	params := url.Values{}
	if bodyFormat != "" {
		params.Set("body-format", bodyFormat)
	}
	path := fmt.Sprintf("/api/v2/pages/%s", pageID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page response: %w", err)
	}
	return &page, nil
}

// CreateDraftPage creates an empty draft page carrying a minimal ADF body,
// returning the new page. Attachments upload against the draft before the
// real content lands via UpdatePage.
func (c *Confluence) CreateDraftPage(ctx context.Context, spaceID, title string) (*Page, error) {
	emptyDoc := `{"version":1,"type":"doc","content":[{"type":"paragraph","content":[]}]}`
	req := &CreatePageRequest{
		SpaceID: spaceID,
		Status:  "draft",
		Title:   title,
		Body: &BodyValue{
			Representation: "atlas_doc_format",
			Value:          emptyDoc,
		},
	}
	body, err := c.Post(ctx, "/api/v2/pages", req)
	if err != nil {
		return nil, err
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse create page response: %w", err)
	}
	return &page, nil
}

// UpdatePage replaces a page's ADF body. Published pages get the next
// version number; drafts stay at their current one.
func (c *Confluence) UpdatePage(ctx context.Context, page *Page, adfJSON string) (*Page, error) {
	version := 1
	if page.Version != nil {
		version = page.Version.Number
		if page.Status == "current" {
			version++
		}
	}
	req := &UpdatePageRequest{
		ID:     page.ID,
		Status: page.Status,
		Title:  page.Title,
		Body: &BodyValue{
			Representation: "atlas_doc_format",
			Value:          adfJSON,
		},
		Version: &Version{Number: version},
	}
	body, err := c.Put(ctx, fmt.Sprintf("/api/v2/pages/%s", page.ID), req)
	if err != nil {
		return nil, err
	}
	var updated Page
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("failed to parse update page response: %w", err)
	}
	return &updated, nil
}

// PublishDraft sets a draft page's body and publishes it in one call.
func (c *Confluence) PublishDraft(ctx context.Context, page *Page, adfJSON string) (*Page, error) {
	req := &UpdatePageRequest{
		ID:     page.ID,
		Status: "current",
		Title:  page.Title,
		Body: &BodyValue{
			Representation: "atlas_doc_format",
			Value:          adfJSON,
		},
		Version: &Version{Number: 1},
	}
	body, err := c.Put(ctx, fmt.Sprintf("/api/v2/pages/%s", page.ID), req)
	if err != nil {
		return nil, err
	}
	var published Page
	if err := json.Unmarshal(body, &published); err != nil {
		return nil, fmt.Errorf("failed to parse publish response: %w", err)
	}
	return &published, nil
}

// attachmentUploadResponse is the v1 attachment upload result shape.
type attachmentUploadResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Extensions struct {
			FileID string `json:"fileId"`
		} `json:"extensions"`
	} `json:"results"`
}

// UploadAttachment uploads a file to a (possibly draft) page and returns
// the Confluence file id backing media nodes. Uploads use the v1 API: v2
// has no upload endpoint.
func (c *Confluence) UploadAttachment(ctx context.Context, pageID, filename string, content io.Reader, draft bool) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	path := fmt.Sprintf("/rest/api/content/%s/child/attachment", pageID)
	if draft {
		path += "?status=draft"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result attachmentUploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if len(result.Results) == 0 {
		return "", fmt.Errorf("upload response contained no attachment for %s", filename)
	}
	return result.Results[0].Extensions.FileID, nil
}

// ListAttachments returns one page of a page's attachments.
func (c *Confluence) ListAttachments(ctx context.Context, pageID, cursor string) (*PaginatedResponse[Attachment], error) {
	params := url.Values{}
	params.Set("limit", "50")
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	path := fmt.Sprintf("/api/v2/pages/%s/attachments?%s", pageID, params.Encode())
	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var result PaginatedResponse[Attachment]
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse attachments response: %w", err)
	}
	return &result, nil
}

// DownloadAttachment streams an attachment's bytes, following the
// one-shot redirect the download endpoint answers with.
func (c *Confluence) DownloadAttachment(ctx context.Context, attachmentID string) (io.ReadCloser, error) {
	path := fmt.Sprintf("/api/v2/attachments/%s/download", attachmentID)

	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.apiToken)

	resp, err := noRedirect.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusTemporaryRedirect {
		redirectURL := resp.Header.Get("Location")
		_ = resp.Body.Close()
		if redirectURL != "" && redirectURL[0] == '/' {
			redirectURL = c.baseURL + redirectURL
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, redirectURL, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.email, c.apiToken)
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// childPagesResponse is the v1 child-page listing shape.
type childPagesResponse struct {
	Results []ChildPage `json:"results"`
}

// GetChildPages lists a page's direct children (v1 API).
func (c *Confluence) GetChildPages(ctx context.Context, pageID string) ([]ChildPage, error) {
	path := fmt.Sprintf("/rest/api/content/%s/child/page", pageID)
	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var result childPagesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse child pages response: %w", err)
	}
	return result.Results, nil
}
