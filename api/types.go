package api

// Page represents a Confluence page (v2 API shape).
type Page struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Title    string   `json:"title"`
	SpaceID  string   `json:"spaceId"`
	ParentID string   `json:"parentId,omitempty"`
	Version  *Version `json:"version,omitempty"`
	Body     *Body    `json:"body,omitempty"`
}

// Version contains page version information.
type Version struct {
	Number  int    `json:"number"`
	Message string `json:"message,omitempty"`
}

// Body contains page content in the representations we request.
type Body struct {
	Storage        *BodyRepresentation `json:"storage,omitempty"`
	AtlasDocFormat *BodyRepresentation `json:"atlas_doc_format,omitempty"`
}

// BodyRepresentation holds content in a specific format.
type BodyRepresentation struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// BodyValue is the create/update request body shape: the v2 API takes a
// single representation.
type BodyValue struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest struct {
	SpaceID  string     `json:"spaceId"`
	Status   string     `json:"status,omitempty"`
	Title    string     `json:"title"`
	ParentID string     `json:"parentId,omitempty"`
	Body     *BodyValue `json:"body"`
}

// UpdatePageRequest is the request body for updating a page.
type UpdatePageRequest struct {
	ID      string     `json:"id"`
	Status  string     `json:"status"`
	Title   string     `json:"title"`
	Body    *BodyValue `json:"body"`
	Version *Version   `json:"version"`
}

// Attachment represents a file attached to a page.
type Attachment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Title        string `json:"title"`
	MediaType    string `json:"mediaType"`
	FileID       string `json:"fileId,omitempty"`
	FileSize     int64  `json:"fileSize"`
	DownloadLink string `json:"downloadLink,omitempty"`
}

// ChildPage is one entry of a page's child listing.
type ChildPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PaginatedResponse wraps paginated v2 API responses.
type PaginatedResponse[T any] struct {
	Results []T   `json:"results"`
	Links   Links `json:"_links,omitempty"`
}

// Links contains pagination links.
type Links struct {
	Next string `json:"next,omitempty"`
	Base string `json:"base,omitempty"`
}

// HasMore reports whether further result pages exist.
func (p *PaginatedResponse[T]) HasMore() bool {
	return p.Links.Next != ""
}

// Issue is a Jira issue as returned by the search API.
type Issue struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// Field describes one Jira field from the field metadata endpoint.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// User is a Jira/Atlassian account.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// ErrorResponse represents an API error payload.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return e.Message
}
