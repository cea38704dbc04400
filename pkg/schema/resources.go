package schema

// Resource describes one readable resource, as returned by
// resources/list.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate describes a URI template a server can expand, as
// returned by resources/templates/list.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ListResourcesRequest struct {
	PaginatedRequest
}

type ListResourcesResult struct {
	PaginatedResult
	Resources []Resource `json:"resources"`
}

type ListResourceTemplatesRequest struct {
	PaginatedRequest
}

type ListResourceTemplatesResult struct {
	PaginatedResult
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

type ReadResourceRequest struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

type SubscribeRequest struct {
	URI string `json:"uri"`
}

type UnsubscribeRequest struct {
	URI string `json:"uri"`
}

// ResourceUpdatedNotification is the params of
// notifications/resources/updated (a SPEC_FULL supplement to spec.md's
// invariant 8 — see DESIGN.md).
type ResourceUpdatedNotification struct {
	URI string `json:"uri"`
}
