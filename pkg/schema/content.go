package schema

import "encoding/json"

// Content is a tagged union over text, image and embedded-resource
// content, discriminated by an explicit "type" field on the wire
// (spec.md §3 — unlike ResourceContents, which is structural).
type Content struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`     // base64, for "image"
	MimeType string            `json:"mimeType,omitempty"` // for "image" and "resource"
	Resource *ResourceContents `json:"resource,omitempty"` // for "resource"
}

const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// TextContent builds a Content of type "text".
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// ImageContent builds a Content of type "image".
func ImageContent(data, mimeType string) Content {
	return Content{Type: ContentTypeImage, Data: data, MimeType: mimeType}
}

// ResourceContents is a tagged union over text and blob resource bodies.
// The discriminator is structural (field presence), not an explicit tag,
// per spec.md §3 and §9's note that this must interop with peers that
// never carry a "type" property here.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// IsText reports whether this is the text variant: true iff a text field
// is present, matching the structural discrimination rule.
func (r ResourceContents) IsText() bool {
	return r.Text != ""
}

// IsBlob reports whether this is the blob variant: true iff no text field
// is present but a blob field is.
func (r ResourceContents) IsBlob() bool {
	return r.Text == "" && r.Blob != ""
}

// MarshalJSON omits whichever of Text/Blob is unset, so the wire object
// carries only one of the two fields as the discrimination rule requires.
func (r ResourceContents) MarshalJSON() ([]byte, error) {
	type wire struct {
		URI      string `json:"uri"`
		MimeType string `json:"mimeType,omitempty"`
		Text     string `json:"text,omitempty"`
		Blob     string `json:"blob,omitempty"`
	}
	return json.Marshal(wire(r))
}
