package models

// ImageAsset is one entry of the illustrative image catalog. The embedding
// is derived from title, description and keywords at startup; the catalog
// itself is read-only at runtime.
type ImageAsset struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	TopicID     string    `json:"topic_id"`
	Filename    string    `json:"filename"`
	Embedding   []float32 `json:"-"`
}

// ImageResponse is the wire shape of a matched image in chat responses.
type ImageResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
