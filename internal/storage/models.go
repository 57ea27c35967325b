package storage

// Prompt is a saved unit of reusable text. Timestamps are epoch milliseconds.
type Prompt struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	CreatedAt   int64    `json:"createdAt"`
	ModifiedAt  int64    `json:"modifiedAt"`
	UsageCount  int      `json:"usageCount"`
}

// Tag is a label, possibly hierarchical. Name is the full slash-delimited
// path and is unique across tags.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Version is an immutable snapshot of a prompt's state before a change
// superseded it. Timestamp is the prompt's modifiedAt at the time the
// snapshot was current.
type Version struct {
	ID            string `json:"id"`
	PromptID      string `json:"promptId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	Timestamp     int64  `json:"timestamp"`
	VersionNumber int    `json:"versionNumber"`
}
