package models

// NodeTree is the nested representation of a document's section hierarchy,
// built in memory from the flat node records (parent ids, never cyclic
// references). Children are ordered by sibling sort order.
type NodeTree struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	NodeType string      `json:"type"`
	Level    int         `json:"level"`
	Order    int         `json:"order"`
	Children []*NodeTree `json:"children"`
}

// DocumentDetail is the full read model for one document: metadata plus the
// nested node tree rooted at the document's root node.
type DocumentDetail struct {
	Document *Document `json:"document"`
	Tree     *NodeTree `json:"tree,omitempty"`
}

// DocumentSummary is the list/search row shape (no content blobs).
type DocumentSummary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	WordCount int            `json:"word_count,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at"`
}

// SectionDetail is the read model for one section node's current content,
// optionally with its full edit history (newest first).
type SectionDetail struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Level   int    `json:"level"`
	History []Edit `json:"history,omitempty"`
}
