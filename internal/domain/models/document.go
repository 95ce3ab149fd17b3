package models

import (
	"time"
)

// SectionContent is one entry of a document's section-keyed content map.
// The map key is the section title (the heading text); keying by a mutable
// title means a renamed or duplicated heading silently collides with an
// existing entry. Kept for compatibility with the ingested shape.
type SectionContent struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// SectionMap maps section titles to their content records.
type SectionMap map[string]SectionContent

// Clone returns a shallow copy safe to mutate independently.
func (m SectionMap) Clone() SectionMap {
	out := make(SectionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Document is a persisted ingested web page. OriginalContent is an immutable
// snapshot taken at ingestion; CurrentContent always reflects the most
// recently committed edit for every section.
type Document struct {
	ID              string         `json:"id" db:"id"`
	TeamID          string         `json:"team_id" db:"team_id"`
	URL             string         `json:"url" db:"url"`
	Title           string         `json:"title" db:"title"`
	OriginalContent SectionMap     `json:"original_content,omitempty" db:"original_content"`
	CurrentContent  SectionMap     `json:"current_content,omitempty" db:"current_content"`
	Meta            map[string]any `json:"meta" db:"meta"`
	WordCount       int            `json:"word_count" db:"word_count"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// Node kinds
const (
	NodeTypeRoot    = "root"
	NodeTypeSection = "section"
)

// Node is one element of a document's section hierarchy. All nodes for a
// document are created together at ingestion and only removed with the
// owning document. ParentID is nil for the root node only.
type Node struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	ParentID   *string `json:"parent_id,omitempty" db:"parent_id"`
	Title      string  `json:"title" db:"title"`
	NodeType   string  `json:"type" db:"node_type"`
	Level      int     `json:"level" db:"level"`
	Order      int     `json:"order" db:"sort_order"`
}

// Edit is one immutable record of a section content change. Edits are
// append-only: never updated, never deleted, listed newest-first.
type Edit struct {
	ID              string    `json:"id" db:"id"`
	DocumentID      string    `json:"document_id" db:"document_id"`
	NodeID          string    `json:"node_id" db:"node_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	PreviousContent string    `json:"previous_content" db:"previous_content"`
	NewContent      string    `json:"new_content" db:"new_content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
