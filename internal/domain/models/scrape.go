package models

// Heading is one entry of the nested heading hierarchy extracted from a
// page. Nesting follows heading-level ordering, not DOM nesting.
type Heading struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Children []*Heading `json:"children"`
}

// ScrapedPage is the structured result of fetching and decomposing a page:
// a flat section map keyed by heading text, the nested heading outline, and
// extracted page metadata.
type ScrapedPage struct {
	Title    string
	Sections SectionMap
	Outline  []*Heading
	Meta     map[string]any
}
