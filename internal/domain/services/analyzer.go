package services

import "docforge/internal/domain/models"

// ContentAnalyzer derives document statistics from section content.
type ContentAnalyzer interface {
	// WordCount counts words across the whole section map, working from a
	// markdown rendition of the markup
	WordCount(sections models.SectionMap) int
}
