package service

import (
	"sort"
	"strings"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"docforge/internal/domain/models"
	"docforge/internal/domain/services"
)

type contentAnalyzer struct {
	converter *md.Converter
}

// NewContentAnalyzer creates a content analyzer. Word counting works on a
// markdown rendition of the section markup so tags never count as words.
func NewContentAnalyzer() services.ContentAnalyzer {
	return &contentAnalyzer{
		converter: md.NewConverter("", true, nil),
	}
}

// WordCount counts words across all sections plus their titles. Sections
// are visited in sorted key order so the count is deterministic.
func (a *contentAnalyzer) WordCount(sections models.SectionMap) int {
	titles := make([]string, 0, len(sections))
	for title := range sections {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	total := 0
	for _, title := range titles {
		total += countWords(title)

		markdown, err := a.converter.ConvertString(sections[title].Content)
		if err != nil {
			// Fall back to the raw markup rather than dropping the section
			markdown = sections[title].Content
		}
		total += countWords(markdown)
	}
	return total
}

func countWords(text string) int {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	count := 0
	for _, word := range words {
		if strings.TrimSpace(word) != "" {
			count++
		}
	}
	return count
}
