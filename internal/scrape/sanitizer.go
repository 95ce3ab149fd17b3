package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// removedElements never contribute to document content
const removedElements = "script, style, iframe, nav, footer, header, noscript"

// Sanitize strips non-content elements from the parsed page in place:
// scripts, styles, frames, navigation chrome, and anything explicitly
// hidden via inline style. Absence of matches is a no-op.
func Sanitize(doc *goquery.Document) {
	doc.Find(removedElements).Remove()

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if isHidden(style) {
			s.Remove()
		}
	})
}

func isHidden(style string) bool {
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none")
}
