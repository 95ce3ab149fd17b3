package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"docforge/internal/domain/models"
)

// DefaultTitle is used when a page has neither an h1 nor a title element.
const DefaultTitle = "Untitled Document"

// ExtractTitle resolves the document title: first h1 text, else the title
// element text, else DefaultTitle. Extraction is lenient; there is no
// error path.
func ExtractTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return DefaultTitle
}

// ContentRoot selects the element holding the page's main content:
// main, else article, else the first element whose class contains
// "content" or "main", else the whole body.
func ContentRoot(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find("main").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find(`[class*="content"], [class*="main"]`).First(); sel.Length() > 0 {
		return sel
	}
	return doc.Find("body").First()
}

// ExtractSections scans the direct children of root in document order and
// produces the flat section map. A heading (h1-h6) opens a new section
// keyed by its trimmed text; every non-heading sibling before the next
// heading is serialized into that section's content. Content before the
// first heading is discarded.
//
// Two headings with identical trimmed text collide: the later one's
// content silently overwrites the earlier entry. Known compatibility
// behavior of the content-map shape; kept as-is.
func ExtractSections(root *goquery.Selection) models.SectionMap {
	sections := models.SectionMap{}
	var currentSection string
	var buffer strings.Builder

	flush := func() {
		if currentSection != "" && buffer.Len() > 0 {
			sections[currentSection] = models.SectionContent{
				Content: buffer.String(),
				Type:    models.NodeTypeSection,
			}
			buffer.Reset()
		}
	}

	root.Children().Each(func(_ int, s *goquery.Selection) {
		if level := headingLevel(s); level > 0 {
			flush()
			currentSection = strings.TrimSpace(s.Text())
			sections[currentSection] = models.SectionContent{
				Content: "",
				Type:    models.NodeTypeSection,
			}
			return
		}
		if currentSection != "" {
			if html, err := goquery.OuterHtml(s); err == nil {
				buffer.WriteString(html)
			}
		}
	})
	flush()

	return sections
}

// ExtractOutline builds the nested heading hierarchy from heading levels
// alone, not DOM nesting. A stack of open sections is kept: a heading at
// level L closes every open section at level >= L and becomes a child of
// whatever remains open, or a top-level entry if nothing does.
func ExtractOutline(root *goquery.Selection) []*models.Heading {
	var top []*models.Heading
	var stack []*models.Heading

	root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := headingLevel(s)
		heading := &models.Heading{
			Title: strings.TrimSpace(s.Text()),
			Level: level,
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			top = append(top, heading)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, heading)
		}
		stack = append(stack, heading)
	})

	return top
}

// ExtractMeta collects page metadata from meta tags. Missing tags simply
// leave their keys absent.
func ExtractMeta(doc *goquery.Document) map[string]any {
	meta := map[string]any{}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta["description"] = desc
	}
	if keywords, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
		parts := strings.Split(keywords, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed = append(trimmed, strings.TrimSpace(p))
		}
		meta["keywords"] = trimmed
	}
	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
		meta["author"] = author
	}

	return meta
}

// headingLevel returns 1-6 for h1-h6 elements, 0 otherwise
func headingLevel(s *goquery.Selection) int {
	name := goquery.NodeName(s)
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}
