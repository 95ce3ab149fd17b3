package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"docforge/internal/domain/models"
	"docforge/internal/domain/services"
)

// Scraper turns a URL into a structured page: fetch, sanitize, extract.
// It implements services.PageScraper.
type Scraper struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewScraper creates a scraper with the given fetch timeout.
func NewScraper(timeout time.Duration, logger *slog.Logger) services.PageScraper {
	return &Scraper{
		fetcher: NewFetcher(timeout, logger),
		logger:  logger,
	}
}

// Scrape fetches and structures the page at url. Fetch failures surface
// as *domain.FetchError; extraction itself is lenient and degrades to
// defaults (no headings yields an empty section map, not an error).
func (s *Scraper) Scrape(ctx context.Context, url string) (*models.ScrapedPage, error) {
	markup, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", url, err)
	}

	Sanitize(doc)

	root := ContentRoot(doc)
	meta := ExtractMeta(doc)
	meta["last_scraped"] = time.Now().UTC().Format(time.RFC3339)

	page := &models.ScrapedPage{
		Title:    ExtractTitle(doc),
		Sections: ExtractSections(root),
		Outline:  ExtractOutline(root),
		Meta:     meta,
	}

	s.logger.Debug("page scraped",
		"url", url,
		"title", page.Title,
		"sections", len(page.Sections),
	)

	return page, nil
}
