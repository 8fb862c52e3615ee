package checks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

// DefaultMaxRedirects matches the fetcher's default redirect cap.
const DefaultMaxRedirects = 5

// BestPractices checks image alt text, the viewport meta tag and redirect chains.
// Redirects are read from the page fetch; the check makes no requests of its own.
type BestPractices struct {
	maxRedirects int
	logger       *zap.Logger
}

// NewBestPractices builds the check. maxRedirects is the cap the fetcher enforces.
func NewBestPractices(maxRedirects int, logger *zap.Logger) *BestPractices {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestPractices{maxRedirects: maxRedirects, logger: logger}
}

// Check evaluates doc, fetched for page.
func (b *BestPractices) Check(doc *document.Document, page crawler.PageRef) []string {
	var issues []string
	for _, img := range doc.Images() {
		if !img.HasAlt {
			issues = append(issues, fmt.Sprintf("Missing alt attribute for image: %s on %s", img.Src, page.URL))
		}
	}
	if !doc.HasViewport() {
		issues = append(issues, fmt.Sprintf("Missing viewport meta tag on %s", page.URL))
	}
	return append(issues, b.redirectIssues(page)...)
}

func (b *BestPractices) redirectIssues(page crawler.PageRef) []string {
	if page.Redirects <= 0 {
		return nil
	}
	b.logger.Info("page redirects",
		zap.String("url", page.URL),
		zap.Int("redirects", page.Redirects),
		zap.String("final_url", page.FinalURL),
	)
	issues := []string{fmt.Sprintf("URL has %d redirect(s). Final destination: %s", page.Redirects, page.FinalURL)}
	if page.Redirects >= b.maxRedirects {
		issues = append(issues,
			fmt.Sprintf("URL has reached or exceeded the maximum number of allowed redirects (%d)", b.maxRedirects))
	}
	return issues
}
