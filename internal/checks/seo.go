// Package checks implements the page checks run by the crawl engine: SEO rules, best
// practices and broken link probing.
package checks

import (
	"fmt"
	"unicode/utf8"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

// WarningPrefix marks issues that count as warnings rather than errors in the report summary.
const WarningPrefix = "Warning: "

// Length limits for titles and meta descriptions.
const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 160
)

// SEOResult is the output of the SEO check.
type SEOResult struct {
	Issues   []string
	Headings []crawler.Heading
	Signals  crawler.Signals
}

// SEO checks heading structure and page metadata.
type SEO struct{}

// NewSEO builds the SEO check.
func NewSEO() *SEO {
	return &SEO{}
}

// Check evaluates doc, found at pageURL.
func (s *SEO) Check(doc *document.Document, pageURL string) SEOResult {
	headings, issues := headingStructure(doc.Headings(), pageURL)
	issues = append(issues, titleIssues(doc, pageURL)...)
	issues = append(issues, descriptionIssues(doc, pageURL)...)
	issues = append(issues, h1Issues(headings, pageURL)...)
	if doc.Canonical() == "" {
		issues = append(issues, warn("Missing canonical link on %s", pageURL))
	}
	if doc.Lang() == "" {
		issues = append(issues, warn("Missing lang attribute on html element on %s", pageURL))
	}

	hreflang, hreflangIssues := resolveHreflang(doc.Alternates(), pageURL)
	issues = append(issues, hreflangIssues...)

	return SEOResult{
		Issues:   issues,
		Headings: headings,
		Signals: crawler.Signals{
			Title:        doc.Title(),
			Description:  doc.Description(),
			HreflangURLs: hreflang,
			Content:      doc.Text(),
		},
	}
}

// headingStructure flags headings that skip a level or precede the first h1. Position is
// the heading's ordinal in document order, starting at 0.
func headingStructure(elements []document.HeadingElement, pageURL string) ([]crawler.Heading, []string) {
	headings := make([]crawler.Heading, 0, len(elements))
	var issues []string
	for i, el := range elements {
		h := crawler.Heading{Level: el.Level, Text: el.Text, Position: i}
		switch {
		case i == 0 && el.Level != 1:
			h.IsIncorrect = true
			issues = append(issues, fmt.Sprintf("Incorrect heading structure: h%d appears before h1 on %s", el.Level, pageURL))
		case i > 0 && el.Level > headings[i-1].Level+1:
			h.IsIncorrect = true
			issues = append(issues, fmt.Sprintf("Incorrect heading structure: h%d follows h%d on %s",
				el.Level, headings[i-1].Level, pageURL))
		}
		headings = append(headings, h)
	}
	return headings, issues
}

func titleIssues(doc *document.Document, pageURL string) []string {
	title := doc.Title()
	if !doc.HasTitle() || title == "" {
		return []string{fmt.Sprintf("Missing title tag on %s", pageURL)}
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return []string{warn("Title is too long (%d characters, recommended max %d) on %s", n, MaxTitleLength, pageURL)}
	}
	return nil
}

func descriptionIssues(doc *document.Document, pageURL string) []string {
	description := doc.Description()
	if description == "" {
		return []string{warn("Missing meta description on %s", pageURL)}
	}
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return []string{warn("Meta description is too long (%d characters, recommended max %d) on %s",
			n, MaxDescriptionLength, pageURL)}
	}
	return nil
}

func h1Issues(headings []crawler.Heading, pageURL string) []string {
	count := 0
	for _, h := range headings {
		if h.Level == 1 {
			count++
		}
	}
	switch {
	case count == 0:
		return []string{fmt.Sprintf("Missing h1 heading on %s", pageURL)}
	case count > 1:
		return []string{warn("Multiple h1 headings (%d) on %s", count, pageURL)}
	default:
		return nil
	}
}

func resolveHreflang(alternates []document.AlternateLink, pageURL string) ([]string, []string) {
	var (
		urls   []string
		issues []string
	)
	for _, alt := range alternates {
		resolved, err := crawler.Resolve(alt.Href, pageURL)
		if err != nil {
			issues = append(issues, fmt.Sprintf("Invalid hreflang URL %q (%s) on %s", alt.Href, alt.Lang, pageURL))
			continue
		}
		urls = append(urls, resolved)
	}
	return urls, issues
}

func warn(format string, args ...any) string {
	return WarningPrefix + fmt.Sprintf(format, args...)
}
