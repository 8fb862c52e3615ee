package report

import (
	"strings"
	"time"

	"github.com/JakeFAU/siteaudit/internal/crawler"
)

// Issue categories used by flattened issue rows.
const (
	CategorySEO          = "SEO"
	CategoryBestPractice = "Best Practice"
	CategoryBrokenLink   = "Broken Link"
)

// Severity labels derived from issue text.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Meta identifies one scan.
type Meta struct {
	RunID      string
	Mode       crawler.Mode
	Seeds      []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary holds the report-wide counters.
type Summary struct {
	TotalURLs      int `json:"totalUrls"`
	URLsWithIssues int `json:"urlsWithIssues"`
	TotalIssues    int `json:"totalIssues"`
	Warnings       int `json:"warnings"`
	Errors         int `json:"errors"`
}

// Report is the rendered form of a finalized crawl.
type Report struct {
	RunID      string               `json:"run_id"`
	Mode       crawler.Mode         `json:"mode"`
	Seeds      []string             `json:"seeds"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Degraded   bool                 `json:"degraded"`
	Summary    Summary              `json:"summary"`
	Pages      []crawler.PageResult `json:"pages"`
}

// IssueRow is one issue flattened out of its page.
type IssueRow struct {
	URL      string
	Category string
	Severity string
	Message  string
}

// New builds a report from a finalized store. Page order is preserved.
func New(store crawler.Store, meta Meta) *Report {
	pages := store.Pages
	if pages == nil {
		pages = []crawler.PageResult{}
	}
	seeds := meta.Seeds
	if seeds == nil {
		seeds = []string{}
	}
	return &Report{
		RunID:      meta.RunID,
		Mode:       meta.Mode,
		Seeds:      seeds,
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		Degraded:   store.Degraded,
		Summary:    Summarize(pages),
		Pages:      pages,
	}
}

// Summarize counts pages and issues. An issue is a warning when its text mentions
// "Warning"; every other issue is an error.
func Summarize(pages []crawler.PageResult) Summary {
	var s Summary
	s.TotalURLs = len(pages)
	for _, page := range pages {
		n := page.IssueCount()
		if n == 0 {
			continue
		}
		s.URLsWithIssues++
		s.TotalIssues += n
		for _, issue := range page.Issues() {
			if IsWarning(issue) {
				s.Warnings++
			}
		}
	}
	s.Errors = s.TotalIssues - s.Warnings
	return s
}

// IsWarning reports whether an issue counts as a warning.
func IsWarning(issue string) bool {
	return strings.Contains(issue, "Warning")
}

// Severity returns the severity label of an issue.
func Severity(issue string) string {
	if IsWarning(issue) {
		return SeverityWarning
	}
	return SeverityError
}

// Duration is the wall time of the scan.
func (r *Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Issues flattens every page's issues in page order, then category order.
func (r *Report) Issues() []IssueRow {
	rows := make([]IssueRow, 0, r.Summary.TotalIssues)
	for _, page := range r.Pages {
		rows = appendRows(rows, page.URL, CategorySEO, page.SEOIssues)
		rows = appendRows(rows, page.URL, CategoryBestPractice, page.BestPracticeIssues)
		rows = appendRows(rows, page.URL, CategoryBrokenLink, page.BrokenLinks)
	}
	return rows
}

func appendRows(rows []IssueRow, url, category string, issues []string) []IssueRow {
	for _, issue := range issues {
		rows = append(rows, IssueRow{URL: url, Category: category, Severity: Severity(issue), Message: issue})
	}
	return rows
}
