package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/JakeFAU/siteaudit/internal/crawler"
)

// MarkdownWriter renders the report as GitHub-flavored Markdown.
type MarkdownWriter struct{}

// Write renders r to w.
func (MarkdownWriter) Write(w io.Writer, r *Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Site audit report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", r.RunID},
			{"Mode", string(r.Mode)},
			{"Seeds", joinOrDash(r.Seeds)},
			{"Started", formatTime(r.StartedAt)},
			{"Duration", r.Duration().Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")
	if r.Degraded {
		md.Warningf("Finalization timed out before every page reported; results may be incomplete.")
		md.PlainText("")
	}

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total URLs", strconv.Itoa(r.Summary.TotalURLs)},
			{"URLs with issues", strconv.Itoa(r.Summary.URLsWithIssues)},
			{"Total issues", strconv.Itoa(r.Summary.TotalIssues)},
			{"Errors", strconv.Itoa(r.Summary.Errors)},
			{"Warnings", strconv.Itoa(r.Summary.Warnings)},
		},
	})
	md.PlainText("")
	if r.Summary.TotalIssues == 0 {
		md.Tip("No issues found.")
		md.PlainText("")
	}

	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, 0, len(r.Pages))
	for _, page := range r.Pages {
		rows = append(rows, []string{
			page.URL,
			pageStatus(page.Outcome.Status, page.Outcome.StatusCode),
			strconv.Itoa(len(page.SEOIssues)),
			strconv.Itoa(len(page.BestPracticeIssues)),
			strconv.Itoa(len(page.BrokenLinks)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "SEO", "Best practice", "Broken links"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, page := range r.Pages {
		if page.IssueCount() == 0 {
			continue
		}
		md.H3(page.URL)
		md.PlainText("")
		issues := make([]string, 0, page.IssueCount())
		for _, row := range appendRows(nil, page.URL, CategorySEO, page.SEOIssues) {
			issues = append(issues, fmt.Sprintf("[%s] %s", row.Category, row.Message))
		}
		for _, row := range appendRows(nil, page.URL, CategoryBestPractice, page.BestPracticeIssues) {
			issues = append(issues, fmt.Sprintf("[%s] %s", row.Category, row.Message))
		}
		for _, row := range appendRows(nil, page.URL, CategoryBrokenLink, page.BrokenLinks) {
			issues = append(issues, fmt.Sprintf("[%s] %s", row.Category, row.Message))
		}
		md.BulletList(issues...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by siteaudit at %s*", formatTime(r.FinishedAt))

	return md.Build()
}

func pageStatus(status crawler.OutcomeStatus, code int) string {
	if code == 0 {
		return string(status)
	}
	return fmt.Sprintf("%s (%d)", status, code)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
