package report

import (
	"go.uber.org/zap"
)

// LogSummary writes one entry per page and a closing scan summary to logger.
func LogSummary(logger *zap.Logger, r *Report) {
	if logger == nil {
		return
	}
	for _, page := range r.Pages {
		fields := []zap.Field{
			zap.String("url", page.URL),
			zap.String("status", string(page.Outcome.Status)),
			zap.Int("seo_issues", len(page.SEOIssues)),
			zap.Int("best_practice_issues", len(page.BestPracticeIssues)),
			zap.Int("broken_links", len(page.BrokenLinks)),
		}
		if page.IssueCount() == 0 {
			logger.Info("page clean", fields...)
			continue
		}
		logger.Info("page issues", append(fields, zap.Strings("issues", page.Issues()))...)
	}
	logger.Info("scan summary",
		zap.Int("total_urls", r.Summary.TotalURLs),
		zap.Int("urls_with_issues", r.Summary.URLsWithIssues),
		zap.Int("total_issues", r.Summary.TotalIssues),
		zap.Int("errors", r.Summary.Errors),
		zap.Int("warnings", r.Summary.Warnings),
		zap.Bool("degraded", r.Degraded),
		zap.Duration("elapsed", r.Duration()),
	)
}
