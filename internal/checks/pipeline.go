package checks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

// Pipeline runs every check against a page. It implements crawler.Pipeline.
type Pipeline struct {
	seo    *SEO
	best   *BestPractices
	links  *LinkChecker
	logger *zap.Logger
}

// NewPipeline wires the checks. best and links may be nil to skip those categories.
func NewPipeline(seo *SEO, best *BestPractices, links *LinkChecker, logger *zap.Logger) *Pipeline {
	if seo == nil {
		seo = NewSEO()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{seo: seo, best: best, links: links, logger: logger}
}

// Evaluate implements crawler.Pipeline.
func (p *Pipeline) Evaluate(ctx context.Context, doc *document.Document, page crawler.PageRef) crawler.Evaluation {
	seo := p.seo.Check(doc, page.URL)
	eval := crawler.Evaluation{
		SEOIssues: seo.Issues,
		Headings:  seo.Headings,
		Signals:   seo.Signals,
	}
	if p.best != nil {
		eval.BestPracticeIssues = p.best.Check(doc, page)
	}
	if p.links != nil {
		eval.BrokenLinks = p.links.Check(ctx, doc, page.URL)
	}
	p.logger.Debug("checks complete",
		zap.String("url", page.URL),
		zap.Int("seo_issues", len(eval.SEOIssues)),
		zap.Int("best_practice_issues", len(eval.BestPracticeIssues)),
		zap.Int("broken_links", len(eval.BrokenLinks)),
	)
	return eval
}
