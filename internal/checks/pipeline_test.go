package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

var _ crawler.Pipeline = (*Pipeline)(nil)

func TestPipelineEvaluate(t *testing.T) {
	t.Parallel()

	doc := document.MustParse(`<html lang="en"><head><title>Home</title>
		<meta name="description" content="Welcome">
		<link rel="canonical" href="https://x.com/"></head>
		<body><h1>Home</h1><h3>Skip</h3><img src="/logo.png"></body></html>`)

	page := crawler.PageRef{URL: "https://x.com", FinalURL: "https://x.com/home", Redirects: 1}
	eval := NewPipeline(nil, NewBestPractices(0, nil), nil, nil).Evaluate(context.Background(), doc, page)

	assert.Equal(t, []string{"Incorrect heading structure: h3 follows h1 on https://x.com"}, eval.SEOIssues)
	assert.Equal(t, []string{
		"Missing alt attribute for image: /logo.png on https://x.com",
		"Missing viewport meta tag on https://x.com",
		"URL has 1 redirect(s). Final destination: https://x.com/home",
	}, eval.BestPracticeIssues)
	assert.Empty(t, eval.BrokenLinks)
	assert.Len(t, eval.Headings, 2)
	assert.Equal(t, "Home", eval.Signals.Title)
	assert.Equal(t, "Welcome", eval.Signals.Description)
}
