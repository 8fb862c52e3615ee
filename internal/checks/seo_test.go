package checks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

const pageURL = "https://x.com/page"

func TestSEOHeadingStructure(t *testing.T) {
	t.Parallel()

	doc := document.MustParse(`<html><body>
		<h2>Intro</h2><h1>Main</h1><h2>Sub</h2><h4>Deep</h4><h3>Back</h3><h1>Again</h1>
	</body></html>`)
	result := NewSEO().Check(doc, pageURL)

	assert.Equal(t, []crawler.Heading{
		{Level: 2, Text: "Intro", Position: 0, IsIncorrect: true},
		{Level: 1, Text: "Main", Position: 1},
		{Level: 2, Text: "Sub", Position: 2},
		{Level: 4, Text: "Deep", Position: 3, IsIncorrect: true},
		{Level: 3, Text: "Back", Position: 4},
		{Level: 1, Text: "Again", Position: 5},
	}, result.Headings)
	assert.Contains(t, result.Issues, "Incorrect heading structure: h2 appears before h1 on "+pageURL)
	assert.Contains(t, result.Issues, "Incorrect heading structure: h4 follows h2 on "+pageURL)
	assert.Contains(t, result.Issues, "Warning: Multiple h1 headings (2) on "+pageURL)
}

func TestSEOMetadataIssues(t *testing.T) {
	t.Parallel()

	doc := document.MustParse(`<html><head></head><body><p>nothing</p></body></html>`)
	result := NewSEO().Check(doc, pageURL)

	assert.Equal(t, []string{
		"Missing title tag on " + pageURL,
		"Warning: Missing meta description on " + pageURL,
		"Missing h1 heading on " + pageURL,
		"Warning: Missing canonical link on " + pageURL,
		"Warning: Missing lang attribute on html element on " + pageURL,
	}, result.Issues)
	assert.Empty(t, result.Headings)
}

func TestSEOLengthWarnings(t *testing.T) {
	t.Parallel()

	title := strings.Repeat("t", MaxTitleLength+1)
	description := strings.Repeat("ä", MaxDescriptionLength+1)
	doc := document.MustParse(`<html lang="en"><head><title>` + title + `</title>
		<meta name="description" content="` + description + `">
		<link rel="canonical" href="https://x.com/page"></head><body><h1>Hi</h1></body></html>`)
	result := NewSEO().Check(doc, pageURL)

	assert.Equal(t, []string{
		"Warning: Title is too long (61 characters, recommended max 60) on " + pageURL,
		"Warning: Meta description is too long (161 characters, recommended max 160) on " + pageURL,
	}, result.Issues)
}

func TestSEOSignals(t *testing.T) {
	t.Parallel()

	doc := document.MustParse(`<html lang="en"><head><title>Example</title>
		<meta name="description" content="About us">
		<link rel="canonical" href="/page">
		<link rel="alternate" hreflang="de" href="/de/page/">
		<link rel="alternate" hreflang="fr" href="https://x.com/fr/page#top">
		<link rel="alternate" hreflang="es" href="ftp://x.com/es">
		</head><body><h1>Example</h1>
		<p>Body text</p></body></html>`)
	result := NewSEO().Check(doc, pageURL)

	assert.Equal(t, "Example", result.Signals.Title)
	assert.Equal(t, "About us", result.Signals.Description)
	assert.Equal(t, []string{"https://x.com/de/page", "https://x.com/fr/page"}, result.Signals.HreflangURLs)
	assert.Equal(t, "Example Body text", result.Signals.Content)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, `Invalid hreflang URL "ftp://x.com/es" (es) on `+pageURL, result.Issues[0])
}
