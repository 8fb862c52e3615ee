package crawler

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Mode selects how the frontier is seeded and whether discovered links are followed.
type Mode string

// Supported crawl modes.
const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
	ModeFull     Mode = "full"
)

// ParseMode validates a user supplied mode string.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeSingle, ModeMultiple, ModeFull:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (use single, multiple or full)", ErrInvalidMode, raw)
	}
}

// FollowsLinks reports whether pages fetched in this mode feed links back into the frontier.
func (m Mode) FollowsLinks() bool {
	return m == ModeFull
}

// OutcomeStatus is the terminal state of a page fetch.
type OutcomeStatus string

// Fetch outcomes recorded on page results.
const (
	OutcomeFetched OutcomeStatus = "fetched"
	OutcomeFailed  OutcomeStatus = "failed"
)

// FetchOutcome summarizes how the fetch for a page ended.
type FetchOutcome struct {
	Status     OutcomeStatus  `json:"status"`
	StatusCode int            `json:"status_code,omitempty"`
	FinalURL   string         `json:"final_url,omitempty"`
	ErrorKind  FetchErrorKind `json:"error_kind,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// Heading is one entry of a page's heading outline.
type Heading struct {
	Level       int    `json:"level"`
	Text        string `json:"text"`
	Position    int    `json:"position"`
	IsIncorrect bool   `json:"is_incorrect"`
}

// PageResult is the per-URL record stored by the Aggregator.
type PageResult struct {
	URL                string       `json:"url"`
	Outcome            FetchOutcome `json:"outcome"`
	SEOIssues          []string     `json:"seo_issues"`
	BestPracticeIssues []string     `json:"best_practice_issues"`
	BrokenLinks        []string     `json:"broken_links"`
	HeadingStructure   []Heading    `json:"heading_structure"`
	HreflangURLs       []string     `json:"hreflang_urls"`
}

// IssueCount returns the number of issues of every category on the page.
func (p PageResult) IssueCount() int {
	return len(p.SEOIssues) + len(p.BestPracticeIssues) + len(p.BrokenLinks)
}

// Issues returns every issue of the page in category order.
func (p PageResult) Issues() []string {
	out := make([]string, 0, p.IssueCount())
	out = append(out, p.SEOIssues...)
	out = append(out, p.BestPracticeIssues...)
	out = append(out, p.BrokenLinks...)
	return out
}

func (p PageResult) clone() PageResult {
	cp := p
	cp.SEOIssues = cloneStrings(p.SEOIssues)
	cp.BestPracticeIssues = cloneStrings(p.BestPracticeIssues)
	cp.BrokenLinks = cloneStrings(p.BrokenLinks)
	cp.HreflangURLs = cloneStrings(p.HreflangURLs)
	cp.HeadingStructure = append([]Heading{}, p.HeadingStructure...)
	return cp
}

// Signals are the values the Duplicate Index needs from a page.
type Signals struct {
	Title        string
	Description  string
	HreflangURLs []string
	// Content is the normalized rendered text of the page.
	Content string
}

// Evaluation is what the check pipeline returns for one page.
type Evaluation struct {
	SEOIssues          []string
	BestPracticeIssues []string
	BrokenLinks        []string
	Headings           []Heading
	Signals            Signals
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	// Redirects is the number of redirect hops followed to reach FinalURL.
	Redirects int
}

// PageRef identifies the page handed to the check pipeline and how it was reached.
type PageRef struct {
	// URL is the canonical URL the page is keyed under.
	URL string
	// FinalURL is where the fetch landed after redirects; it equals URL when none were followed.
	FinalURL  string
	Redirects int
}

// Store is the finalized, ready to render result set.
type Store struct {
	Pages []PageResult
	// Visited lists every URL the frontier accepted, including policy denials.
	Visited []string
	// Degraded is set when finalization gave up waiting for the expected count.
	Degraded bool
	Expected int
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append(make([]string, 0, len(in)), in...)
}
