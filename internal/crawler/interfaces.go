package crawler

import (
	"context"
	"time"

	"github.com/JakeFAU/siteaudit/internal/document"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Parser turns a fetched body into a queryable document.
type Parser interface {
	Parse(body []byte) (*document.Document, error)
}

// Pipeline runs every content check against a parsed page.
type Pipeline interface {
	Evaluate(ctx context.Context, doc *document.Document, page PageRef) Evaluation
}

// PolicyGate decides whether a URL may be fetched at all.
type PolicyGate interface {
	IsAllowed(rawURL string) bool
}

// Limiter applies the fixed per-request delay.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Recorder receives crawl metrics. Implementations must be safe for concurrent use.
type Recorder interface {
	ObservePage(outcome string, duration time.Duration)
	ObserveLink(decision string)
	ObservePolicyDenied()
	ObserveDuplicates(kind string, groups int)
	ObserveFinalize(degraded bool)
}

type nopRecorder struct{}

func (nopRecorder) ObservePage(string, time.Duration) {}
func (nopRecorder) ObserveLink(string)                {}
func (nopRecorder) ObservePolicyDenied()              {}
func (nopRecorder) ObserveDuplicates(string, int)     {}
func (nopRecorder) ObserveFinalize(bool)              {}
