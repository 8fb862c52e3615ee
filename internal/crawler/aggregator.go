package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultWaitBudget bounds how long Finalize waits for the expected result count.
const DefaultWaitBudget = 10 * time.Second

// AggregatorConfig controls completion gating and the duplicate index.
type AggregatorConfig struct {
	WaitBudget      time.Duration
	MaxContentPages int
}

// Aggregator owns the per-page result store of one crawl run and the duplicate index
// that feeds it. It is safe for concurrent use.
type Aggregator struct {
	mu         sync.Mutex
	results    map[string]*PageResult
	order      []string
	expected   int
	changed    chan struct{}
	index      *DuplicateIndex
	waitBudget time.Duration
	logger     *zap.Logger
	recorder   Recorder
}

// NewAggregator builds an empty result store.
func NewAggregator(cfg AggregatorConfig, logger *zap.Logger, recorder Recorder) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.WaitBudget <= 0 {
		cfg.WaitBudget = DefaultWaitBudget
	}
	return &Aggregator{
		results:    make(map[string]*PageResult),
		changed:    make(chan struct{}),
		index:      NewDuplicateIndex(cfg.MaxContentPages, logger),
		waitBudget: cfg.WaitBudget,
		logger:     logger,
		recorder:   recorder,
	}
}

// AddResult stores result under its URL. A later result for the same URL replaces the
// earlier one but keeps its position.
func (a *Aggregator) AddResult(result PageResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.storeLocked(result)
}

// Commit registers the page's signals in the duplicate index and stores its result as one
// step, so Finalize never observes one without the other.
func (a *Aggregator) Commit(result PageResult, signals Signals) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.index.RegisterTitle(signals.Title, result.URL)
	a.index.RegisterDescription(signals.Description, result.URL)
	a.index.RegisterContent(result.URL, signals.Content)
	a.index.RegisterHreflang(result.URL, signals.HreflangURLs)
	result.HreflangURLs = a.index.Hreflang(result.URL)
	a.storeLocked(result)
}

// SetExpectedCount sets how many results Finalize waits for.
func (a *Aggregator) SetExpectedCount(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expected = n
	a.notifyLocked()
}

func (a *Aggregator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Finalize waits until the store holds the expected number of results, then folds the
// duplicate findings into the stored results. The wait ends early, with a degraded store,
// when the wait budget elapses or ctx is done. Calling Finalize again adds nothing new.
func (a *Aggregator) Finalize(ctx context.Context) Store {
	complete := a.awaitExpected(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !complete {
		a.logger.Warn("finalizing with incomplete results",
			zap.Int("expected", a.expected),
			zap.Int("collected", len(a.order)),
		)
	}
	a.foldDuplicatesLocked()
	a.recorder.ObserveFinalize(!complete)

	pages := make([]PageResult, 0, len(a.order))
	for _, url := range a.order {
		pages = append(pages, a.results[url].clone())
	}
	return Store{Pages: pages, Degraded: !complete, Expected: a.expected}
}

func (a *Aggregator) awaitExpected(ctx context.Context) bool {
	budget := time.NewTimer(a.waitBudget)
	defer budget.Stop()
	for {
		a.mu.Lock()
		if len(a.order) >= a.expected {
			a.mu.Unlock()
			return true
		}
		changed := a.changed
		a.mu.Unlock()

		select {
		case <-changed:
		case <-budget.C:
			a.logger.Warn("result wait budget exhausted", zap.Duration("budget", a.waitBudget))
			return false
		case <-ctx.Done():
			a.logger.Info("result wait canceled", zap.Error(ctx.Err()))
			return false
		}
	}
}

func (a *Aggregator) storeLocked(result PageResult) {
	url := result.URL
	if _, exists := a.results[url]; !exists {
		a.order = append(a.order, url)
	}
	stored := result.clone()
	a.results[url] = &stored
	a.notifyLocked()
}

func (a *Aggregator) notifyLocked() {
	close(a.changed)
	a.changed = make(chan struct{})
}

func (a *Aggregator) foldDuplicatesLocked() {
	for _, kind := range []DuplicateKind{DuplicateTitle, DuplicateDescription, DuplicateContent} {
		groups := a.index.Groups(kind)
		a.recorder.ObserveDuplicates(string(kind), len(groups))
		for _, group := range groups {
			for _, url := range group.URLs {
				result, ok := a.results[url]
				if !ok {
					continue
				}
				prefix := duplicatePrefix(group)
				if hasIssuePrefix(result.SEOIssues, prefix) {
					continue
				}
				result.SEOIssues = append(result.SEOIssues, duplicateMessage(group, url))
			}
		}
	}
}

func duplicatePrefix(group DuplicateGroup) string {
	switch group.Kind {
	case DuplicateContent:
		return "Duplicate content:"
	default:
		return fmt.Sprintf("Duplicate %s: %q", group.Kind, group.Value)
	}
}

func duplicateMessage(group DuplicateGroup, url string) string {
	others := strings.Join(group.Others(url), ", ")
	if group.Kind == DuplicateContent {
		return fmt.Sprintf("%s page body identical to: %s", duplicatePrefix(group), others)
	}
	return fmt.Sprintf("%s also found on: %s", duplicatePrefix(group), others)
}

func hasIssuePrefix(issues []string, prefix string) bool {
	for _, issue := range issues {
		if strings.HasPrefix(issue, prefix) {
			return true
		}
	}
	return false
}
