package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Decision records what the frontier did with a discovered link.
type Decision string

// Frontier decisions for discovered links.
const (
	DecisionEnqueued   Decision = "enqueued"
	DecisionDuplicate  Decision = "duplicate"
	DecisionOutOfScope Decision = "out_of_scope"
	DecisionDenylisted Decision = "denylisted"
	DecisionInvalid    Decision = "invalid"
	DecisionLimit      Decision = "limit_reached"
)

// FrontierConfig controls scope and size of a frontier.
type FrontierConfig struct {
	// DeniedPaths are URL substrings that are never enqueued from discovered links.
	DeniedPaths []string
	// MaxPages caps how many URLs are accepted; 0 disables the cap.
	MaxPages int
}

// Frontier owns the work queue and the visited set of one crawl run.
// Every canonical URL is accepted at most once; Next hands each accepted URL to exactly one caller.
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	origin   string
	aliases  map[string]struct{}
	seeds    map[string]struct{}
	denylist *pathDenylist
	maxPages int
	queue    []string
	seen     map[string]struct{}
	inFlight int
	closed   bool
	logger   *zap.Logger
}

// NewFrontier builds an empty frontier. The crawl scope is taken from the first seed.
func NewFrontier(cfg FrontierConfig, logger *zap.Logger) *Frontier {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Frontier{
		denylist: newPathDenylist(cfg.DeniedPaths),
		maxPages: cfg.MaxPages,
		seen:     make(map[string]struct{}),
		aliases:  make(map[string]struct{}),
		seeds:    make(map[string]struct{}),
		logger:   logger,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Seed enqueues a caller supplied URL. Seeds bypass the scope and denylist rules.
func (f *Frontier) Seed(rawURL string) (string, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	origin, err := Origin(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.origin == "" {
		f.origin = origin
	}
	f.seeds[canonical] = struct{}{}
	f.pushLocked(canonical)
	return canonical, nil
}

// FollowSeedRedirect widens the crawl scope to the origin a seed redirected to, so a
// seed given as http://host that lands on https://host keeps its same-site links. It
// reports whether the scope changed. Redirects from non-seed pages never widen scope.
func (f *Frontier) FollowSeedRedirect(seed, finalURL string) bool {
	canonical, err := Canonicalize(seed)
	if err != nil {
		return false
	}
	seedOrigin, err := Origin(canonical)
	if err != nil {
		return false
	}
	target, err := Origin(finalURL)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seeds[canonical]; !ok || seedOrigin != f.origin || target == f.origin {
		return false
	}
	if _, ok := f.aliases[target]; ok {
		return false
	}
	f.aliases[target] = struct{}{}
	return true
}

func (f *Frontier) inScopeLocked(origin string) bool {
	if f.origin == "" {
		return false
	}
	if origin == f.origin {
		return true
	}
	_, ok := f.aliases[origin]
	return ok
}

// Enqueue resolves href against the page it was discovered on and queues it when it is
// valid, in scope, not denylisted and not seen before.
func (f *Frontier) Enqueue(href, discoveredOn string) (string, Decision) {
	canonical, err := Resolve(href, discoveredOn)
	if err != nil {
		f.logger.Debug("dropping malformed link",
			zap.String("href", href),
			zap.String("found_on", discoveredOn),
			zap.Error(err),
		)
		return "", DecisionInvalid
	}
	origin, err := Origin(canonical)
	if err != nil {
		return "", DecisionInvalid
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inScopeLocked(origin) {
		return canonical, DecisionOutOfScope
	}
	if f.denylist.IsDenied(canonical) {
		return canonical, DecisionDenylisted
	}
	if _, ok := f.seen[canonical]; ok {
		return canonical, DecisionDuplicate
	}
	if f.maxPages > 0 && len(f.seen) >= f.maxPages {
		return canonical, DecisionLimit
	}
	f.pushLocked(canonical)
	return canonical, DecisionEnqueued
}

// MarkVisited records a URL as visited without queueing it. It returns false when the
// URL was already known.
func (f *Frontier) MarkVisited(rawURL string) bool {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[canonical]; ok {
		return false
	}
	f.seen[canonical] = struct{}{}
	return true
}

// Next blocks until a URL is available and returns it. It returns false once the queue is
// empty with nothing in flight, or when the frontier is closed or ctx is done.
// Each URL returned must be acknowledged with Done.
func (f *Frontier) Next(ctx context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 {
		if f.closed || f.inFlight == 0 || ctx.Err() != nil {
			return "", false
		}
		f.cond.Wait()
	}
	if f.closed || ctx.Err() != nil {
		return "", false
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	f.inFlight++
	return next, true
}

// Done acknowledges a URL obtained from Next.
func (f *Frontier) Done(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.cond.Broadcast()
}

// Close stops dispatching and wakes every waiter.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

// Visited returns the sorted set of every URL the frontier has accepted or marked.
func (f *Frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.seen))
	for u := range f.seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (f *Frontier) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *Frontier) pushLocked(canonical string) {
	if _, ok := f.seen[canonical]; ok {
		return
	}
	f.seen[canonical] = struct{}{}
	f.queue = append(f.queue, canonical)
	f.cond.Broadcast()
}

// IsScopeViolation reports whether a decision drops a link for scope reasons.
func IsScopeViolation(d Decision) bool {
	return d == DecisionOutOfScope || d == DecisionDenylisted
}
