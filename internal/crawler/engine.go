package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PolicyLoader builds the policy gate for a crawl from its start URL. Implementations
// fail open: a gate is always returned.
type PolicyLoader interface {
	Load(ctx context.Context, startURL string) PolicyGate
}

// Engine runs crawls. It holds collaborators only; each Run owns its own frontier,
// duplicate index and result store.
type Engine struct {
	cfg      Config
	fetcher  Fetcher
	parser   Parser
	pipeline Pipeline
	policy   PolicyLoader
	limiter  Limiter
	retry    RetryPolicy
	pauser   pauseController
	recorder Recorder
	logger   *zap.Logger
}

// NewEngine wires an engine. limiter, retry and recorder may be nil.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	parser Parser,
	pipeline Pipeline,
	policy PolicyLoader,
	limiter Limiter,
	retry RetryPolicy,
	recorder Recorder,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if retry == nil {
		retry = noRetry{}
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  fetcher,
		parser:   parser,
		pipeline: pipeline,
		policy:   policy,
		limiter:  limiter,
		retry:    retry,
		pauser:   &timerPauseController{},
		recorder: recorder,
		logger:   logger,
	}
}

type run struct {
	frontier *Frontier
	agg      *Aggregator
	gate     PolicyGate
	approved atomic.Int64
}

// Run crawls from the configured seeds until the frontier drains or ctx is done, then
// finalizes the result store. Only invalid configuration is returned as an error.
func (e *Engine) Run(ctx context.Context) (Store, error) {
	if err := e.cfg.Validate(); err != nil {
		return Store{}, err
	}
	if e.fetcher == nil || e.parser == nil || e.pipeline == nil {
		return Store{}, errors.New("crawler: fetcher, parser and pipeline are required")
	}

	r := &run{
		frontier: NewFrontier(FrontierConfig{DeniedPaths: e.cfg.DeniedPaths, MaxPages: e.cfg.MaxPages}, e.logger),
		agg: NewAggregator(AggregatorConfig{
			WaitBudget:      e.cfg.WaitBudget,
			MaxContentPages: e.cfg.MaxContentPages,
		}, e.logger, e.recorder),
	}
	for _, seed := range e.cfg.Seeds {
		if _, err := r.frontier.Seed(seed); err != nil {
			return Store{}, err
		}
	}

	r.gate = allowAll{}
	if e.policy != nil {
		if gate := e.policy.Load(ctx, e.cfg.Seeds[0]); gate != nil {
			r.gate = gate
		}
	}

	stop := context.AfterFunc(ctx, r.frontier.Close)
	defer stop()

	started := time.Now()
	e.logger.Info("crawl started",
		zap.String("mode", string(e.cfg.Mode)),
		zap.Strings("seeds", e.cfg.Seeds),
		zap.Int("workers", e.cfg.workers()),
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.workers(); i++ {
		g.Go(func() error {
			for {
				url, ok := r.frontier.Next(gctx)
				if !ok {
					return nil
				}
				e.process(gctx, r, url)
				r.frontier.Done(url)
			}
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("crawl workers failed", zap.Error(err))
	}

	store := r.agg.Finalize(ctx)
	store.Visited = r.frontier.Visited()
	e.logger.Info("crawl finished",
		zap.Int("pages", len(store.Pages)),
		zap.Int("visited", len(store.Visited)),
		zap.Bool("degraded", store.Degraded),
		zap.Duration("elapsed", time.Since(started)),
	)
	return store, nil
}

func (e *Engine) process(ctx context.Context, r *run, url string) {
	logger := e.logger.With(zap.String("url", url))
	if !r.gate.IsAllowed(url) {
		logger.Info("robots policy denied url")
		e.recorder.ObservePolicyDenied()
		return
	}
	r.agg.SetExpectedCount(int(r.approved.Add(1)))

	resp, err := e.fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("fetch abandoned", zap.Error(err))
			return
		}
		e.recordFailure(r, url, NewFetchError(url, err), resp.Duration, logger)
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		fe := &FetchError{URL: url, Kind: FetchErrorStatus, StatusCode: resp.StatusCode}
		e.recordFailure(r, url, fe, resp.Duration, logger)
		return
	}

	finalURL := url
	if resp.FinalURL != "" {
		if canonical, cerr := Canonicalize(resp.FinalURL); cerr == nil {
			finalURL = canonical
		}
	}
	if finalURL != url {
		r.frontier.MarkVisited(finalURL)
		if e.cfg.Mode.FollowsLinks() && r.frontier.FollowSeedRedirect(url, finalURL) {
			logger.Info("seed redirected, crawl scope extended", zap.String("final_url", finalURL))
		}
	}

	result := PageResult{
		URL: url,
		Outcome: FetchOutcome{
			Status:     OutcomeFetched,
			StatusCode: resp.StatusCode,
			FinalURL:   finalURL,
			DurationMs: resp.Duration.Milliseconds(),
		},
	}

	doc, err := e.parser.Parse(resp.Body)
	if err != nil {
		logger.Warn("parse failed", zap.Error(err))
		result.BestPracticeIssues = []string{fmt.Sprintf("Unable to parse HTML for %s: %v", url, err)}
		r.agg.AddResult(result)
		e.recorder.ObservePage(string(OutcomeFetched), resp.Duration)
		return
	}

	eval := e.pipeline.Evaluate(ctx, doc, PageRef{URL: url, FinalURL: finalURL, Redirects: resp.Redirects})
	result.SEOIssues = eval.SEOIssues
	result.BestPracticeIssues = eval.BestPracticeIssues
	result.BrokenLinks = eval.BrokenLinks
	result.HeadingStructure = eval.Headings
	r.agg.Commit(result, eval.Signals)
	e.recorder.ObservePage(string(OutcomeFetched), resp.Duration)
	logger.Debug("page processed",
		zap.Int("status", resp.StatusCode),
		zap.Int("issues", result.IssueCount()),
	)

	if !e.cfg.Mode.FollowsLinks() {
		return
	}
	for _, href := range doc.Links() {
		link, decision := r.frontier.Enqueue(href, finalURL)
		e.recorder.ObserveLink(string(decision))
		if IsScopeViolation(decision) {
			logger.Debug("link dropped", zap.String("link", link), zap.String("decision", string(decision)))
		}
	}
}

func (e *Engine) fetch(ctx context.Context, url string) (FetchResponse, error) {
	for attempt := 1; ; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, url); err != nil {
				return FetchResponse{}, err
			}
		}
		resp, err := e.fetcher.Fetch(ctx, FetchRequest{URL: url})
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !e.retry.ShouldRetry(err, attempt) {
			return resp, err
		}
		delay := e.retry.Backoff(attempt)
		e.logger.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		e.pauser.Pause(ctx, delay)
	}
}

func (e *Engine) recordFailure(r *run, url string, fe *FetchError, d time.Duration, logger *zap.Logger) {
	logger.Warn("fetch failed",
		zap.String("kind", string(fe.Kind)),
		zap.Int("status", fe.StatusCode),
		zap.Error(fe),
	)
	r.agg.AddResult(PageResult{
		URL: url,
		Outcome: FetchOutcome{
			Status:     OutcomeFailed,
			StatusCode: fe.StatusCode,
			ErrorKind:  fe.Kind,
			Error:      fe.Error(),
			DurationMs: d.Milliseconds(),
		},
		BestPracticeIssues: []string{fmt.Sprintf("Fetch failed for %s: %s", url, failureCause(fe))},
	})
	e.recorder.ObservePage(string(OutcomeFailed), d)
}

func failureCause(fe *FetchError) string {
	switch fe.Kind {
	case FetchErrorStatus:
		return fmt.Sprintf("HTTP status %d", fe.StatusCode)
	case FetchErrorTimeout:
		return "request timed out"
	case FetchErrorRedirects:
		return "too many redirects"
	default:
		if fe.Err != nil {
			return fe.Err.Error()
		}
		return string(fe.Kind)
	}
}

type allowAll struct{}

func (allowAll) IsAllowed(string) bool { return true }
