package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
)

// DefaultIgnoredDomains are link hosts that routinely block automated clients.
var DefaultIgnoredDomains = []string{
	"twitter.com", "linkedin.com", "facebook.com", "instagram.com",
	"paypal.com", "designrush.com", "selecthub.com",
}

var skippedSchemes = []string{"javascript:", "mailto:", "tel:"}

// LinkConfig controls the broken link checker.
type LinkConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRedirects   int
	Concurrency    int
	IgnoredDomains []string
	Transport      http.RoundTripper
}

// linkStatus is the cached outcome of probing one link.
type linkStatus struct {
	statusCode int
	err        error
	timeout    bool
}

// LinkChecker probes every anchor of a page and reports the broken ones. Each distinct link
// is probed at most once per checker; later pages reuse the cached outcome.
type LinkChecker struct {
	cfg     LinkConfig
	client  *http.Client
	limiter crawler.Limiter
	logger  *zap.Logger

	flight singleflight.Group
	mu     sync.Mutex
	cache  map[string]linkStatus
}

// NewLinkChecker builds a checker. limiter spaces probes per host and may be nil.
func NewLinkChecker(cfg LinkConfig, limiter crawler.Limiter, logger *zap.Logger) *LinkChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	maxRedirects := cfg.MaxRedirects
	return &LinkChecker{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return crawler.ErrTooManyRedirects
				}
				return nil
			},
		},
		limiter: limiter,
		logger:  logger,
		cache:   make(map[string]linkStatus),
	}
}

// Check returns one message per broken link found on the page, in document order.
func (c *LinkChecker) Check(ctx context.Context, doc *document.Document, pageURL string) []string {
	links := c.candidates(doc.Links(), pageURL)
	statuses := make([]linkStatus, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, link := range links {
		g.Go(func() error {
			statuses[i] = c.status(gctx, link)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil
	}

	var broken []string
	for i, link := range links {
		if msg := c.describe(statuses[i], link, pageURL); msg != "" {
			broken = append(broken, msg)
		}
	}
	return broken
}

func (c *LinkChecker) candidates(hrefs []string, pageURL string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if hasSkippedScheme(href) {
			continue
		}
		link, err := crawler.Resolve(href, pageURL)
		if err != nil {
			c.logger.Info("invalid link", zap.String("href", href), zap.String("found_on", pageURL))
			continue
		}
		if c.ignored(link) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

func (c *LinkChecker) status(ctx context.Context, link string) linkStatus {
	c.mu.Lock()
	cached, ok := c.cache[link]
	c.mu.Unlock()
	if ok {
		return cached
	}

	v, _, _ := c.flight.Do(link, func() (any, error) {
		st := c.probe(ctx, link)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.cache[link] = st
			c.mu.Unlock()
		}
		return st, nil
	})
	st, _ := v.(linkStatus)
	return st
}

func (c *LinkChecker) probe(ctx context.Context, link string) linkStatus {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, link); err != nil {
			return linkStatus{err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return linkStatus{err: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return linkStatus{err: err, timeout: isTimeout(err)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
	return linkStatus{statusCode: resp.StatusCode}
}

func (c *LinkChecker) describe(st linkStatus, link, pageURL string) string {
	switch {
	case st.timeout:
		c.logger.Info("timeout when connecting to link", zap.String("link", link), zap.String("found_on", pageURL))
		return ""
	case st.err != nil:
		return fmt.Sprintf("Cannot connect to: %s (found on %s). Error: %v", link, pageURL, st.err)
	case st.statusCode == http.StatusForbidden:
		c.logger.Info("access forbidden", zap.String("link", link), zap.String("found_on", pageURL))
		return ""
	case st.statusCode >= http.StatusBadRequest:
		return fmt.Sprintf("Broken link (status %d): %s (found on %s)", st.statusCode, link, pageURL)
	default:
		return ""
	}
}

func (c *LinkChecker) ignored(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range c.cfg.IgnoredDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func hasSkippedScheme(href string) bool {
	lowered := strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lowered, scheme) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
