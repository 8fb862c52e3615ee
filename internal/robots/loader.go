package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/siteaudit/internal/crawler"
)

// ErrUnavailable wraps every reason robots.txt could not be turned into rules.
var ErrUnavailable = errors.New("robots.txt unavailable")

const maxRobotsBytes = 1 << 20

// Fallback reasons reported to the Recorder.
const (
	ReasonNetwork  = "network"
	ReasonStatus   = "status"
	ReasonParse    = "parse"
	ReasonDisabled = "disabled"
)

// Recorder receives robots fallbacks.
type Recorder interface {
	ObserveRobotsFallback(reason string)
}

// Config controls how robots.txt is fetched.
type Config struct {
	UserAgent string
	Respect   bool
	Timeout   time.Duration
}

// Loader fetches robots.txt once per crawl and turns it into a Gate.
type Loader struct {
	cfg      Config
	client   *http.Client
	logger   *zap.Logger
	recorder Recorder
}

// NewLoader builds a Loader. client may be nil.
func NewLoader(cfg Config, client *http.Client, logger *zap.Logger, recorder Recorder) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	l := &Loader{cfg: cfg, logger: logger, recorder: recorder}
	wrapped := *client
	wrapped.Transport = &retryTransport{base: base, backoff: retryBackoff, onFallback: l.observeFallback}
	l.client = &wrapped
	return l
}

// Load implements crawler.PolicyLoader. It never fails: any problem yields a gate that
// allows every URL.
func (l *Loader) Load(ctx context.Context, startURL string) crawler.PolicyGate {
	if !l.cfg.Respect {
		l.observeFallback(ReasonDisabled)
		return NewGate(NoRestrictions{}, l.cfg.UserAgent)
	}
	rules, err := l.Fetch(ctx, startURL)
	if err != nil {
		l.logger.Warn("robots.txt unavailable; allowing every url",
			zap.String("start_url", startURL),
			zap.Error(err),
		)
	}
	return NewGate(rules, l.cfg.UserAgent)
}

// Fetch downloads and parses robots.txt for the origin of startURL. On failure it returns
// NoRestrictions together with an error wrapping ErrUnavailable.
func (l *Loader) Fetch(ctx context.Context, startURL string) (Rules, error) {
	robotsURL, err := robotsURLFor(startURL)
	if err != nil {
		l.observeFallback(ReasonNetwork)
		return NoRestrictions{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		l.observeFallback(ReasonNetwork)
		return NoRestrictions{}, fmt.Errorf("%w: new request: %v", ErrUnavailable, err)
	}
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.observeFallback(ReasonNetwork)
		return NoRestrictions{}, fmt.Errorf("%w: fetch %s: %w", ErrUnavailable, robotsURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			l.logger.Debug("failed to close robots response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		l.observeFallback(ReasonStatus)
		return NoRestrictions{}, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, robotsURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		l.observeFallback(ReasonNetwork)
		return NoRestrictions{}, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	rules, err := Parse(body)
	if err != nil {
		l.observeFallback(ReasonParse)
		return NoRestrictions{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	l.logger.Debug("robots.txt loaded", zap.String("url", robotsURL), zap.Int("bytes", len(body)))
	return rules, nil
}

func (l *Loader) observeFallback(reason string) {
	if l.recorder != nil {
		l.recorder.ObserveRobotsFallback(reason)
	}
}

func robotsURLFor(startURL string) (string, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return "", fmt.Errorf("parse start url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("start url %q is not absolute", startURL)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String(), nil
}
