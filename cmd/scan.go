package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/siteaudit/internal/checks"
	"github.com/JakeFAU/siteaudit/internal/clock/system"
	"github.com/JakeFAU/siteaudit/internal/config"
	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/document"
	collyfetcher "github.com/JakeFAU/siteaudit/internal/fetcher/colly"
	"github.com/JakeFAU/siteaudit/internal/id/uuid"
	"github.com/JakeFAU/siteaudit/internal/logging"
	"github.com/JakeFAU/siteaudit/internal/metrics"
	"github.com/JakeFAU/siteaudit/internal/policy/ratelimit"
	"github.com/JakeFAU/siteaudit/internal/report"
	"github.com/JakeFAU/siteaudit/internal/robots"
	"github.com/JakeFAU/siteaudit/internal/server"
)

func newScanCmd(v *viper.Viper) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "scan [flags] URL...",
		Short: "Crawl URLs and write an audit report",
		Long: `Scan audits websites in one of three modes:

  single    audit exactly one page
  multiple  audit every URL given on the command line, without following links
  full      start from one URL and follow every same-host link`,
		Example: `  siteaudit scan --mode single https://example.com
  siteaudit scan --mode multiple https://example.com/a https://example.com/b
  siteaudit scan --mode full --formats html,json,xlsx https://example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("read config flag: %w", err)
			}
			return runScan(cmd, v, cfgPath, mode, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&mode, "mode", string(crawler.ModeSingle), "crawl mode: single, multiple or full")
	flags.Int("concurrency", 1, "number of pages fetched in parallel")
	flags.Int("max-pages", 500, "stop discovering pages after this many (0 = unlimited)")
	flags.Duration("delay", 0, "minimum delay between requests to the same host")
	flags.Bool("respect-robots", true, "honor robots.txt rules")
	flags.Bool("broken-links", true, "probe every link for broken targets")
	flags.String("user-agent", "", "user agent sent with every request")
	flags.StringSlice("formats", []string{"html"}, "report formats: json, html, markdown, xlsx")
	flags.String("output-dir", ".", "directory the report files are written to")
	flags.String("basename", "report", "report file name without extension")
	flags.String("metrics-addr", "", "serve /metrics and /healthz on this address during the scan")

	bindFlag(v, "crawler.concurrency", cmd, "concurrency")
	bindFlag(v, "crawler.max_pages", cmd, "max-pages")
	bindFlag(v, "crawler.delay", cmd, "delay")
	bindFlag(v, "crawler.respect_robots", cmd, "respect-robots")
	bindFlag(v, "checks.broken_links", cmd, "broken-links")
	bindFlag(v, "report.formats", cmd, "formats")
	bindFlag(v, "report.output_dir", cmd, "output-dir")
	bindFlag(v, "report.basename", cmd, "basename")
	bindFlag(v, "metrics.addr", cmd, "metrics-addr")
	bindFlag(v, "crawler.user_agent", cmd, "user-agent")

	return cmd
}

func runScan(cmd *cobra.Command, v *viper.Viper, cfgPath, rawMode string, seeds []string) error {
	cfg, err := config.LoadFrom(v, cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mode, err := crawler.ParseMode(rawMode)
	if err != nil {
		return err
	}
	crawlCfg := cfg.CrawlConfig(mode, seeds)
	if err := crawlCfg.Validate(); err != nil {
		return err
	}
	formats, err := report.ParseFormats(cfg.Report.Formats)
	if err != nil {
		return err
	}

	baseLogger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if syncErr := baseLogger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()

	runID, err := uuid.New().NewID()
	if err != nil {
		return err
	}
	logger := logging.ForRun(baseLogger, runID, string(mode))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	stopServer := startMetricsServer(ctx, cfg.Metrics.Addr, m, reg, logger)
	defer stopServer()

	clock := system.New()
	meta := report.Meta{RunID: runID, Mode: mode, Seeds: seeds, StartedAt: clock.Now()}

	store, err := buildEngine(cfg, crawlCfg, m, logger).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	meta.FinishedAt = clock.Now()
	if ctx.Err() != nil {
		logger.Warn("scan interrupted; reporting partial results")
	}

	rep := report.New(store, meta)
	report.LogSummary(logger, rep)

	paths, err := report.WriteFiles(cfg.Report.OutputDir, cfg.Report.Basename, formats, rep)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	for _, path := range paths {
		logger.Info("report written", zap.String("path", path))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %d URL(s): %d issue(s), %d error(s), %d warning(s).\n",
		rep.Summary.TotalURLs, rep.Summary.TotalIssues, rep.Summary.Errors, rep.Summary.Warnings)
	for _, path := range paths {
		fmt.Fprintf(out, "Report: %s\n", path)
	}
	return nil
}

// buildEngine wires the fetch, policy and check stack for one run.
func buildEngine(cfg config.Config, crawlCfg crawler.Config, m *metrics.Metrics, logger *zap.Logger) *crawler.Engine {
	ua := cfg.Crawler.UserAgent

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    ua,
		Timeout:      cfg.HTTP.Timeout,
		MaxRedirects: cfg.HTTP.MaxRedirects,
	})
	policy := robots.NewLoader(robots.Config{
		UserAgent: ua,
		Respect:   cfg.Crawler.RespectRobots,
		Timeout:   cfg.HTTP.Timeout,
	}, nil, logger.Named("robots"), m)
	limiter := ratelimit.New(ratelimit.Config{Delay: cfg.Crawler.Delay}, m)

	var links *checks.LinkChecker
	if cfg.Checks.BrokenLinks {
		links = checks.NewLinkChecker(checks.LinkConfig{
			UserAgent:      ua,
			Timeout:        cfg.Checks.LinkTimeout,
			MaxRedirects:   cfg.HTTP.MaxRedirects,
			Concurrency:    cfg.Checks.LinkConcurrency,
			IgnoredDomains: cfg.Checks.IgnoredDomains,
		}, ratelimit.New(ratelimit.Config{Delay: cfg.Checks.LinkDelay}, m), logger.Named("links"))
	}
	pipeline := checks.NewPipeline(
		checks.NewSEO(),
		checks.NewBestPractices(cfg.HTTP.MaxRedirects, logger.Named("checks")),
		links,
		logger.Named("checks"),
	)

	return crawler.NewEngine(
		crawlCfg,
		fetcher,
		document.NewParser(),
		pipeline,
		policy,
		limiter,
		crawler.NewExponentialRetryPolicy(cfg.HTTP.MaxRetries),
		m,
		logger.Named("crawler"),
	)
}

// startMetricsServer serves metrics until the returned stop function is called. An empty
// addr disables the listener.
func startMetricsServer(
	ctx context.Context,
	addr string,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) func() {
	if addr == "" {
		return func() {}
	}
	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.New(m, gatherer, logger.Named("server")).ListenAndServe(srvCtx, addr); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
