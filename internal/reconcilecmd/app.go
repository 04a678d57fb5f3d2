// Package reconcilecmd implements the naxos-reconcile subcommands.
package reconcilecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/config"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runctx"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runmetrics"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/worldcat"
)

// App is shared by every subcommand. The root command fills Config before
// any subcommand runs.
type App struct {
	Config config.Config
	Now    func() time.Time
	Out    io.Writer

	// NewSearcher and NewProber build the network collaborators; tests swap them for fakes.
	NewSearcher func(cfg config.Config) (worldcat.Searcher, error)
	NewProber   func(ctx context.Context, cfg config.Config, browserCookies bool) (linkcheck.Prober, error)
}

// NewApp returns an App wired to the real WorldCat API and vendor site.
func NewApp() *App {
	return &App{
		Config:      config.Default(),
		Now:         time.Now,
		Out:         os.Stdout,
		NewSearcher: newWorldCatClient,
		NewProber:   newHTTPProber,
	}
}

func newWorldCatClient(cfg config.Config) (worldcat.Searcher, error) {
	tokens, err := cfg.WorldCat.TokenSource()
	if err != nil {
		return nil, err
	}
	wc := cfg.WorldCat
	return worldcat.NewClient(wc.BaseURL, tokens,
		worldcat.WithItemSubType(wc.ItemSubType),
		worldcat.WithRateLimit(wc.RateLimit),
		worldcat.WithRetry(wc.RetryAttempts, wc.RetryDelay),
	), nil
}

func newHTTPProber(ctx context.Context, cfg config.Config, browserCookies bool) (linkcheck.Prober, error) {
	lc := cfg.Links
	opts := []linkcheck.Option{
		linkcheck.WithRateLimit(lc.RateLimit),
		linkcheck.WithRetry(lc.RetryAttempts, lc.RetryDelay),
	}
	if lc.UserAgent != "" {
		opts = append(opts, linkcheck.WithUserAgent(lc.UserAgent))
	}
	if browserCookies {
		cookies, err := linkcheck.BrowserCookies(ctx, lc.CookieDomain)
		if err != nil {
			return nil, fmt.Errorf("failed to load browser cookies: %w", err)
		}
		slog.Info("Loaded browser cookies", "domain", lc.CookieDomain, "count", len(cookies))
		opts = append(opts, linkcheck.WithCookies(cookies))
	}
	return linkcheck.NewHTTPProber(opts...), nil
}

// today opens the run directory for the current date.
func (a *App) today() (*runctx.Run, error) {
	run, err := runctx.New(a.Config.DataDir, a.Now())
	if err != nil {
		return nil, err
	}
	slog.Debug("Using run directory", "dir", run.Dir, "run_id", run.ID)
	return run, nil
}

// resolveInput accepts a path as given, or a bare file name inside the run directory.
func resolveInput(run *runctx.Run, path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if alt := run.Path(path); alt != path {
		if _, err := os.Stat(alt); err == nil {
			return alt, nil
		}
	}
	return "", fmt.Errorf("input file not found: %s", path)
}

func (a *App) writeMetrics(run *runctx.Run, m *runmetrics.Metrics) {
	path := run.Path(runmetrics.FileName)
	if err := m.WriteFile(path); err != nil {
		slog.Warn("Failed to write run metrics", "path", path, "error", err)
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

func (a *App) banner(title string) {
	a.printf("\n%s\n", strings.Repeat("=", 70))
	a.printf("%s\n", title)
	a.printf("%s\n\n", strings.Repeat("=", 70))
}
