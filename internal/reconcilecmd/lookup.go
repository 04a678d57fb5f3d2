package reconcilecmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runmetrics"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/worldcat"
)

// lookupMode selects which per-row collaborators run and where results go.
type lookupMode struct {
	name   string
	search bool
	check  bool
	suffix string
}

var (
	modeSearch = lookupMode{name: "search", search: true, suffix: "search_results"}
	modeCheck  = lookupMode{name: "check-urls", check: true, suffix: "url_results"}
	modeFull   = lookupMode{name: "search-check", search: true, check: true, suffix: "full_results"}
)

type lookupOptions struct {
	Input          string
	Start          int
	BrowserCookies bool
}

// ResumeError reports where an interrupted or failed lookup loop stopped.
type ResumeError struct {
	Row   int // 1-based data row that was not finished
	Total int
	Err   error
}

func (e *ResumeError) Error() string {
	return fmt.Sprintf("stopped at row %d of %d, resume with --start %d: %v", e.Row, e.Total, e.Row-1, e.Err)
}

func (e *ResumeError) Unwrap() error {
	return e.Err
}

// lookupColumns finds the join key, URL and known identifier columns of an outcome table.
type lookupColumns struct {
	key, url, known int
}

func findLookupColumns(s records.Sheet) (lookupColumns, error) {
	cols := lookupColumns{key: -1, url: -1, known: s.Index(worldcat.ColumnIdentifier)}
	for i, h := range s.Header {
		h = strings.ToUpper(strings.TrimSpace(h))
		if cols.key < 0 && strings.HasPrefix(h, "CID_") {
			cols.key = i
		}
		if cols.url < 0 && strings.HasPrefix(h, "URL_") {
			cols.url = i
		}
	}
	if cols.key < 0 || cols.url < 0 {
		return cols, fmt.Errorf("input needs CID_ and URL_ columns, got %v", s.Header)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (a *App) executeLookup(ctx context.Context, mode lookupMode, opts lookupOptions) error {
	run, err := a.today()
	if err != nil {
		return err
	}
	path, err := resolveInput(run, opts.Input)
	if err != nil {
		return err
	}
	sheet, err := records.ReadSheet(path)
	if err != nil {
		return err
	}
	total := len(sheet.Rows)
	if opts.Start < 0 || opts.Start > total {
		return fmt.Errorf("--start %d is outside the %d rows of %s", opts.Start, total, path)
	}
	cols, err := findLookupColumns(sheet)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var searcher worldcat.Searcher
	var prober linkcheck.Prober
	header := append([]string{}, sheet.Header...)
	if mode.search {
		if searcher, err = a.NewSearcher(a.Config); err != nil {
			return fmt.Errorf("failed to create WorldCat client: %w", err)
		}
		header = append(header, worldcat.Columns...)
	}
	if mode.check {
		if prober, err = a.NewProber(ctx, a.Config, opts.BrowserCookies); err != nil {
			return fmt.Errorf("failed to create URL prober: %w", err)
		}
		header = append(header, linkcheck.Column)
	}

	out := run.Derived(path, mode.suffix)
	w, err := records.NewAppender(out, header, opts.Start > 0)
	if err != nil {
		return err
	}
	defer w.Close()

	m := runmetrics.New(mode.name, run.ID)
	defer a.writeMetrics(run, m)

	policy := a.Config.WorldCat.Policy()
	slog.Info("Starting lookups", "mode", mode.name, "input", path, "rows", total, "start", opts.Start, "output", out)

	done := 0
	for i := opts.Start; i < total; i++ {
		row := sheet.Rows[i]
		key := cell(row, cols.key)
		if err := ctx.Err(); err != nil {
			return &ResumeError{Row: i + 1, Total: total, Err: err}
		}
		began := time.Now()

		values := make([]string, len(sheet.Header), len(header))
		copy(values, row)
		logArgs := []any{"row", i + 1, "total", total, "key", key}

		if mode.search {
			q := worldcat.NewQuery(key, cell(row, cols.url), a.Config.WorldCat.HostMarker)
			set, err := searcher.BriefBibsSearch(ctx, q)
			if err != nil {
				m.Lookup("error")
				return &ResumeError{Row: i + 1, Total: total, Err: records.WithKey(key, err)}
			}
			known := records.StripIdentifierPrefix(cell(row, cols.known))
			res := policy.Resolve(set, known)
			m.Lookup(res.Shape.String())
			values = append(values, res.Fields()...)
			logArgs = append(logArgs, "records", res.RecordCount, "shape", res.Shape.String())
		}
		if mode.check {
			status, err := prober.Probe(ctx, cell(row, cols.url))
			if err != nil {
				m.Probe("error")
				return &ResumeError{Row: i + 1, Total: total, Err: records.WithKey(key, err)}
			}
			m.Probe(status.String())
			values = append(values, status.String())
			logArgs = append(logArgs, "status", status.String())
		}

		if err := w.Write(values); err != nil {
			return &ResumeError{Row: i + 1, Total: total, Err: records.WithKey(key, err)}
		}
		done++
		slog.Info("Processed record", append(logArgs, "elapsed", time.Since(began).Round(time.Millisecond))...)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	a.banner(strings.ToUpper(mode.name))
	a.printf("Processed %d of %d rows (starting at row %d)\n", done, total, opts.Start+1)
	a.printf("Results: %s\n", out)
	a.printf("\nReview with:\n  naxos-reconcile review --file %s\n", out)
	return nil
}
