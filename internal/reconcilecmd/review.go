package reconcilecmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/review"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runctx"
)

func (a *App) executeReview(file, date string) error {
	var files []string
	switch {
	case file != "":
		run, err := a.today()
		if err != nil {
			return err
		}
		path, err := resolveInput(run, file)
		if err != nil {
			return err
		}
		files = []string{path}
	default:
		var run *runctx.Run
		var err error
		if date != "" {
			run, err = runctx.ForDate(a.Config.DataDir, date)
		} else {
			run, err = a.today()
		}
		if err != nil {
			return err
		}
		if files, err = review.ResultFiles(run.Dir); err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no result files in %s", run.Dir)
		}
	}

	for _, path := range files {
		slog.Info("Reviewing results", "file", path)
		rep, paths, err := review.File(path)
		if err != nil {
			return fmt.Errorf("failed to review %s: %w", path, err)
		}

		title := fmt.Sprintf("%s (%s)", filepath.Base(path), rep.Kind)
		if a.Out == os.Stdout {
			rep.PrintSummary(title)
		} else {
			rep.WriteSummary(a.Out, title, false)
		}
		a.printf("Rows without candidates: %s\n", paths.NoCandidate)
		a.printf("Problem links:           %s\n", paths.ProblemLinks)
		a.printf("Summary:                 %s\n", paths.Summary)
	}
	return nil
}
