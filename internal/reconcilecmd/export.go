package reconcilecmd

import (
	"log/slog"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/export"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runctx"
)

func (a *App) executeExport(date, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	var run *runctx.Run
	if date != "" {
		run, err = runctx.ForDate(a.Config.DataDir, date)
	} else {
		run, err = a.today()
	}
	if err != nil {
		return err
	}

	paths, err := export.Dir(run.Dir, f)
	if err != nil {
		return err
	}
	slog.Info("Export complete", "format", f, "files", len(paths))
	for _, p := range paths {
		a.printf("Wrote %s\n", p)
	}
	return nil
}
