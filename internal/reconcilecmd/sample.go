package reconcilecmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

// Sample keeps every nth data row, starting with the first.
func Sample(s records.Sheet, every int) records.Sheet {
	if every < 1 {
		every = 1
	}
	out := records.Sheet{Header: s.Header, Rows: make([][]string, 0, len(s.Rows)/every+1)}
	for i := 0; i < len(s.Rows); i += every {
		out.Rows = append(out.Rows, s.Rows[i])
	}
	return out
}

func (a *App) executeSample(input string, every int) error {
	if every < 1 {
		return fmt.Errorf("--every must be at least 1, got %d", every)
	}
	run, err := a.today()
	if err != nil {
		return err
	}
	path, err := resolveInput(run, input)
	if err != nil {
		return err
	}

	sheet, err := records.ReadSheet(path)
	if err != nil {
		return err
	}
	sample := Sample(sheet, every)

	out := run.Path("sample_" + filepath.Base(path))
	if err := records.WriteSheet(out, sample); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	slog.Info("Sample written", "rows", len(sample.Rows), "of", len(sheet.Rows), "output", out)
	a.printf("Sampled %d of %d rows into %s\n", len(sample.Rows), len(sheet.Rows), out)
	return nil
}
