package reconcilecmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/marcxml"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runctx"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runmetrics"
)

// Prepared table and intermediate file names.
const (
	SierraPreppedFile = "sierra_prepped.csv"
	NaxosPreppedFile  = "naxos_prepped.csv"
	NaxosCombinedFile = "naxos_combined.xml"
	NaxosEditedFile   = "naxos_edited.xml"
	NaxosMARCFile     = "naxos_edited.mrc"
)

// normalized logs and counts rejected rows and returns the accepted table.
func normalized(rows [][]string, schema records.Schema, m *runmetrics.Metrics) records.Table {
	recs, errs := records.Normalize(rows, schema)
	for _, err := range errs {
		var mre *records.MalformedRowError
		if errors.As(err, &mre) {
			slog.Warn("Skipping malformed row", "source", mre.Source, "row", mre.Row, "key", mre.Key, "reason", mre.Reason)
			continue
		}
		slog.Warn("Skipping row", "source", schema.Name, "error", err)
	}
	m.Rows(schema.Name, len(rows)-len(errs), len(errs))

	t := schema.Table()
	t.Records = append(t.Records, recs...)
	return t
}

func (a *App) prepSierra(run *runctx.Run, path string, m *runmetrics.Metrics) (string, records.Table, error) {
	slog.Info("Processing Sierra export", "file", path)

	sheet, err := records.ReadSheet(path)
	if err != nil {
		return "", records.Table{}, fmt.Errorf("failed to read Sierra export: %w", err)
	}
	schema := records.SierraSchema(a.Config.Records.Marker, a.Config.Records.Delimiter)
	t := normalized(sheet.Rows, schema, m)

	out := run.Path(SierraPreppedFile)
	if err := records.WriteTable(out, t); err != nil {
		return "", records.Table{}, fmt.Errorf("failed to write prepped Sierra table: %w", err)
	}
	slog.Info("Sierra export prepped", "rows", len(sheet.Rows), "records", t.Len(), "output", out)
	return out, t, nil
}

func (a *App) prepNaxos(run *runctx.Run, dir string, m *runmetrics.Metrics) (string, records.Table, error) {
	slog.Info("Processing Naxos MARC/XML", "dir", dir)

	recs, err := marcxml.Combine(dir)
	if err != nil {
		return "", records.Table{}, fmt.Errorf("failed to combine MARC/XML files: %w", err)
	}
	if err := marcxml.WriteFile(run.Path(NaxosCombinedFile), recs); err != nil {
		return "", records.Table{}, err
	}

	edited := marcxml.Edit(recs, a.Config.MARC.EditOptions())
	if err := marcxml.WriteFile(run.Path(NaxosEditedFile), edited); err != nil {
		return "", records.Table{}, err
	}
	skipped, err := marcxml.WriteMARC21File(run.Path(NaxosMARCFile), edited)
	if err != nil {
		return "", records.Table{}, fmt.Errorf("failed to write MARC 21 file: %w", err)
	}
	for _, err := range skipped {
		slog.Warn("Leaving record out of MARC 21 file", "error", err)
	}
	slog.Info("Naxos records combined", "records", len(edited), "marc_records", len(edited)-len(skipped), "marc", run.Path(NaxosMARCFile))

	rows, errs := marcxml.VendorRows(edited, a.Config.Records.Delimiter)
	for _, err := range errs {
		slog.Warn("Skipping vendor record", "error", err)
	}
	schema := records.NaxosSchema(a.Config.Records.Marker, a.Config.Records.Delimiter)
	t := normalized(rows, schema, m)
	if len(errs) > 0 {
		m.Rows(schema.Name, 0, len(errs))
	}

	out := run.Path(NaxosPreppedFile)
	if err := records.WriteTable(out, t); err != nil {
		return "", records.Table{}, fmt.Errorf("failed to write prepped Naxos table: %w", err)
	}
	slog.Info("Naxos feed prepped", "records", t.Len(), "output", out)
	return out, t, nil
}

func (a *App) executePrep(sierraPath, naxosDir string) error {
	run, err := a.today()
	if err != nil {
		return err
	}
	m := runmetrics.New("prep", run.ID)
	defer a.writeMetrics(run, m)

	a.banner("PREP")
	if sierraPath != "" {
		out, t, err := a.prepSierra(run, sierraPath, m)
		if err != nil {
			return err
		}
		a.printf("Sierra records: %d -> %s\n", t.Len(), out)
	}
	if naxosDir != "" {
		out, t, err := a.prepNaxos(run, naxosDir, m)
		if err != nil {
			return err
		}
		a.printf("Naxos records:  %d -> %s\n", t.Len(), out)
		a.printf("MARC 21 file:   %s\n", run.Path(NaxosMARCFile))
	}
	return nil
}
