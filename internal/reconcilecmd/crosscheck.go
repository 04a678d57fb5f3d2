package reconcilecmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runmetrics"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/worldcat"
)

// Crosscheck output files.
const (
	CrosscheckMatchedFile   = "worldcat_matched_combined.csv"
	CrosscheckUnmatchedFile = "worldcat_unmatched_combined.csv"
)

// vendorKeyColumn names the vendor-side OCLC number so it does not collide with Sierra's.
const vendorKeyColumn = "OCLC_NUMBER_NAXOS"

// Crosscheck joins the matched table with WorldCat results for vendor records
// on OCLC number. Matched rows without an OCLC number cannot join and are left out.
func Crosscheck(matched, vendor records.Sheet) (reconcile.Result, error) {
	left, err := records.TableFromSheet("sierra", matched)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("matched table: %w", err)
	}
	right, err := records.TableFromSheet("naxos", vendor)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("vendor results: %w", err)
	}
	if !vendor.Has(worldcat.ColumnIdentifier) {
		return reconcile.Result{}, fmt.Errorf("vendor results have no %s column", worldcat.ColumnIdentifier)
	}

	left = records.Rekey(left, worldcat.ColumnIdentifier)
	right = records.Rekey(right, worldcat.ColumnIdentifier)
	right.KeyName = vendorKeyColumn
	return reconcile.Reconcile(left, right), nil
}

func (a *App) executeCrosscheck(matchedPath, vendorPath string) error {
	run, err := a.today()
	if err != nil {
		return err
	}
	m := runmetrics.New("crosscheck", run.ID)
	defer a.writeMetrics(run, m)

	if matchedPath == "" {
		matchedPath = reconcile.MatchedFile
	}
	if matchedPath, err = resolveInput(run, matchedPath); err != nil {
		return err
	}
	if vendorPath, err = resolveInput(run, vendorPath); err != nil {
		return err
	}

	matched, err := records.ReadSheet(matchedPath)
	if err != nil {
		return err
	}
	vendor, err := records.ReadSheet(vendorPath)
	if err != nil {
		return err
	}

	res, err := Crosscheck(matched, vendor)
	if err != nil {
		return err
	}
	for outcome, n := range res.Counts() {
		m.Outcome(outcome.String(), n)
	}

	matchedOut := run.Path(CrosscheckMatchedFile)
	if err := records.WriteSheet(matchedOut, res.MatchedSheet()); err != nil {
		return fmt.Errorf("failed to write crosscheck overlap: %w", err)
	}
	unmatchedOut := run.Path(CrosscheckUnmatchedFile)
	if err := records.WriteTable(unmatchedOut, res.LeftOnly); err != nil {
		return fmt.Errorf("failed to write crosscheck mismatches: %w", err)
	}
	slog.Info("Crosscheck complete", "overlap", len(res.Matched), "unmatched", res.LeftOnly.Len())

	a.banner("CROSSCHECK")
	a.printf("Overlap between matched records and Naxos WorldCat results: %d -> %s\n", len(res.Matched), matchedOut)
	a.printf("Matched records with no agreeing Naxos OCLC number:        %d -> %s\n", res.LeftOnly.Len(), unmatchedOut)
	return nil
}
