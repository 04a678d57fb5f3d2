package reconcilecmd

import (
	"log/slog"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runctx"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/runmetrics"
)

func (a *App) compare(run *runctx.Run, sierra, naxos records.Table, m *runmetrics.Metrics) (reconcile.Paths, error) {
	slog.Info("Comparing tables", "sierra", sierra.Len(), "naxos", naxos.Len())

	res := reconcile.Reconcile(sierra, naxos)
	for outcome, n := range res.Counts() {
		m.Outcome(outcome.String(), n)
	}

	paths, err := reconcile.Write(run.Dir, res)
	if err != nil {
		return reconcile.Paths{}, err
	}

	counts := res.Counts()
	a.printf("URLs to check:     %6d  %s\n", counts[reconcile.Matched], paths.Matched)
	a.printf("Records to delete: %6d  %s\n", counts[reconcile.LeftOnly], paths.LeftOnly)
	a.printf("Records to import: %6d  %s\n", counts[reconcile.RightOnly], paths.RightOnly)
	return paths, nil
}

func (a *App) executeCompare(sierraPath, naxosPath string) error {
	run, err := a.today()
	if err != nil {
		return err
	}
	m := runmetrics.New("compare", run.ID)
	defer a.writeMetrics(run, m)

	if sierraPath == "" {
		sierraPath = SierraPreppedFile
	}
	if naxosPath == "" {
		naxosPath = NaxosPreppedFile
	}
	if sierraPath, err = resolveInput(run, sierraPath); err != nil {
		return err
	}
	if naxosPath, err = resolveInput(run, naxosPath); err != nil {
		return err
	}

	sierra, err := records.ReadTable(sierraPath, "sierra")
	if err != nil {
		return err
	}
	naxos, err := records.ReadTable(naxosPath, "naxos")
	if err != nil {
		return err
	}

	a.banner("COMPARE")
	_, err = a.compare(run, sierra, naxos, m)
	return err
}

func (a *App) executeReconcile(sierraPath, naxosDir string) error {
	run, err := a.today()
	if err != nil {
		return err
	}
	m := runmetrics.New("reconcile", run.ID)
	defer a.writeMetrics(run, m)

	a.banner("RECONCILE")
	_, sierra, err := a.prepSierra(run, sierraPath, m)
	if err != nil {
		return err
	}
	_, naxos, err := a.prepNaxos(run, naxosDir, m)
	if err != nil {
		return err
	}
	_, err = a.compare(run, sierra, naxos, m)
	return err
}
