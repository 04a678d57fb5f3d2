package cmd

import (
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcilecmd"
	"github.com/spf13/cobra"
)

func addReportCmds(root *cobra.Command, app *reconcilecmd.App) {
	root.AddCommand(reconcilecmd.NewReviewCmd(app))
	root.AddCommand(reconcilecmd.NewCrosscheckCmd(app))
	root.AddCommand(reconcilecmd.NewExportCmd(app))
}
