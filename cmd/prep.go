package cmd

import (
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcilecmd"
	"github.com/spf13/cobra"
)

// addPrepCmds registers the commands that build the outcome tables.
func addPrepCmds(root *cobra.Command, app *reconcilecmd.App) {
	root.AddCommand(reconcilecmd.NewPrepCmd(app))
	root.AddCommand(reconcilecmd.NewCompareCmd(app))
	root.AddCommand(reconcilecmd.NewReconcileCmd(app))
	root.AddCommand(reconcilecmd.NewSampleCmd(app))
}
