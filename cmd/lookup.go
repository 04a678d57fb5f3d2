package cmd

import (
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcilecmd"
	"github.com/spf13/cobra"
)

// addLookupCmds registers the row-at-a-time WorldCat and URL commands.
func addLookupCmds(root *cobra.Command, app *reconcilecmd.App) {
	root.AddCommand(reconcilecmd.NewSearchCmd(app))
	root.AddCommand(reconcilecmd.NewCheckURLsCmd(app))
	root.AddCommand(reconcilecmd.NewSearchCheckCmd(app))
}
