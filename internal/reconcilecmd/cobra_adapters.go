package reconcilecmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPrepCmd creates the prep command for normalizing the Sierra export and Naxos feed
func NewPrepCmd(app *App) *cobra.Command {
	var sierraPath string
	var naxosDir string

	cmd := &cobra.Command{
		Use:   "prep",
		Short: "Normalize a Sierra export and/or the Naxos MARC/XML feed",
		Long: `Normalize source records into prepped tables keyed by Naxos content id.

The Sierra export is a CSV with a header row and columns: OCLC number, bib id,
URL(s). Multiple URLs separated by ";" become one row each, and only URLs
carrying "?cid=" are kept.

The Naxos feed is a directory of MARC/XML files. They are combined, 505 and 511
fields are dropped, 856$u links are rewritten to the library portal, and the
result is also written as binary MARC 21.`,
		Example: `  # Prep both sources into today's run directory
  naxos-reconcile prep --sierra ./sierra_export.csv --naxos ./naxos_xml/

  # Prep only the Sierra export
  naxos-reconcile prep --sierra ./sierra_export.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sierraPath == "" && naxosDir == "" {
				return fmt.Errorf("at least one of --sierra or --naxos is required")
			}
			return app.executePrep(sierraPath, naxosDir)
		},
	}

	cmd.Flags().StringVarP(&sierraPath, "sierra", "s", "", "Sierra export CSV file")
	cmd.Flags().StringVarP(&naxosDir, "naxos", "n", "", "Directory of Naxos MARC/XML files")
	return cmd
}

// NewCompareCmd creates the compare command for reconciling two prepped tables
func NewCompareCmd(app *App) *cobra.Command {
	var sierraPath string
	var naxosPath string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare prepped Sierra and Naxos tables",
		Long: `Join the prepped tables on content id and write three outcome tables:

  combined_urls_to_check.csv  records in both catalogs
  records_to_delete.csv       records only in Sierra
  records_to_import.csv       records only in the Naxos feed

Without flags the prepped tables in today's run directory are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeCompare(sierraPath, naxosPath)
		},
	}

	cmd.Flags().StringVarP(&sierraPath, "sierra", "s", "", "Prepped Sierra table (default sierra_prepped.csv in today's run)")
	cmd.Flags().StringVarP(&naxosPath, "naxos", "n", "", "Prepped Naxos table (default naxos_prepped.csv in today's run)")
	return cmd
}

// NewReconcileCmd creates the reconcile command, which runs prep for both sources and then compare
func NewReconcileCmd(app *App) *cobra.Command {
	var sierraPath string
	var naxosDir string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Prep the Sierra export and Naxos feed, then compare them",
		Example: `  naxos-reconcile reconcile --sierra ./sierra_export.csv --naxos ./naxos_xml/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeReconcile(sierraPath, naxosDir)
		},
	}

	cmd.Flags().StringVarP(&sierraPath, "sierra", "s", "", "Sierra export CSV file (required)")
	cmd.Flags().StringVarP(&naxosDir, "naxos", "n", "", "Directory of Naxos MARC/XML files (required)")
	_ = cmd.MarkFlagRequired("sierra")
	_ = cmd.MarkFlagRequired("naxos")
	return cmd
}

// NewSampleCmd creates the sample command for spot-checking an outcome table
func NewSampleCmd(app *App) *cobra.Command {
	var input string
	var every int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write every Nth row of a table for spot checks",
		Example: `  naxos-reconcile sample --input combined_urls_to_check.csv --every 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeSample(input, every)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Table to sample (path, or file name in today's run) (required)")
	cmd.Flags().IntVar(&every, "every", 20, "Keep one row in every N")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func addLookupFlags(cmd *cobra.Command, opts *lookupOptions) {
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Outcome table to process (path, or file name in today's run) (required)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "Number of data rows already processed; resumes after them")
	_ = cmd.MarkFlagRequired("input")
}

// NewSearchCmd creates the search command for WorldCat lookups
func NewSearchCmd(app *App) *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Look up each row in WorldCat and pick the best OCLC number",
		Long: `Search the WorldCat Metadata API for every row of an outcome table, one
request at a time, and append NUMBER_OF_RECORDS, OCLC_NUMBER, OCLC_SOURCE and
OCLC_MATCH. Each row is written as soon as it is done, so an interrupted run
can continue with --start.

Credentials come from WORLDCAT_TOKEN, or WORLDCAT_KEY and WORLDCAT_SECRET.`,
		Example: `  naxos-reconcile search --input combined_urls_to_check.csv

  # Continue after the first 1200 rows
  naxos-reconcile search --input combined_urls_to_check.csv --start 1200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeLookup(cmd.Context(), modeSearch, opts)
		},
	}

	addLookupFlags(cmd, &opts)
	return cmd
}

// NewCheckURLsCmd creates the check-urls command for vendor link health
func NewCheckURLsCmd(app *App) *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "check-urls",
		Short: "Check whether each row's vendor URL still plays",
		Long: `Fetch every row's resource page and append URL_STATUS: Live, Dead,
Unavailable (geo-restricted), Blocked (crawler challenge) or Unknown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeLookup(cmd.Context(), modeCheck, opts)
		},
	}

	addLookupFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.BrowserCookies, "browser-cookies", false, "Send the vendor site's cookies from local browsers")
	return cmd
}

// NewSearchCheckCmd creates the search-check command, which searches and checks URLs in one pass
func NewSearchCheckCmd(app *App) *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "search-check",
		Short: "Search WorldCat and check the vendor URL for each row",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeLookup(cmd.Context(), modeFull, opts)
		},
	}

	addLookupFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.BrowserCookies, "browser-cookies", false, "Send the vendor site's cookies from local browsers")
	return cmd
}

// NewReviewCmd creates the review command for summarizing result files
func NewReviewCmd(app *App) *cobra.Command {
	var file string
	var date string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Summarize search and URL check results",
		Long: `Print match and link statistics for result files and write the rows that
need a human: <file>_no_candidates.csv and <file>_problem_links.csv, plus a
<file>_summary.yaml.

With --date every *_results.csv in that day's run directory is reviewed.`,
		Example: `  naxos-reconcile review --file combined_urls_to_check_full_results.csv
  naxos-reconcile review --date 2024-05-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeReview(file, date)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Result file to review")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Review every result file of this run date (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("file", "date")
	return cmd
}

// NewCrosscheckCmd creates the crosscheck command for comparing OCLC numbers across catalogs
func NewCrosscheckCmd(app *App) *cobra.Command {
	var matched string
	var vendor string

	cmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare Sierra OCLC numbers with WorldCat results for Naxos records",
		Long: `Join the matched table with search results for vendor records on OCLC
number. The overlap goes to worldcat_matched_combined.csv; matched records whose
OCLC number no vendor result agrees with go to worldcat_unmatched_combined.csv.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeCrosscheck(matched, vendor)
		},
	}

	cmd.Flags().StringVarP(&matched, "matched", "m", "", "Matched table (default combined_urls_to_check.csv in today's run)")
	cmd.Flags().StringVarP(&vendor, "worldcat", "w", "", "Search results for Naxos records (required)")
	_ = cmd.MarkFlagRequired("worldcat")
	return cmd
}

// NewExportCmd creates the export command for SQLite and Parquet copies of a run
func NewExportCmd(app *App) *cobra.Command {
	var date string
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a run's tables to SQLite or Parquet",
		Example: `  naxos-reconcile export --format sqlite
  naxos-reconcile export --date 2024-05-01 --format parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.executeExport(date, format)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Run date to export (default today)")
	cmd.Flags().StringVar(&format, "format", "sqlite", "Output format (sqlite or parquet)")
	return cmd
}
