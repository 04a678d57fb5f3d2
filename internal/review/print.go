package review

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var statusLabels = map[linkcheck.Status]string{
	linkcheck.Live:        "Records with live urls",
	linkcheck.Dead:        "Records with dead links",
	linkcheck.Unavailable: "Records unavailable in US",
	linkcheck.Blocked:     "URL checks blocked for",
	linkcheck.Unknown:     "Unknown URL status for",
}

// PrintSummary prints the report to stdout, styled when stdout is a terminal.
func (r Report) PrintSummary(title string) {
	styled := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	r.WriteSummary(os.Stdout, title, styled)
}

// WriteSummary writes a human-readable summary of the report to w.
func (r Report) WriteSummary(w io.Writer, title string, styled bool) {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, render(titleStyle, title))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if r.Empty() {
		fmt.Fprintln(w, "No records to review")
		fmt.Fprintln(w, strings.Repeat("=", 70))
		return
	}

	line := func(style lipgloss.Style, label string, n int) {
		fmt.Fprintf(w, "%s: %s\n", label, render(style, fmt.Sprintf("%d/%d, %.2f%%", n, r.Total, r.Percent(n))))
	}

	line(goodStyle, "Records with at least one match in WorldCat", r.WithAnyCandidate)
	if r.Kind == reconcile.Matched {
		line(goodStyle, "Records with match on OCLC number from Sierra", r.WithExactMatch)
	}
	for _, s := range linkcheck.Statuses {
		n := r.LinkStatus[s]
		if n == 0 {
			continue
		}
		style := problemStyle
		switch s {
		case linkcheck.Live:
			style = goodStyle
		case linkcheck.Unknown, linkcheck.Blocked:
			style = warnStyle
		}
		line(style, statusLabels[s], n)
	}
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Rows without candidates: %d\n", len(r.NoCandidate))
	fmt.Fprintf(w, "Rows with problem links: %d\n", len(r.ProblemLinks))
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
