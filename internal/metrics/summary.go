package metrics

import (
	"fmt"
	"io"
	"sort"
)

// PrintSummary renders the end-of-run report spec §7 describes: total
// download/conversion failures, every skipped_since_* bucket that fired,
// and delivered-record counts per group.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "downloads harvested unsuccessfully: %d\n", s.DownloadFailures)
	fmt.Fprintf(w, "MARC conversions unsuccessful: %d\n", s.ConversionFailures)

	reasons := make([]string, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "%s: %d\n", r, s.Skipped[r])
	}

	groups := make([]string, 0, len(s.DeliveredByGroup))
	for g := range s.DeliveredByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Fprintf(w, "delivered [%s]: %d\n", g, s.DeliveredByGroup[g])
	}
}
