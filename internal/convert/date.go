package convert

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// strptimeToGoLayout translates the handful of strptime directives the
// configuration format actually uses into a Go reference-time layout.
// Journals only ever configure a handful of common date shapes, so this
// is a small substitution table rather than a full strptime engine.
var strptimeDirectives = map[string]string{
	"%Y": "2006",
	"%y": "06",
	"%m": "01",
	"%d": "02",
	"%H": "15",
	"%M": "04",
	"%S": "05",
	"%b": "Jan",
	"%B": "January",
	"%a": "Mon",
	"%A": "Monday",
}

func strptimeToGoLayout(format string) string {
	layout := format
	for directive, goToken := range strptimeDirectives {
		layout = strings.ReplaceAll(layout, directive, goToken)
	}
	return layout
}

// normalizeDate implements §4.4 stage 5's date normalization: parse raw
// using the journal's strptime_format_string_ (if set) and re-render as
// YYYY-MM-DD; fall back to araddon/dateparse's freeform parser; leave raw
// untouched if both fail.
func normalizeDate(raw, strptimeFormat string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	if strptimeFormat != "" {
		layout := strptimeToGoLayout(strptimeFormat)
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.Format("2006-01-02")
	}

	return raw
}
