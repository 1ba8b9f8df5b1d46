package writer

import (
	"fmt"
	"sort"
	"strings"

	"zoterharvest/internal/domain"
)

// Serialize renders catalog in this module's own minimal field/value
// exchange format: one "TAG value" line per field, record terminated by
// a blank line. The real catalog-format reader/writer is out of scope
// (see SPEC_FULL.md §4.6); this carries exactly the subfields spec
// §3/§4.4 step 7 names.
func Serialize(catalog domain.CatalogRecord) string {
	var b strings.Builder

	line := func(tag, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", tag, value)
	}

	line("LDR", catalog.Leader)
	line("001", catalog.ID)
	line("URL", catalog.URL)
	line("ZID", catalog.ZederJournalID)
	line("JOU", catalog.JournalName)
	line("ISL", catalog.GroupISIL)
	line("245", catalog.Title)
	line("520", catalog.Abstract)
	line("936", catalog.VolumeIssuePagesYear)
	line("022", catalog.SuperiorISSN)
	line("024", catalog.SuperiorPPN)
	line("856", catalog.DOI)
	line("STA", boolToOnlinePhysical(catalog.IsOnline))
	line("LIC", catalog.LicenseCode)
	line("SSG", catalog.SSGTag)

	for _, lang := range catalog.Languages {
		line("041", lang)
	}
	for _, kw := range catalog.Keywords {
		line("650", kw)
	}
	for _, a := range catalog.Authors {
		line(authorTag(a), formatAuthor(a))
	}

	tags := make([]string, 0, len(catalog.CustomFields))
	for tag := range catalog.CustomFields {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		for _, v := range catalog.CustomFields[tag] {
			line(tag, v)
		}
	}

	b.WriteString("\n")
	return b.String()
}

func authorTag(a domain.Creator) string {
	if a.Type == "author" {
		return "100"
	}
	return "700"
}

func formatAuthor(a domain.Creator) string {
	name := strings.TrimSpace(a.Last + ", " + a.First)
	if a.Affix != "" {
		name += " " + a.Affix
	}
	if a.GND != "" {
		name += fmt.Sprintf(" (GND:%s)", a.GND)
	}
	return name
}

func boolToOnlinePhysical(online bool) string {
	if online {
		return "ONLINE"
	}
	return "PHYSICAL"
}
