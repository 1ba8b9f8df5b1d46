package convert

import (
	"fmt"
	"strings"

	"zoterharvest/internal/domain"
)

// abstractMaxLen bounds the assembled abstract subfield. The catalog
// format's exact subfield length ceiling is out of scope (spec
// Non-goals: "the catalog-format internals"); this mirrors the
// conservative common MARC abstract-field practice.
const abstractMaxLen = 2000

func truncateAbstract(s string) string {
	runes := []rune(s)
	if len(runes) <= abstractMaxLen {
		return s
	}
	return string(runes[:abstractMaxLen]) + "…"
}

// leaderFor returns the fixed leader for a serial-component-part record,
// per §4.4 stage 7.
func leaderFor() string {
	return "00000naa a2200000 c 4500"
}

func volumeIssuePagesYear(record domain.MetadataRecord) string {
	var parts []string
	if record.Volume != "" {
		parts = append(parts, record.Volume)
	}
	if record.Issue != "" {
		parts = append(parts, fmt.Sprintf("(%s)", record.Issue))
	}
	if record.Pages != "" {
		parts = append(parts, record.Pages)
	}
	year := record.Date
	if len(year) >= 4 {
		year = year[:4]
	}
	if year != "" {
		parts = append(parts, year)
	}
	return strings.Join(parts, ", ")
}

// Assemble implements §4.4 stage 7: build the CatalogRecord from a fully
// augmented MetadataRecord, then apply the merged catalog-layer
// add/add-if/remove/subfield-remove/rewrite rules.
func Assemble(record domain.MetadataRecord, cctx Context) domain.CatalogRecord {
	catalog := domain.CatalogRecord{
		GroupISIL:            cctx.Group.ISIL,
		ZederJournalID:       cctx.Journal.ZederID,
		JournalName:          cctx.Journal.Name,
		Leader:               leaderFor(),
		IsOnline:             cctx.Journal.Online.Complete() && record.SuperiorType == domain.SuperiorOnline,
		Authors:              record.Creators,
		Title:                record.Title,
		Languages:            record.Languages,
		Abstract:             truncateAbstract(record.Abstract),
		Date:                 record.Date,
		URL:                  record.URL,
		LicenseCode:          record.LicenseTag,
		DOI:                  record.DOI,
		SuperiorISSN:         record.ISSN,
		SuperiorPPN:          record.SuperiorPPN,
		VolumeIssuePagesYear: volumeIssuePagesYear(record),
		Keywords:             record.Keywords,
		SSGTag:               record.SSGTag,
		CustomFields:         map[string][]string{},
	}
	if catalog.URL == "" {
		catalog.URL = record.URL
	}

	merged := domain.MergeMetadataParams(cctx.Global.Metadata, cctx.Group.Metadata, cctx.Journal.CatalogMetadata)
	applyCustomFieldRules(&catalog, merged)
	return catalog
}
