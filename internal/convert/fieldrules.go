package convert

import (
	"regexp"
	"strings"

	"zoterharvest/internal/domain"
)

// splitCondition parses a FieldFilter.Condition of the form
// "<fieldName>:<regex>" as used by fields_to_add_if (spec §4.4 stage 7).
// This concrete syntax is this implementation's choice for an otherwise
// unspecified condition grammar; see DESIGN.md.
func splitCondition(condition string) (field, pattern string, ok bool) {
	idx := strings.IndexByte(condition, ':')
	if idx < 0 {
		return "", "", false
	}
	return condition[:idx], condition[idx+1:], true
}

func knownFieldValue(catalog *domain.CatalogRecord, field string) (string, bool) {
	switch field {
	case "Title":
		return catalog.Title, true
	case "DOI":
		return catalog.DOI, true
	case "ISSN", "SuperiorISSN":
		return catalog.SuperiorISSN, true
	case "ItemType":
		return "", false // item type isn't retained on CatalogRecord; condition on zotero fields belongs upstream
	default:
		return "", false
	}
}

func conditionMatches(catalog *domain.CatalogRecord, field, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	if v, ok := knownFieldValue(catalog, field); ok {
		return re.MatchString(v)
	}
	for _, v := range catalog.CustomFields[field] {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// applyCustomFieldRules applies fields_to_add, fields_to_add_if,
// fields_to_remove, subfields_to_remove, and rewrite_filters from the
// merged catalog-layer metadata params, per §4.4 stage 7's closing
// sentence.
func applyCustomFieldRules(catalog *domain.CatalogRecord, merged domain.MetadataParams) {
	for _, f := range merged.FieldsToAdd {
		catalog.CustomFields[f.Field] = append(catalog.CustomFields[f.Field], f.Replacement)
	}

	for _, f := range merged.FieldsToAddIf {
		field, pattern, ok := splitCondition(f.Condition)
		if !ok {
			continue
		}
		if conditionMatches(catalog, field, pattern) {
			catalog.CustomFields[f.Field] = append(catalog.CustomFields[f.Field], f.Replacement)
		}
	}

	for _, tag := range merged.FieldsToRemove {
		delete(catalog.CustomFields, tag)
	}

	// Subfield-level removal degrades to whole-field removal: CustomFields
	// tracks values per tag, not per subfield code, matching the
	// catalog-format scope limit in SPEC_FULL.md (subfield internals belong
	// to the out-of-scope writer library).
	for _, f := range merged.SubfieldsToRemove {
		delete(catalog.CustomFields, f.Field)
	}

	for _, f := range merged.RewriteFilters {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			continue
		}
		vals, ok := catalog.CustomFields[f.Field]
		if !ok {
			continue
		}
		for i, v := range vals {
			vals[i] = re.ReplaceAllString(v, f.Replacement)
		}
	}
}
