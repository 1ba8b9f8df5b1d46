package convert

import (
	"zoterharvest/internal/domain"
)

// catalogExclusionMatch implements §4.4 stage 8: true if any
// catalog-exclusion filter matches a field of the assembled record.
func catalogExclusionMatch(catalog *domain.CatalogRecord, filters []domain.FieldFilter) bool {
	for _, f := range filters {
		field, pattern := f.Field, f.Pattern
		if pattern == "" {
			continue
		}
		if conditionMatches(catalog, field, pattern) {
			return true
		}
	}
	return false
}
