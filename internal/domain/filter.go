package domain

// FilterKind is the tagged-union discriminant for field-level post
// processing, replacing the several parallel "tag+subfield" maps the
// original configuration format used for the same purpose.
type FilterKind string

const (
	FilterSuppress  FilterKind = "suppress"  // blank the field if Pattern matches
	FilterOverride  FilterKind = "override"  // replace with Replacement (%org% = original value)
	FilterExclude   FilterKind = "exclude"   // drop the whole item if Pattern matches
	FilterRewrite   FilterKind = "rewrite"   // regexp.ReplaceAll(Pattern, Replacement)
	FilterAddIf     FilterKind = "add_if"    // add Field=Replacement if Condition matches some other field
	FilterRemove    FilterKind = "remove"    // drop Field (catalog tag) or Field+Subfield entirely
)

// FieldFilter is one entry of a FilterKind applied either at the zotero
// (translation-service JSON) layer, keyed by Field name, or at the catalog
// (MARC-like) layer, keyed by Field (tag) + Subfield code.
type FieldFilter struct {
	Kind        FilterKind
	Field       string
	Subfield    byte
	Pattern     string
	Replacement string
	Condition   string
}

// MetadataParams is the merged suppress/override/exclude/rewrite/add/remove
// configuration for one layer (zotero or catalog), formed from the global,
// group, and journal sections of the configuration file.
type MetadataParams struct {
	SuppressFilters   []FieldFilter
	OverrideFilters   []FieldFilter
	ExcludeFilters    []FieldFilter
	RewriteFilters    []FieldFilter
	FieldsToAdd       []FieldFilter
	FieldsToAddIf     []FieldFilter
	FieldsToRemove    []string
	SubfieldsToRemove []FieldFilter
}

// MergeMetadataParams concatenates global, group, and journal-level params
// in that order. Later entries are applied after earlier ones, so a
// journal-level suppress runs after a global one targeting the same field.
func MergeMetadataParams(layers ...MetadataParams) MetadataParams {
	var merged MetadataParams
	for _, l := range layers {
		merged.SuppressFilters = append(merged.SuppressFilters, l.SuppressFilters...)
		merged.OverrideFilters = append(merged.OverrideFilters, l.OverrideFilters...)
		merged.ExcludeFilters = append(merged.ExcludeFilters, l.ExcludeFilters...)
		merged.RewriteFilters = append(merged.RewriteFilters, l.RewriteFilters...)
		merged.FieldsToAdd = append(merged.FieldsToAdd, l.FieldsToAdd...)
		merged.FieldsToAddIf = append(merged.FieldsToAddIf, l.FieldsToAddIf...)
		merged.FieldsToRemove = append(merged.FieldsToRemove, l.FieldsToRemove...)
		merged.SubfieldsToRemove = append(merged.SubfieldsToRemove, l.SubfieldsToRemove...)
	}
	return merged
}
