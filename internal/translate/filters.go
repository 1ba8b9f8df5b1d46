package translate

import (
	"regexp"
	"strings"

	"zoterharvest/internal/domain"
)

// ApplySuppressOverride applies the suppress and override options to
// every item in place, per spec §4.3 ("apply journal- and
// global-configured suppressors and overrides to every leaf string in
// each item"). Exclude and rewrite are the conversion engine's
// responsibility (§4.4 stages 2 and 7) since they carry their own skip
// counters and run at a specific pipeline stage rather than unconditionally
// at translation time.
func ApplySuppressOverride(item *Item, params domain.MetadataParams) {
	for _, f := range params.SuppressFilters {
		applyToField(item, f.Field, func(s string) string {
			if matches(f.Pattern, s) {
				return ""
			}
			return s
		})
	}

	for _, f := range params.OverrideFilters {
		applyToField(item, f.Field, func(s string) string {
			return strings.ReplaceAll(f.Replacement, "%org%", s)
		})
	}
}

// ApplyRewrite runs every rewrite filter's regex replacement over item in
// place.
func ApplyRewrite(item *Item, filters []domain.FieldFilter) {
	for _, f := range filters {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			continue
		}
		applyToField(item, f.Field, func(s string) string {
			return re.ReplaceAllString(s, f.Replacement)
		})
	}
}

// MatchesExclude reports whether item should be dropped under filters
// (any one exclude filter whose pattern matches a leaf value of its
// field is sufficient).
func MatchesExclude(item *Item, filters []domain.FieldFilter) bool {
	for _, f := range filters {
		if fieldMatches(item, f.Field, f.Pattern) {
			return true
		}
	}
	return false
}

func matches(pattern, s string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// fieldMatches reports whether any leaf string reachable under field
// matches pattern.
func fieldMatches(item *Item, field, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	found := false
	walkLeaves(item.Fields[field], func(s string) string {
		if re.MatchString(s) {
			found = true
		}
		return s
	})
	return found
}

// applyToField rewrites every leaf string reachable under field.
func applyToField(item *Item, field string, fn func(string) string) {
	v, ok := item.Fields[field]
	if !ok {
		return
	}
	item.Fields[field] = walkLeaves(v, fn)
}

// walkLeaves recursively rewrites every string leaf of v (handling the
// string/[]any/map[string]any shapes zotero field values take, e.g.
// creators is []any of map[string]any, tags is []any of map[string]any).
func walkLeaves(v any, fn func(string) string) any {
	switch val := v.(type) {
	case string:
		return fn(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = walkLeaves(e, fn)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = walkLeaves(e, fn)
		}
		return out
	default:
		return v
	}
}
