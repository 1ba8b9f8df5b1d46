package convert

import (
	"context"
	"strings"

	"zoterharvest/internal/domain"
)

var nameTitlePrefixes = map[string]bool{
	"dr":   true,
	"dr.":  true,
	"prof": true,
	"prof.": true,
}

var nameAffixSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
}

// splitTitleAffix extracts a leading honorific (title) and trailing
// generational suffix (affix) out of first/last name tokens, per §4.4
// stage 5's "split into {first, last, title, affix}".
func splitTitleAffix(c *domain.Creator) {
	firstTokens := strings.Fields(c.First)
	if len(firstTokens) > 0 && nameTitlePrefixes[strings.ToLower(firstTokens[0])] {
		c.Title = firstTokens[0]
		c.First = strings.Join(firstTokens[1:], " ")
	}

	lastTokens := strings.Fields(c.Last)
	if n := len(lastTokens); n > 1 && nameAffixSuffixes[strings.ToLower(lastTokens[n-1])] {
		c.Affix = lastTokens[n-1]
		c.Last = strings.Join(lastTokens[:n-1], " ")
	}
}

// applySpanishLastNameHeuristic folds the paternal-surname token that
// zotero sometimes reports as part of the first name into a compound
// Spanish last name (spec §4.4 stage 5: "apply language-specific
// last-name heuristics (Spanish two-component last names)").
func applySpanishLastNameHeuristic(c *domain.Creator) {
	firstTokens := strings.Fields(c.First)
	if len(firstTokens) < 2 {
		return
	}
	paternal := firstTokens[len(firstTokens)-1]
	c.First = strings.Join(firstTokens[:len(firstTokens)-1], " ")
	c.Last = strings.TrimSpace(paternal + " " + c.Last)
}

func isSingleLetterInitial(last string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(last), ".")
	return len([]rune(trimmed)) <= 1
}

func isBlocklisted(blocklist map[string]bool, c domain.Creator) bool {
	if blocklist == nil {
		return false
	}
	full := strings.TrimSpace(c.First + " " + c.Last)
	for entry := range blocklist {
		if strings.EqualFold(entry, full) || strings.EqualFold(entry, c.Last) {
			return true
		}
	}
	return false
}

// NormalizeCreators implements §4.4 stage 5's creator normalization:
// title/affix splitting, blocklist removal, the Spanish last-name
// heuristic, and GND lookup for every creator whose last name is not a
// bare initial.
func NormalizeCreators(ctx context.Context, creators []domain.Creator, languages []string, blocklist map[string]bool, lookup AuthorLookup) []domain.Creator {
	spanish := contains(languages, "spa")

	out := make([]domain.Creator, 0, len(creators))
	for _, c := range creators {
		if isBlocklisted(blocklist, c) {
			continue
		}
		splitTitleAffix(&c)
		if spanish {
			applySpanishLastNameHeuristic(&c)
		}
		if lookup != nil && !isSingleLetterInitial(c.Last) {
			if ppn, gnd, err := lookup.LookupGND(ctx, c.Last, c.First); err == nil {
				c.PPN, c.GND = ppn, gnd
			}
		}
		out = append(out, c)
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
